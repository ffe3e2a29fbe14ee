package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yctsai/akasha/internal/core/domain"
)

// EvalRepository persists evaluation runs, their per-question records and
// sweep combination results.
type EvalRepository struct {
	db *sql.DB
}

func NewEvalRepository(db *sql.DB) *EvalRepository {
	return &EvalRepository{db: db}
}

func (r *EvalRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083002)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS eval_runs (
	id TEXT PRIMARY KEY,
	embed_model TEXT NOT NULL,
	chunk_size INTEGER NOT NULL,
	gen_model TEXT NOT NULL,
	top_k INTEGER NOT NULL,
	strategy TEXT NOT NULL,
	total INTEGER NOT NULL,
	correct INTEGER NOT NULL,
	correct_rate DOUBLE PRECISION NOT NULL,
	tokens INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS eval_records (
	run_id TEXT NOT NULL REFERENCES eval_runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	question TEXT NOT NULL,
	response TEXT NOT NULL,
	expected INTEGER NOT NULL,
	got INTEGER NOT NULL,
	correct BOOLEAN NOT NULL,
	tokens INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE TABLE IF NOT EXISTS eval_combinations (
	embed_model TEXT NOT NULL,
	chunk_size INTEGER NOT NULL,
	gen_model TEXT NOT NULL,
	top_k INTEGER NOT NULL,
	strategy TEXT NOT NULL,
	correct_rate DOUBLE PRECISION NOT NULL,
	tokens INTEGER NOT NULL,
	cost_effective DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (embed_model, chunk_size, gen_model, top_k, strategy)
)`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create eval tables: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *EvalRepository) SaveRun(ctx context.Context, report *domain.EvalReport) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO eval_runs (id, embed_model, chunk_size, gen_model, top_k, strategy, total, correct, correct_rate, tokens, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`, report.RunID, report.Combination.EmbedModel, report.Combination.ChunkSize,
		report.Combination.GenModel, report.Combination.TopK, string(report.Combination.Strategy),
		report.Total, report.Correct, report.CorrectRate, report.Tokens,
		report.Duration.Milliseconds(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert eval run: %w", err)
	}

	for i, rec := range report.Records {
		_, err = tx.ExecContext(ctx, `
INSERT INTO eval_records (run_id, position, question, response, expected, got, correct, tokens)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, report.RunID, i, rec.Question, rec.Response, rec.Expected, rec.Got, rec.Correct, rec.Tokens)
		if err != nil {
			return fmt.Errorf("insert eval record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run tx: %w", err)
	}
	return nil
}

func (r *EvalRepository) SaveCombination(ctx context.Context, result domain.CombinationResult) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO eval_combinations (embed_model, chunk_size, gen_model, top_k, strategy, correct_rate, tokens, cost_effective, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (embed_model, chunk_size, gen_model, top_k, strategy)
DO UPDATE SET correct_rate = EXCLUDED.correct_rate, tokens = EXCLUDED.tokens, cost_effective = EXCLUDED.cost_effective, created_at = EXCLUDED.created_at
`, result.Combination.EmbedModel, result.Combination.ChunkSize, result.Combination.GenModel,
		result.Combination.TopK, string(result.Combination.Strategy),
		result.CorrectRate, result.Tokens, result.CostEffective, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save combination: %w", err)
	}
	return nil
}
