package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/ports"
	"github.com/yctsai/akasha/internal/core/retrieval"
)

const defaultEvalWorkers = 4

// EvaluateUseCase runs a single-choice question set against the retrieval
// pipeline and computes the correct rate for one parameter combination.
type EvaluateUseCase struct {
	retriever DocsGetter
	generator ports.CompletionClient
	repo      ports.EvalRepository
	tracker   ports.ExperimentTracker
	logger    *slog.Logger
	workers   int
}

func NewEvaluateUseCase(
	retriever DocsGetter,
	generator ports.CompletionClient,
	repo ports.EvalRepository,
	tracker ports.ExperimentTracker,
	logger *slog.Logger,
	workers int,
) *EvaluateUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = defaultEvalWorkers
	}
	return &EvaluateUseCase{
		retriever: retriever,
		generator: generator,
		repo:      repo,
		tracker:   tracker,
		logger:    logger,
		workers:   workers,
	}
}

// Run evaluates every question and returns the aggregate report. Questions
// run on a bounded worker pool, but each record lands at its question's
// position so reporting order is reproducible. A failed completion is
// recorded as a sentinel error answer and the batch continues; a failed
// retrieval aborts the run, since the search backend itself is gone.
func (uc *EvaluateUseCase) Run(
	ctx context.Context,
	questions []domain.Question,
	combo domain.Combination,
	opts retrieval.Options,
) (*domain.EvalReport, error) {
	if len(questions) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "evaluate", errors.New("no questions"))
	}

	start := time.Now()
	records := make([]domain.EvalRecord, len(questions))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, q := range questions {
		g.Go(func() error {
			record, err := uc.evaluateQuestion(groupCtx, q, opts)
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.EvalReport{
		RunID:       uuid.NewString(),
		Combination: combo,
		Total:       len(questions),
		Duration:    time.Since(start),
		Records:     records,
	}
	// DocTokens counts retrieved context only; Tokens adds the question text
	// on top, so the two metrics track prompt cost and retrieval volume
	// separately.
	for _, rec := range records {
		if rec.Correct {
			report.Correct++
		}
		report.DocTokens += rec.Tokens
		report.Tokens += rec.Tokens + retrieval.EstimateTokens(rec.Question, opts.Language)
	}
	report.CorrectRate = float64(report.Correct) / float64(report.Total)

	if uc.repo != nil {
		if err := uc.repo.SaveRun(ctx, report); err != nil {
			uc.logger.Warn("eval_run_save_failed", "run_id", report.RunID, "error", err)
		}
	}
	uc.trackReport(ctx, report)

	return report, nil
}

func (uc *EvaluateUseCase) evaluateQuestion(
	ctx context.Context,
	q domain.Question,
	opts retrieval.Options,
) (domain.EvalRecord, error) {
	result, err := uc.retriever.GetDocs(ctx, q.Text, opts)
	if err != nil {
		return domain.EvalRecord{}, fmt.Errorf("question %q: %w", q.Text, err)
	}

	record := domain.EvalRecord{
		Question: q.Text,
		Docs:     joinDocs(result.Chunks),
		Expected: q.Answer,
		Tokens:   result.Tokens,
	}

	got, completion, err := uc.generator.GenerateChoice(ctx, q.Text, q.Options, result.Chunks)
	if err != nil {
		// Per-question model failure must not abort the batch.
		uc.logger.Warn("question_completion_failed", "question", q.Text, "error", err)
		record.Response = domain.SentinelErrorAnswer
		return record, nil
	}

	record.Response = completion.Answer
	record.Got = got
	record.Correct = got == q.Answer
	return record, nil
}

func (uc *EvaluateUseCase) trackReport(ctx context.Context, report *domain.EvalReport) {
	if uc.tracker == nil {
		return
	}
	params := map[string]string{
		"embeddings": report.Combination.EmbedModel,
		"chunk_size": fmt.Sprintf("%d", report.Combination.ChunkSize),
		"model":      report.Combination.GenModel,
		"top_k":      fmt.Sprintf("%d", report.Combination.TopK),
		"strategy":   string(report.Combination.Strategy),
	}
	metrics := map[string]float64{
		"correct_rate": report.CorrectRate,
		"tokens":       float64(report.Tokens),
		"doc_length":   float64(report.DocTokens),
		"duration_s":   report.Duration.Seconds(),
	}
	if err := uc.tracker.Record(ctx, "evaluate", params, metrics, report.Records); err != nil {
		uc.logger.Warn("experiment_record_failed", "run_id", report.RunID, "error", err)
	}
}

func joinDocs(chunks []domain.Chunk) string {
	var b strings.Builder
	for _, chunk := range chunks {
		b.WriteString(chunk.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
