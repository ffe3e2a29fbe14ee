package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/yctsai/akasha/internal/core/domain"
)

func newEvalRepoWithMock(t *testing.T) (*EvalRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &EvalRepository{db: db}, mock, func() { _ = db.Close() }
}

func evalReport() *domain.EvalReport {
	return &domain.EvalReport{
		RunID: "run-1",
		Combination: domain.Combination{
			EmbedModel: "embed-m",
			ChunkSize:  500,
			GenModel:   "gen-m",
			TopK:       5,
			Strategy:   domain.StrategyMerge,
		},
		Total:       2,
		Correct:     1,
		CorrectRate: 0.5,
		Tokens:      120,
		Duration:    3 * time.Second,
		Records: []domain.EvalRecord{
			{Question: "q1", Response: "a", Expected: 1, Got: 1, Correct: true, Tokens: 70},
			{Question: "q2", Response: "b", Expected: 2, Got: 1, Correct: false, Tokens: 50},
		},
	}
}

func TestSaveRunInsertsRunAndRecords(t *testing.T) {
	repo, mock, done := newEvalRepoWithMock(t)
	defer done()

	report := evalReport()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO eval_runs").
		WithArgs("run-1", "embed-m", 500, "gen-m", 5, string(domain.StrategyMerge),
			2, 1, 0.5, 120, int64(3000), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO eval_records").
		WithArgs("run-1", 0, "q1", "a", 1, 1, true, 70).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO eval_records").
		WithArgs("run-1", 1, "q2", "b", 2, 1, false, 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveRun(context.Background(), report); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveRunRollsBackOnRecordFailure(t *testing.T) {
	repo, mock, done := newEvalRepoWithMock(t)
	defer done()

	report := evalReport()
	errInsert := errors.New("insert failed")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO eval_runs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO eval_records").
		WillReturnError(errInsert)
	mock.ExpectRollback()

	err := repo.SaveRun(context.Background(), report)
	if !errors.Is(err, errInsert) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveCombinationUpserts(t *testing.T) {
	repo, mock, done := newEvalRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO eval_combinations").
		WithArgs("embed-m", 500, "gen-m", 5, string(domain.StrategySVM),
			0.75, 900, 0.75/900.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveCombination(context.Background(), domain.CombinationResult{
		Combination: domain.Combination{
			EmbedModel: "embed-m",
			ChunkSize:  500,
			GenModel:   "gen-m",
			TopK:       5,
			Strategy:   domain.StrategySVM,
		},
		CorrectRate:   0.75,
		Tokens:        900,
		CostEffective: 0.75 / 900.0,
	})
	if err != nil {
		t.Fatalf("SaveCombination() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
