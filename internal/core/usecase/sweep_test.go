package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/yctsai/akasha/internal/core/domain"
)

type runnerFake struct {
	reports map[domain.Strategy]*domain.EvalReport
	failFor domain.Strategy
	calls   int
}

func (f *runnerFake) RunCombination(_ context.Context, combo domain.Combination, _ []domain.Question) (*domain.EvalReport, error) {
	f.calls++
	if combo.Strategy == f.failFor {
		return nil, errors.New("combination run failed")
	}
	report, ok := f.reports[combo.Strategy]
	if !ok {
		return nil, errors.New("no report configured")
	}
	return report, nil
}

func TestExpandGridCartesianProduct(t *testing.T) {
	combos := ExpandGrid(
		[]string{"embed-a", "embed-b"},
		[]int{500},
		[]string{"gen"},
		[]int{3, 5},
		[]domain.Strategy{domain.StrategyMerge, domain.StrategySVM},
	)
	if len(combos) != 8 {
		t.Fatalf("expected 8 combinations, got %d", len(combos))
	}
}

func TestOptimumCombinationPicksBestScoreAndBestCost(t *testing.T) {
	runner := &runnerFake{reports: map[domain.Strategy]*domain.EvalReport{
		domain.StrategyMerge: {CorrectRate: 0.9, Tokens: 9000},
		domain.StrategySVM:   {CorrectRate: 0.8, Tokens: 1000},
	}}
	uc := NewSweepUseCase(runner, nil, nil)

	combos := []domain.Combination{
		{Strategy: domain.StrategyMerge, TopK: 5},
		{Strategy: domain.StrategySVM, TopK: 5},
	}
	bestScore, bestCost, err := uc.OptimumCombination(context.Background(), combos, evalQuestions())
	if err != nil {
		t.Fatalf("OptimumCombination() error = %v", err)
	}
	if bestScore.Combination.Strategy != domain.StrategyMerge {
		t.Fatalf("expected merge as best score, got %s", bestScore.Combination.Strategy)
	}
	// 0.8/1000 beats 0.9/9000 per token.
	if bestCost.Combination.Strategy != domain.StrategySVM {
		t.Fatalf("expected svm as best cost-effective, got %s", bestCost.Combination.Strategy)
	}
}

func TestOptimumCombinationSkipsFailedCombos(t *testing.T) {
	runner := &runnerFake{
		reports: map[domain.Strategy]*domain.EvalReport{
			domain.StrategyTFIDF: {CorrectRate: 0.5, Tokens: 100},
		},
		failFor: domain.StrategyMMR,
	}
	uc := NewSweepUseCase(runner, nil, nil)

	combos := []domain.Combination{
		{Strategy: domain.StrategyMMR},
		{Strategy: domain.StrategyTFIDF},
	}
	bestScore, _, err := uc.OptimumCombination(context.Background(), combos, evalQuestions())
	if err != nil {
		t.Fatalf("expected sweep to survive one failed combination, got %v", err)
	}
	if bestScore.Combination.Strategy != domain.StrategyTFIDF {
		t.Fatalf("expected the surviving combination, got %s", bestScore.Combination.Strategy)
	}
	if runner.calls != 2 {
		t.Fatalf("expected both combinations attempted, got %d", runner.calls)
	}
}

func TestOptimumCombinationAllFailedIsError(t *testing.T) {
	runner := &runnerFake{failFor: domain.StrategyMMR}
	uc := NewSweepUseCase(runner, nil, nil)

	_, _, err := uc.OptimumCombination(context.Background(),
		[]domain.Combination{{Strategy: domain.StrategyMMR}}, evalQuestions())
	if err == nil {
		t.Fatalf("expected error when every combination fails")
	}
}

func TestOptimumCombinationNoCombosIsInvalidInput(t *testing.T) {
	uc := NewSweepUseCase(&runnerFake{}, nil, nil)

	_, _, err := uc.OptimumCombination(context.Background(), nil, evalQuestions())
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
