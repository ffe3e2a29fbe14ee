package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/ports"
)

// CombinationRunner evaluates one parameter combination end to end. The
// sweep cannot build the stack itself: embedding model and chunk size
// require re-indexing, so construction lives with the caller.
type CombinationRunner interface {
	RunCombination(ctx context.Context, combo domain.Combination, questions []domain.Question) (*domain.EvalReport, error)
}

type SweepUseCase struct {
	runner CombinationRunner
	repo   ports.EvalRepository
	logger *slog.Logger
}

func NewSweepUseCase(runner CombinationRunner, repo ports.EvalRepository, logger *slog.Logger) *SweepUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepUseCase{runner: runner, repo: repo, logger: logger}
}

// ExpandGrid builds the cartesian product of the sweep dimensions.
func ExpandGrid(
	embedModels []string,
	chunkSizes []int,
	genModels []string,
	topKs []int,
	strategies []domain.Strategy,
) []domain.Combination {
	out := make([]domain.Combination, 0,
		len(embedModels)*len(chunkSizes)*len(genModels)*len(topKs)*len(strategies))
	for _, embed := range embedModels {
		for _, chunkSize := range chunkSizes {
			for _, model := range genModels {
				for _, topK := range topKs {
					for _, strategy := range strategies {
						out = append(out, domain.Combination{
							EmbedModel: embed,
							ChunkSize:  chunkSize,
							GenModel:   model,
							TopK:       topK,
							Strategy:   strategy,
						})
					}
				}
			}
		}
	}
	return out
}

// OptimumCombination runs every combination sequentially (each one already
// parallelizes over its questions) and returns the best-scoring combination
// and the best cost-effective one (correct rate per retrieved token). A
// combination whose run fails is logged and skipped; the sweep fails only
// when every combination failed.
func (uc *SweepUseCase) OptimumCombination(
	ctx context.Context,
	combos []domain.Combination,
	questions []domain.Question,
) (bestScore, bestCost domain.CombinationResult, err error) {
	if len(combos) == 0 {
		return domain.CombinationResult{}, domain.CombinationResult{},
			domain.WrapError(domain.ErrInvalidInput, "sweep", errors.New("no combinations"))
	}

	results := make([]domain.CombinationResult, 0, len(combos))
	for _, combo := range combos {
		if err := ctx.Err(); err != nil {
			return domain.CombinationResult{}, domain.CombinationResult{}, err
		}

		report, runErr := uc.runner.RunCombination(ctx, combo, questions)
		if runErr != nil {
			uc.logger.Warn("combination_failed",
				"strategy", string(combo.Strategy),
				"embed_model", combo.EmbedModel,
				"gen_model", combo.GenModel,
				"error", runErr,
			)
			continue
		}

		result := domain.CombinationResult{
			Combination: combo,
			CorrectRate: report.CorrectRate,
			Tokens:      report.Tokens,
		}
		if report.Tokens > 0 {
			result.CostEffective = report.CorrectRate / float64(report.Tokens)
		}
		results = append(results, result)

		if uc.repo != nil {
			if saveErr := uc.repo.SaveCombination(ctx, result); saveErr != nil {
				uc.logger.Warn("combination_save_failed", "error", saveErr)
			}
		}
	}

	if len(results) == 0 {
		return domain.CombinationResult{}, domain.CombinationResult{},
			errors.New("all combinations failed")
	}

	bestScore = results[0]
	bestCost = results[0]
	for _, r := range results[1:] {
		if r.CorrectRate > bestScore.CorrectRate {
			bestScore = r
		}
		if r.CostEffective > bestCost.CostEffective {
			bestCost = r
		}
	}
	return bestScore, bestCost, nil
}
