package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/yctsai/akasha/internal/bootstrap"
	"github.com/yctsai/akasha/internal/config"
	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/usecase"
	"github.com/yctsai/akasha/internal/infrastructure/questions"
	"github.com/yctsai/akasha/internal/infrastructure/report"
	"github.com/yctsai/akasha/internal/observability/logging"
)

const serviceName = "akasha-eval"

func main() {
	questionsPath := flag.String("questions", "", "path to the single-choice question file (required)")
	reportPath := flag.String("report", "", "write the per-question xlsx report to this path")
	sweep := flag.Bool("sweep", false, "grid-search top_k and strategy instead of a single run")
	topKs := flag.String("top-ks", "3,5", "comma-separated top_k values for the sweep")
	strategies := flag.String("strategies", "merge,mmr,svm,tfidf", "comma-separated strategies for the sweep")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger(serviceName, "info").Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	if *questionsPath == "" {
		logger.Error("questions_flag_required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	f, err := os.Open(*questionsPath)
	if err != nil {
		logger.Error("open_questions_error", "path", *questionsPath, "error", err)
		os.Exit(1)
	}
	qs, err := questions.Parse(f)
	f.Close()
	if err != nil {
		logger.Error("parse_questions_error", "path", *questionsPath, "error", err)
		os.Exit(1)
	}
	logger.Info("questions_loaded", "path", *questionsPath, "count", len(qs))

	if *sweep {
		runSweep(ctx, app, cfg, qs, *topKs, *strategies)
		return
	}

	combo := domain.Combination{
		EmbedModel: cfg.OllamaEmbedModel,
		ChunkSize:  cfg.ChunkSize,
		GenModel:   cfg.OllamaGenModel,
		TopK:       cfg.TopK,
		Strategy:   domain.Strategy(cfg.Strategy),
	}
	evalReport, err := app.EvaluateUC.Run(ctx, qs, combo, app.RetrievalOptions())
	if err != nil {
		logger.Error("evaluate_error", "error", err)
		os.Exit(1)
	}

	logger.Info("evaluate_done",
		"run_id", evalReport.RunID,
		"total", evalReport.Total,
		"correct", evalReport.Correct,
		"correct_rate", evalReport.CorrectRate,
		"tokens", evalReport.Tokens,
		"duration", evalReport.Duration.String(),
	)

	if *reportPath != "" {
		if err := report.WriteXLSX(evalReport, *reportPath); err != nil {
			logger.Error("report_write_error", "path", *reportPath, "error", err)
			os.Exit(1)
		}
		logger.Info("report_written", "path", *reportPath)
	}
}

func runSweep(ctx context.Context, app *bootstrap.App, cfg config.Config, qs []domain.Question, topKsRaw, strategiesRaw string) {
	logger := app.Logger

	topKs, err := parseInts(topKsRaw)
	if err != nil {
		logger.Error("parse_top_ks_error", "value", topKsRaw, "error", err)
		os.Exit(2)
	}
	strategies, err := parseStrategies(strategiesRaw)
	if err != nil {
		logger.Error("parse_strategies_error", "value", strategiesRaw, "error", err)
		os.Exit(2)
	}

	// Embedding model and chunk size are fixed to the indexed corpus.
	combos := usecase.ExpandGrid(
		[]string{cfg.OllamaEmbedModel},
		[]int{cfg.ChunkSize},
		[]string{cfg.OllamaGenModel},
		topKs,
		strategies,
	)
	logger.Info("sweep_start", "combinations", len(combos))

	bestScore, bestCost, err := app.SweepUC.OptimumCombination(ctx, combos, qs)
	if err != nil {
		logger.Error("sweep_error", "error", err)
		os.Exit(1)
	}

	logger.Info("sweep_best_score",
		"strategy", string(bestScore.Combination.Strategy),
		"top_k", bestScore.Combination.TopK,
		"correct_rate", bestScore.CorrectRate,
		"tokens", bestScore.Tokens,
	)
	logger.Info("sweep_best_cost_effective",
		"strategy", string(bestCost.Combination.Strategy),
		"top_k", bestCost.Combination.TopK,
		"correct_rate", bestCost.CorrectRate,
		"tokens", bestCost.Tokens,
		"cost_effective", bestCost.CostEffective,
	)
}

func parseInts(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseStrategies(raw string) ([]domain.Strategy, error) {
	parts := strings.Split(raw, ",")
	out := make([]domain.Strategy, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		strategy, err := domain.ParseStrategy(p)
		if err != nil {
			return nil, err
		}
		out = append(out, strategy)
	}
	return out, nil
}
