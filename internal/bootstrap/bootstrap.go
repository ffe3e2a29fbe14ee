package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yctsai/akasha/internal/config"
	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/ports"
	"github.com/yctsai/akasha/internal/core/retrieval"
	"github.com/yctsai/akasha/internal/core/usecase"
	"github.com/yctsai/akasha/internal/infrastructure/chunking"
	"github.com/yctsai/akasha/internal/infrastructure/extractor"
	pdfextractor "github.com/yctsai/akasha/internal/infrastructure/extractor/pdf"
	"github.com/yctsai/akasha/internal/infrastructure/extractor/plaintext"
	"github.com/yctsai/akasha/internal/infrastructure/llm/ollama"
	"github.com/yctsai/akasha/internal/infrastructure/queue/nats"
	"github.com/yctsai/akasha/internal/infrastructure/repository/postgres"
	"github.com/yctsai/akasha/internal/infrastructure/resilience"
	"github.com/yctsai/akasha/internal/infrastructure/storage/localfs"
	"github.com/yctsai/akasha/internal/infrastructure/tracking"
	"github.com/yctsai/akasha/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    ports.MessageQueue
	Repo     ports.DocumentRepository
	EvalRepo ports.EvalRepository

	IngestUC   ports.DocumentIngestor
	ProcessUC  ports.DocumentProcessor
	AnswerUC   *usecase.AnswerUseCase
	ModerateUC ports.Moderator
	EvaluateUC *usecase.EvaluateUseCase
	SweepUC    *usecase.SweepUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	evalRepo := postgres.NewEvalRepository(db)
	if err := evalRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure eval schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		GenerateRPS:        float64(cfg.OllamaGenRPS),
		ResilienceExecutor: executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	summarizer := ollama.NewSummarizer(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extract := extractor.NewDispatcher(
		plaintext.NewExtractor(storage),
		pdfextractor.NewExtractor(storage),
	)

	retriever := retrieval.NewRetriever(vectorDB, embedder, logger)
	compressor := retrieval.NewCompressor(summarizer, logger)
	tracker := tracking.NewSlogTracker(logger)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, extract, chunker, embedder, vectorDB)
	answerUC := usecase.NewAnswerUseCase(retriever, compressor, generator, tracker, logger)
	moderateUC := usecase.NewModerateUseCase(generator)
	evaluateUC := usecase.NewEvaluateUseCase(retriever, generator, evalRepo, tracker, logger, cfg.EvalWorkers)
	sweepUC := usecase.NewSweepUseCase(newSweepRunner(evaluateUC, cfg), evalRepo, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:    queue,
		Repo:     repo,
		EvalRepo: evalRepo,

		IngestUC:   ingestUC,
		ProcessUC:  processUC,
		AnswerUC:   answerUC,
		ModerateUC: moderateUC,
		EvaluateUC: evaluateUC,
		SweepUC:    sweepUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// RetrievalOptions builds the default retrieval options from config.
func (a *App) RetrievalOptions() retrieval.Options {
	return retrieval.Options{
		TopK:           a.Config.TopK,
		Threshold:      a.Config.Threshold,
		Language:       domain.Language(a.Config.Language),
		Strategy:       domain.Strategy(a.Config.Strategy),
		TokenBudget:    a.Config.TokenBudget,
		MMRLambda:      a.Config.MMRLambda,
		PoolMultiplier: a.Config.PoolMultiplier,
	}
}

// sweepRunner adapts the evaluation use case to the sweep over the live
// stack. It varies only top_k and strategy: embedding model and chunk size
// changes would require re-indexing the corpus, which this deployment does
// not do on the fly.
type sweepRunner struct {
	evaluate *usecase.EvaluateUseCase
	cfg      config.Config
}

func newSweepRunner(evaluate *usecase.EvaluateUseCase, cfg config.Config) *sweepRunner {
	return &sweepRunner{evaluate: evaluate, cfg: cfg}
}

func (r *sweepRunner) RunCombination(ctx context.Context, combo domain.Combination, questions []domain.Question) (*domain.EvalReport, error) {
	opts := retrieval.Options{
		TopK:           combo.TopK,
		Threshold:      r.cfg.Threshold,
		Language:       domain.Language(r.cfg.Language),
		Strategy:       combo.Strategy,
		TokenBudget:    r.cfg.TokenBudget,
		MMRLambda:      r.cfg.MMRLambda,
		PoolMultiplier: r.cfg.PoolMultiplier,
	}
	return r.evaluate.Run(ctx, questions, combo, opts)
}
