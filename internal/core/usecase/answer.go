package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/ports"
	"github.com/yctsai/akasha/internal/core/retrieval"
)

// NoDocumentsAnswer is returned when retrieval finds nothing relevant.
// "No documents" is a valid outcome, not an error; completion is skipped.
const NoDocumentsAnswer = "no relevant documents found"

// DocsGetter is the retrieval orchestrator surface the pipelines consume.
type DocsGetter interface {
	GetDocs(ctx context.Context, query string, opts retrieval.Options) (domain.RetrievalResult, error)
}

type AnswerUseCase struct {
	retriever  DocsGetter
	compressor *retrieval.Compressor
	generator  ports.CompletionClient
	tracker    ports.ExperimentTracker
	logger     *slog.Logger
}

func NewAnswerUseCase(
	retriever DocsGetter,
	compressor *retrieval.Compressor,
	generator ports.CompletionClient,
	tracker ports.ExperimentTracker,
	logger *slog.Logger,
) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		retriever:  retriever,
		compressor: compressor,
		generator:  generator,
		tracker:    tracker,
		logger:     logger,
	}
}

func (uc *AnswerUseCase) Ask(
	ctx context.Context,
	question string,
	opts retrieval.Options,
	compress bool,
) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is empty"))
	}

	start := time.Now()
	result, err := uc.retriever.GetDocs(ctx, question, opts)
	if err != nil {
		return nil, err
	}
	if len(result.Chunks) == 0 {
		return &domain.Answer{Text: NoDocumentsAnswer, Sources: []domain.Chunk{}}, nil
	}

	docs := result.Chunks
	if compress && uc.compressor != nil {
		docs = uc.compressor.Compress(ctx, docs, question)
	}

	completion, err := uc.generator.GenerateAnswer(ctx, question, docs)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	uc.track(ctx, "ask", opts, map[string]float64{
		"doc_tokens":  float64(result.Tokens),
		"doc_count":   float64(len(docs)),
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	})

	return &domain.Answer{
		Text:    completion.Answer,
		Sources: docs,
		Tokens:  result.Tokens,
	}, nil
}

func (uc *AnswerUseCase) track(ctx context.Context, experiment string, opts retrieval.Options, metrics map[string]float64) {
	if uc.tracker == nil {
		return
	}
	params := map[string]string{
		"strategy":     string(opts.Strategy),
		"top_k":        fmt.Sprintf("%d", opts.TopK),
		"threshold":    fmt.Sprintf("%g", opts.Threshold),
		"token_budget": fmt.Sprintf("%d", opts.TokenBudget),
		"language":     string(opts.Language),
	}
	if err := uc.tracker.Record(ctx, experiment, params, metrics, nil); err != nil {
		uc.logger.Warn("experiment_record_failed", "experiment", experiment, "error", err)
	}
}
