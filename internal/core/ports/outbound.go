package ports

import (
	"context"
	"io"

	"github.com/yctsai/akasha/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
}

// EvalRepository persists evaluation runs and sweep results.
type EvalRepository interface {
	SaveRun(ctx context.Context, report *domain.EvalReport) error
	SaveCombination(ctx context.Context, result domain.CombinationResult) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorStore indexes chunks and performs nearest-neighbor search.
// Search must be idempotent for identical inputs against an unchanged index
// and must return candidates in descending similarity, with stored
// embeddings attached so rankers can work on them.
type VectorStore interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.Candidate, error)
}

// CompletionClient produces model completions as a structured envelope so
// callers never have to split trace scaffolding out of the answer text.
type CompletionClient interface {
	GenerateAnswer(ctx context.Context, question string, docs []domain.Chunk) (domain.Completion, error)
	GenerateChoice(ctx context.Context, question string, options []string, docs []domain.Chunk) (int, domain.Completion, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (domain.Completion, error)
}

// Summarizer compresses a chunk with the query as context. Best effort.
type Summarizer interface {
	Summarize(ctx context.Context, text, query string) (string, error)
}

// ExperimentTracker records run parameters, metrics and the per-question
// result table for one experiment run.
type ExperimentTracker interface {
	Record(ctx context.Context, experiment string, params map[string]string, metrics map[string]float64, table []domain.EvalRecord) error
}
