package ports

import (
	"context"
	"io"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/retrieval"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// QuestionAnswerer is the inbound contract for retrieval-augmented answering.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string, opts retrieval.Options, compress bool) (*domain.Answer, error)
}

// Moderator checks free text for harmful or sensitive content.
type Moderator interface {
	DetectExploitation(ctx context.Context, text string) (string, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
