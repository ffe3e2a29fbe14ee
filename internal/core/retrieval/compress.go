package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yctsai/akasha/internal/core/domain"
)

// Summarizer compresses a chunk with the query as context.
type Summarizer interface {
	Summarize(ctx context.Context, text, query string) (string, error)
}

// Compressor shrinks retrieved chunks through an external summarization
// capability. Compression is a size optimization, not a correctness
// requirement: a chunk whose summarization fails passes through unmodified
// and the failure is only logged.
type Compressor struct {
	summarizer Summarizer
	logger     *slog.Logger
}

func NewCompressor(summarizer Summarizer, logger *slog.Logger) *Compressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compressor{summarizer: summarizer, logger: logger}
}

func (c *Compressor) Compress(ctx context.Context, chunks []domain.Chunk, query string) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		summary, err := c.summarizer.Summarize(ctx, chunk.Content, query)
		if err != nil {
			c.logger.Warn("chunk_compression_failed", "error", err)
			out = append(out, chunk)
			continue
		}
		summary = strings.TrimSpace(summary)
		if summary == "" {
			out = append(out, chunk)
			continue
		}
		// New chunk, same provenance metadata; the original is never
		// mutated in place.
		out = append(out, domain.Chunk{Content: summary, Metadata: chunk.Metadata})
	}
	return out
}
