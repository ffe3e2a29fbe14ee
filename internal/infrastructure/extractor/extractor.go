// Package extractor routes documents to a format-specific text extractor
// based on filename extension and declared mime type.
package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/ports"
)

type Dispatcher struct {
	plain ports.TextExtractor
	pdf   ports.TextExtractor
}

func NewDispatcher(plain, pdf ports.TextExtractor) *Dispatcher {
	return &Dispatcher{plain: plain, pdf: pdf}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if d.isPDF(doc) {
		return d.pdf.Extract(ctx, doc)
	}
	return d.plain.Extract(ctx, doc)
}

func (d *Dispatcher) isPDF(doc *domain.Document) bool {
	if strings.EqualFold(doc.MimeType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.Filename), ".pdf")
}
