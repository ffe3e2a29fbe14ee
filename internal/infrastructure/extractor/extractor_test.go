package extractor

import (
	"context"
	"testing"

	"github.com/yctsai/akasha/internal/core/domain"
)

type extractorFake struct {
	text  string
	calls int
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	f.calls++
	return f.text, nil
}

func TestExtractRoutesByMimeType(t *testing.T) {
	plain := &extractorFake{text: "plain"}
	pdf := &extractorFake{text: "pdf"}
	d := NewDispatcher(plain, pdf)

	text, err := d.Extract(context.Background(), &domain.Document{
		Filename: "report.dat",
		MimeType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "pdf" || pdf.calls != 1 || plain.calls != 0 {
		t.Fatalf("expected pdf extractor, got %q (pdf=%d plain=%d)", text, pdf.calls, plain.calls)
	}
}

func TestExtractRoutesByExtension(t *testing.T) {
	plain := &extractorFake{text: "plain"}
	pdf := &extractorFake{text: "pdf"}
	d := NewDispatcher(plain, pdf)

	text, err := d.Extract(context.Background(), &domain.Document{
		Filename: "report.PDF",
		MimeType: "application/octet-stream",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "pdf" {
		t.Fatalf("expected pdf extractor for .PDF, got %q", text)
	}
}

func TestExtractDefaultsToPlainText(t *testing.T) {
	plain := &extractorFake{text: "plain"}
	pdf := &extractorFake{text: "pdf"}
	d := NewDispatcher(plain, pdf)

	text, err := d.Extract(context.Background(), &domain.Document{
		Filename: "notes.txt",
		MimeType: "text/plain",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "plain" || plain.calls != 1 {
		t.Fatalf("expected plain extractor, got %q", text)
	}
}
