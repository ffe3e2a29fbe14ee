package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/yctsai/akasha/internal/core/domain"
)

func TestUploadPersistsAndPublishes(t *testing.T) {
	repo := newRepoFake()
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "my report.txt", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", doc.Status)
	}
	if _, ok := repo.docs[doc.ID]; !ok {
		t.Fatalf("expected document persisted")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected one publish for %s, got %v", doc.ID, queue.published)
	}
	if storage.saved[doc.StoragePath] != "hello" {
		t.Fatalf("expected body saved under %s", doc.StoragePath)
	}
}

func TestUploadSanitizesFilename(t *testing.T) {
	uc := NewIngestDocumentUseCase(newRepoFake(), &storageFake{}, &queueFake{})

	doc, err := uc.Upload(context.Background(), "../../etc/pass wd?.txt", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if strings.Contains(doc.StoragePath, "/") || strings.Contains(doc.StoragePath, "?") {
		t.Fatalf("expected sanitized storage key, got %q", doc.StoragePath)
	}
}

func TestSanitizeFilenameFallback(t *testing.T) {
	for _, name := range []string{"", ".", "..", "/", "a/b/.."} {
		if got := sanitizeFilename(name); got != "document.bin" {
			t.Fatalf("sanitizeFilename(%q) = %q, expected fallback name", name, got)
		}
	}
}
