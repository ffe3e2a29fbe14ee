package chunking

import (
	"strings"
	"testing"
)

func TestSplitProducesOverlappingWindows(t *testing.T) {
	s := NewSplitter(10, 4)
	text := "abcdefghijklmnopqrst"

	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "abcdefghij" {
		t.Fatalf("unexpected first chunk %q", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "ghij") {
		t.Fatalf("expected overlap carried into second chunk, got %q", chunks[1])
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(10, 2)
	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil for empty text, got %v", chunks)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(100, 10)
	chunks := s.Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
}

func TestNewSplitterClampsOverlap(t *testing.T) {
	s := NewSplitter(100, 200)
	if s.Overlap >= s.ChunkSize {
		t.Fatalf("expected overlap clamped below chunk size, got %d", s.Overlap)
	}
}

func TestSplitHandlesMultibyteRunes(t *testing.T) {
	s := NewSplitter(2, 0)
	chunks := s.Split("你好世界")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "你好" || chunks[1] != "世界" {
		t.Fatalf("expected rune-based windows, got %v", chunks)
	}
}
