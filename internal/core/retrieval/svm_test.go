package retrieval

import (
	"testing"

	"github.com/yctsai/akasha/internal/core/domain"
)

func TestRankSVMPutsQueryLikeCandidatesFirst(t *testing.T) {
	query := []float32{1, 0}
	pool := []domain.Candidate{
		embeddedCandidate("far", []float32{0, 1}),
		embeddedCandidate("near", []float32{0.9, 0.1}),
		embeddedCandidate("mid", []float32{0.5, 0.5}),
	}

	ranked := rankSVM(query, pool, 3)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ranked))
	}
	if ranked[0].Chunk.Content != "near" {
		t.Fatalf("expected the query-like candidate first, got %q", ranked[0].Chunk.Content)
	}
	if ranked[2].Chunk.Content != "far" {
		t.Fatalf("expected the orthogonal candidate last, got %q", ranked[2].Chunk.Content)
	}
}

func TestRankSVMDeterministic(t *testing.T) {
	query := []float32{0.7, 0.3, 0.1}
	pool := []domain.Candidate{
		embeddedCandidate("a", []float32{0.6, 0.4, 0.2}),
		embeddedCandidate("b", []float32{0.1, 0.9, 0.3}),
		embeddedCandidate("c", []float32{0.8, 0.1, 0.1}),
		embeddedCandidate("d", []float32{0.3, 0.3, 0.9}),
	}

	first := rankSVM(query, pool, 4)
	second := rankSVM(query, pool, 4)
	for i := range first {
		if first[i].Chunk.Content != second[i].Chunk.Content {
			t.Fatalf("ranking not deterministic at %d: %q vs %q",
				i, first[i].Chunk.Content, second[i].Chunk.Content)
		}
	}
}

func TestRankSVMInconsistentDimensionsFallsBackToStoreOrder(t *testing.T) {
	query := []float32{1, 0}
	pool := []domain.Candidate{
		embeddedCandidate("first", []float32{0, 1}),
		embeddedCandidate("broken", []float32{1}),
		embeddedCandidate("third", []float32{1, 0}),
	}

	ranked := rankSVM(query, pool, 2)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(ranked))
	}
	if ranked[0].Chunk.Content != "first" || ranked[1].Chunk.Content != "broken" {
		t.Fatalf("expected store order fallback, got %q then %q",
			ranked[0].Chunk.Content, ranked[1].Chunk.Content)
	}
}

func TestRankSVMEmptyPool(t *testing.T) {
	if got := rankSVM([]float32{1, 0}, nil, 3); got != nil {
		t.Fatalf("expected nil for empty pool, got %v", got)
	}
}
