package retrieval

import (
	"testing"

	"github.com/yctsai/akasha/internal/core/domain"
)

func embeddedCandidate(content string, embedding []float32) domain.Candidate {
	return domain.Candidate{
		Chunk:     domain.Chunk{Content: content},
		Embedding: embedding,
	}
}

func TestRankMMRPenalizesRedundancy(t *testing.T) {
	query := []float32{1, 0}
	pool := []domain.Candidate{
		embeddedCandidate("anchor", []float32{0.95, 0.312}),
		embeddedCandidate("duplicate", []float32{0.95, 0.312}),
		embeddedCandidate("diverse", []float32{0.312, 0.95}),
	}

	ranked := rankMMR(query, pool, 3, 0.3)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ranked))
	}
	if ranked[0].Chunk.Content != "anchor" {
		t.Fatalf("expected most relevant first, got %q", ranked[0].Chunk.Content)
	}
	if ranked[1].Chunk.Content != "diverse" {
		t.Fatalf("expected the diverse candidate before the duplicate, got %q", ranked[1].Chunk.Content)
	}
}

func TestRankMMRTieGoesToEarlierPoolPosition(t *testing.T) {
	query := []float32{1, 0}
	pool := []domain.Candidate{
		embeddedCandidate("first", []float32{1, 0}),
		embeddedCandidate("second", []float32{1, 0}),
	}

	ranked := rankMMR(query, pool, 1, 0.6)
	if len(ranked) != 1 || ranked[0].Chunk.Content != "first" {
		t.Fatalf("expected earlier candidate on tie, got %v", ranked)
	}
}

func TestRankMMRClampsToPoolSize(t *testing.T) {
	query := []float32{1, 0}
	pool := []domain.Candidate{
		embeddedCandidate("only", []float32{1, 0}),
	}
	ranked := rankMMR(query, pool, 5, 0.6)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(ranked))
	}
}

func TestRankMMROutOfRangeLambdaFallsBack(t *testing.T) {
	query := []float32{1, 0}
	pool := []domain.Candidate{
		embeddedCandidate("a", []float32{1, 0}),
		embeddedCandidate("b", []float32{0, 1}),
	}
	ranked := rankMMR(query, pool, 2, 7)
	if len(ranked) != 2 {
		t.Fatalf("expected fallback lambda to still rank, got %d candidates", len(ranked))
	}
	if ranked[0].Chunk.Content != "a" {
		t.Fatalf("expected most relevant first, got %q", ranked[0].Chunk.Content)
	}
}
