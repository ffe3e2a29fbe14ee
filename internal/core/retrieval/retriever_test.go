package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/yctsai/akasha/internal/core/domain"
)

type searchFake struct {
	pools  [][]domain.Candidate
	limits []int
	err    error
}

func (f *searchFake) Search(_ context.Context, _ []float32, limit int) ([]domain.Candidate, error) {
	call := len(f.limits)
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	if call >= len(f.pools) {
		return nil, nil
	}
	return f.pools[call], nil
}

type embedFake struct {
	err error
}

func (f *embedFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func scoredCandidate(content string, score float64) domain.Candidate {
	return domain.Candidate{
		Chunk: domain.Chunk{Content: content},
		Score: score,
	}
}

func wordsChunk(prefix string, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(parts, " ")
}

func TestGetDocsRejectsUnknownStrategy(t *testing.T) {
	r := NewRetriever(&searchFake{}, &embedFake{}, nil)

	_, err := r.GetDocs(context.Background(), "q", Options{Strategy: "bogus"})
	if !domain.IsKind(err, domain.ErrInvalidStrategy) {
		t.Fatalf("expected invalid strategy error, got %v", err)
	}
}

func TestGetDocsEmbedFailureIsRetrievalUnavailable(t *testing.T) {
	r := NewRetriever(&searchFake{}, &embedFake{err: errors.New("backend down")}, nil)

	_, err := r.GetDocs(context.Background(), "q", Options{})
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected retrieval unavailable, got %v", err)
	}
}

func TestGetDocsSearchFailureIsRetrievalUnavailable(t *testing.T) {
	r := NewRetriever(&searchFake{err: errors.New("store down")}, &embedFake{}, nil)

	_, err := r.GetDocs(context.Background(), "q", Options{Strategy: domain.StrategyTFIDF})
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected retrieval unavailable, got %v", err)
	}
}

func TestGetDocsEmptyIndexYieldsEmptyResult(t *testing.T) {
	r := NewRetriever(&searchFake{}, &embedFake{}, nil)

	result, err := r.GetDocs(context.Background(), "q", Options{Strategy: domain.StrategyTFIDF})
	if err != nil {
		t.Fatalf("GetDocs() error = %v", err)
	}
	if len(result.Chunks) != 0 || result.Tokens != 0 {
		t.Fatalf("expected empty result, got %d chunks / %d tokens", len(result.Chunks), result.Tokens)
	}
}

func TestGetDocsRankedSearchOversizesPool(t *testing.T) {
	store := &searchFake{pools: [][]domain.Candidate{{scoredCandidate("alpha beta", 0.9)}}}
	r := NewRetriever(store, &embedFake{}, nil)

	_, err := r.GetDocs(context.Background(), "alpha", Options{Strategy: domain.StrategyTFIDF})
	if err != nil {
		t.Fatalf("GetDocs() error = %v", err)
	}
	if len(store.limits) != 1 || store.limits[0] != defaultTopK*defaultPoolMultiplier {
		t.Fatalf("expected one search with limit %d, got %v", defaultTopK*defaultPoolMultiplier, store.limits)
	}
}

func TestGetDocsThresholdKeepsClosestWhenAllBelow(t *testing.T) {
	store := &searchFake{pools: [][]domain.Candidate{{
		scoredCandidate("closest", 0.15),
		scoredCandidate("farther", 0.05),
	}}}
	r := NewRetriever(store, &embedFake{}, nil)

	result, err := r.GetDocs(context.Background(), "q", Options{
		Strategy:  domain.StrategyTFIDF,
		Threshold: 0.5,
	})
	if err != nil {
		t.Fatalf("GetDocs() error = %v", err)
	}
	if len(result.Chunks) != 1 || result.Chunks[0].Content != "closest" {
		t.Fatalf("expected only the closest chunk, got %v", result.Chunks)
	}
}

func TestGetDocsZeroThresholdSelectsDefault(t *testing.T) {
	store := &searchFake{pools: [][]domain.Candidate{{
		scoredCandidate("strong match", 0.5),
		scoredCandidate("below default", 0.1),
	}}}
	r := NewRetriever(store, &embedFake{}, nil)

	result, err := r.GetDocs(context.Background(), "q", Options{
		Strategy:  domain.StrategyMerge,
		Threshold: 0,
	})
	if err != nil {
		t.Fatalf("GetDocs() error = %v", err)
	}
	if len(result.Chunks) != 1 || result.Chunks[0].Content != "strong match" {
		t.Fatalf("expected the 0.2 default threshold applied, got %v", result.Chunks)
	}
}

func TestGetDocsFirstChunkAlwaysAdmitted(t *testing.T) {
	big := wordsChunk("w", 50)
	store := &searchFake{pools: [][]domain.Candidate{{scoredCandidate(big, 0.9)}}}
	r := NewRetriever(store, &embedFake{}, nil)

	result, err := r.GetDocs(context.Background(), "q", Options{
		Strategy:    domain.StrategyMerge,
		TokenBudget: 1,
	})
	if err != nil {
		t.Fatalf("GetDocs() error = %v", err)
	}
	if len(result.Chunks) != 1 {
		t.Fatalf("expected the oversized first chunk admitted, got %d chunks", len(result.Chunks))
	}
	if result.Tokens != 50 {
		t.Fatalf("expected 50 tokens, got %d", result.Tokens)
	}
}

func TestGetDocsMergeStopsAtBudget(t *testing.T) {
	pool := []domain.Candidate{
		scoredCandidate(wordsChunk("a", 10), 0.9),
		scoredCandidate(wordsChunk("b", 10), 0.8),
		scoredCandidate(wordsChunk("c", 10), 0.7),
		scoredCandidate(wordsChunk("d", 10), 0.6),
	}
	store := &searchFake{pools: [][]domain.Candidate{pool}}
	r := NewRetriever(store, &embedFake{}, nil)

	result, err := r.GetDocs(context.Background(), "q", Options{
		Strategy:    domain.StrategyMerge,
		TopK:        4,
		TokenBudget: 25,
	})
	if err != nil {
		t.Fatalf("GetDocs() error = %v", err)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("expected 2 chunks within budget, got %d", len(result.Chunks))
	}
	if result.Tokens > 25 {
		t.Fatalf("token budget exceeded: %d", result.Tokens)
	}
}

func TestGetDocsMergeDeduplicatesAcrossRounds(t *testing.T) {
	round1 := []domain.Candidate{
		scoredCandidate("alpha", 0.9),
		scoredCandidate("beta", 0.8),
	}
	round2 := []domain.Candidate{
		scoredCandidate("alpha", 0.9),
		scoredCandidate("beta", 0.8),
		scoredCandidate("gamma", 0.7),
	}
	store := &searchFake{pools: [][]domain.Candidate{round1, round2}}
	r := NewRetriever(store, &embedFake{}, nil)

	result, err := r.GetDocs(context.Background(), "q", Options{
		Strategy: domain.StrategyMerge,
		TopK:     2,
	})
	if err != nil {
		t.Fatalf("GetDocs() error = %v", err)
	}
	if len(result.Chunks) != 3 {
		t.Fatalf("expected 3 unique chunks, got %d", len(result.Chunks))
	}
	seen := map[string]bool{}
	for _, chunk := range result.Chunks {
		if seen[chunk.Content] {
			t.Fatalf("duplicate chunk %q in result", chunk.Content)
		}
		seen[chunk.Content] = true
	}
	if len(store.limits) != 2 || store.limits[0] != 2 || store.limits[1] != 4 {
		t.Fatalf("expected k-doubling ladder [2 4], got %v", store.limits)
	}
}

func TestGetDocsMergeDegenerateFirstRoundKeepsClosest(t *testing.T) {
	store := &searchFake{pools: [][]domain.Candidate{{
		scoredCandidate("weak match", 0.01),
	}}}
	r := NewRetriever(store, &embedFake{}, nil)

	result, err := r.GetDocs(context.Background(), "q", Options{
		Strategy:  domain.StrategyMerge,
		Threshold: 0.9,
	})
	if err != nil {
		t.Fatalf("GetDocs() error = %v", err)
	}
	if len(result.Chunks) != 1 || result.Chunks[0].Content != "weak match" {
		t.Fatalf("expected the closest chunk retained, got %v", result.Chunks)
	}
}
