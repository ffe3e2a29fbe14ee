package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yctsai/akasha/internal/core/domain"
)

const (
	defaultTopK           = 5
	defaultThreshold      = 0.2
	defaultTokenBudget    = 3000
	defaultMMRLambda      = 0.6
	defaultPoolMultiplier = 4
	defaultMergeRounds    = 4
)

// VectorSearcher is the slice of the vector store the retriever needs.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.Candidate, error)
}

// QueryEmbedder maps query text into the store's embedding space.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Options is the recognized retrieval configuration surface. Zero values
// fall back to documented defaults.
type Options struct {
	TopK int
	// Threshold drops candidates scoring below it. Zero selects the 0.2
	// default like every other field here; filtering cannot be disabled
	// outright, though the closest candidate always survives it.
	Threshold   float64
	Language    domain.Language
	Strategy    domain.Strategy
	TokenBudget int

	// MMRLambda is the relevance/diversity trade-off for the mmr strategy.
	MMRLambda float64
	// PoolMultiplier oversizes the single-search candidate pool relative to
	// TopK so rankers have material to work with.
	PoolMultiplier int
	// MergeRounds caps the merge strategy's k-doubling search ladder.
	MergeRounds int
}

func (o Options) normalize() Options {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.Threshold <= 0 {
		o.Threshold = defaultThreshold
	}
	if o.TokenBudget <= 0 {
		o.TokenBudget = defaultTokenBudget
	}
	if o.Strategy == "" {
		o.Strategy = domain.StrategyMerge
	}
	if o.Language == "" {
		o.Language = domain.LanguageEnglish
	}
	if o.MMRLambda <= 0 || o.MMRLambda > 1 {
		o.MMRLambda = defaultMMRLambda
	}
	if o.PoolMultiplier <= 0 {
		o.PoolMultiplier = defaultPoolMultiplier
	}
	if o.MergeRounds <= 0 {
		o.MergeRounds = defaultMergeRounds
	}
	return o
}

// Retriever drives similarity search, applies the selected ranking policy,
// deduplicates by exact content and accumulates chunks into the token
// budget. Each GetDocs call is independent; the retriever holds no state
// across calls.
type Retriever struct {
	store    VectorSearcher
	embedder QueryEmbedder
	logger   *slog.Logger
}

func NewRetriever(store VectorSearcher, embedder QueryEmbedder, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: store, embedder: embedder, logger: logger}
}

// GetDocs returns the final ordered chunk list and its estimated token
// total. An empty index yields an empty, non-error result. A failed search
// is fatal for the call: no partial result is returned and no retry is
// attempted here.
func (r *Retriever) GetDocs(ctx context.Context, query string, opts Options) (domain.RetrievalResult, error) {
	opts = opts.normalize()

	switch opts.Strategy {
	case domain.StrategyMerge, domain.StrategyMMR, domain.StrategySVM, domain.StrategyTFIDF:
	default:
		return domain.RetrievalResult{}, domain.WrapError(domain.ErrInvalidStrategy, "get docs",
			fmt.Errorf("unknown strategy %q", opts.Strategy))
	}

	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, domain.WrapError(domain.ErrRetrievalUnavailable, "embed query", err)
	}

	var result domain.RetrievalResult
	if opts.Strategy == domain.StrategyMerge {
		result, err = r.mergeSearch(ctx, queryVec, opts)
	} else {
		result, err = r.rankedSearch(ctx, query, queryVec, opts)
	}
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	r.logger.Debug("retrieval_done",
		"strategy", string(opts.Strategy),
		"chunks", len(result.Chunks),
		"tokens", result.Tokens,
	)
	return result, nil
}

// rankedSearch runs one oversized similarity search, applies the strategy's
// ranker for TopK and budget-accumulates the ranked order.
func (r *Retriever) rankedSearch(ctx context.Context, query string, queryVec []float32, opts Options) (domain.RetrievalResult, error) {
	pool, err := r.store.Search(ctx, queryVec, opts.TopK*opts.PoolMultiplier)
	if err != nil {
		return domain.RetrievalResult{}, domain.WrapError(domain.ErrRetrievalUnavailable, "similarity search", err)
	}
	if len(pool) == 0 {
		return domain.RetrievalResult{Chunks: []domain.Chunk{}}, nil
	}

	kept := filterByThreshold(pool, opts.Threshold)
	if len(kept) == 0 {
		// Never return empty for a non-empty pool: keep the closest hit.
		kept = pool[:1]
	}

	var ranked []domain.Candidate
	switch opts.Strategy {
	case domain.StrategyMMR:
		ranked = rankMMR(queryVec, kept, opts.TopK, opts.MMRLambda)
	case domain.StrategySVM:
		ranked = rankSVM(queryVec, kept, opts.TopK)
	case domain.StrategyTFIDF:
		ranked = rankTFIDF(query, kept, opts.TopK)
	}

	result := domain.RetrievalResult{Chunks: []domain.Chunk{}}
	acc := newAccumulator(opts)
	for _, c := range ranked {
		if !acc.add(&result, c.Chunk) {
			break
		}
	}
	return result, nil
}

// mergeSearch trades extra retrieval rounds for budget-aware breadth: it
// re-runs the search with k doubled each round, keeping only chunks at or
// above the threshold, until the budget is reached, a round adds no new
// unique chunk, or the ladder is exhausted.
func (r *Retriever) mergeSearch(ctx context.Context, queryVec []float32, opts Options) (domain.RetrievalResult, error) {
	result := domain.RetrievalResult{Chunks: []domain.Chunk{}}
	acc := newAccumulator(opts)

	k := opts.TopK
	for round := 0; round < opts.MergeRounds; round++ {
		pool, err := r.store.Search(ctx, queryVec, k)
		if err != nil {
			return domain.RetrievalResult{}, domain.WrapError(domain.ErrRetrievalUnavailable, "similarity search", err)
		}
		if len(pool) == 0 {
			break
		}

		kept := filterByThreshold(pool, opts.Threshold)
		if round == 0 && len(kept) == 0 {
			// Degenerate first pass: downstream completion still needs at
			// least one document, so retain the single closest chunk.
			kept = pool[:1]
		}

		added := false
		budgetHit := false
		for _, c := range kept {
			if acc.duplicate(c.Chunk) {
				continue
			}
			if !acc.add(&result, c.Chunk) {
				budgetHit = true
				break
			}
			added = true
		}
		if budgetHit || !added {
			break
		}
		if len(pool) < k {
			// The index is exhausted; larger k cannot surface new chunks.
			break
		}
		k *= 2
	}
	return result, nil
}

func filterByThreshold(pool []domain.Candidate, threshold float64) []domain.Candidate {
	kept := make([]domain.Candidate, 0, len(pool))
	for _, c := range pool {
		if c.Score >= threshold {
			kept = append(kept, c)
		}
	}
	return kept
}

// accumulator enforces deduplication and the token budget. The very first
// chunk is always admitted even when it alone exceeds the budget, so any
// non-empty pool yields a non-empty result.
type accumulator struct {
	seen   map[string]struct{}
	lang   domain.Language
	budget int
}

func newAccumulator(opts Options) *accumulator {
	return &accumulator{
		seen:   make(map[string]struct{}),
		lang:   opts.Language,
		budget: opts.TokenBudget,
	}
}

func (a *accumulator) duplicate(chunk domain.Chunk) bool {
	_, dup := a.seen[chunk.Content]
	return dup
}

// add appends chunk unless it is a duplicate or would exceed the budget.
// It returns false once the budget is reached, signaling the caller to stop.
func (a *accumulator) add(result *domain.RetrievalResult, chunk domain.Chunk) bool {
	if a.duplicate(chunk) {
		return true
	}
	cost := EstimateTokens(chunk.Content, a.lang)
	if len(result.Chunks) > 0 && result.Tokens+cost > a.budget {
		return false
	}
	a.seen[chunk.Content] = struct{}{}
	result.Chunks = append(result.Chunks, chunk)
	result.Tokens += cost
	return true
}
