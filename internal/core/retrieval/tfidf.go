package retrieval

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/yctsai/akasha/internal/core/domain"
)

// rankTFIDF scores each candidate by cosine similarity between tf-idf
// vectors of the query and the chunk texts over a shared vocabulary, and
// returns the k best. Ties keep original pool order (stable sort), so the
// ranking is fully deterministic.
func rankTFIDF(query string, pool []domain.Candidate, k int) []domain.Candidate {
	if len(pool) == 0 || k <= 0 {
		return nil
	}

	docTokens := make([][]string, len(pool))
	for i, c := range pool {
		docTokens[i] = tokenizeText(c.Chunk.Content)
	}
	queryTokens := tokenizeText(query)

	// Smoothed idf over the candidate corpus, query excluded, so adding a
	// query term absent from every chunk cannot perturb chunk weights.
	df := make(map[string]int, 256)
	for _, tokens := range docTokens {
		for term := range termCounts(tokens) {
			df[term]++
		}
	}
	n := float64(len(pool))
	idf := func(term string) float64 {
		return math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	queryVec := tfidfVector(queryTokens, idf)

	type scored struct {
		candidate domain.Candidate
		score     float64
	}
	ranked := make([]scored, len(pool))
	for i, c := range pool {
		ranked[i] = scored{
			candidate: c,
			score:     sparseCosine(queryVec, tfidfVector(docTokens[i], idf)),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]domain.Candidate, 0, k)
	for _, s := range ranked[:k] {
		out = append(out, s.candidate)
	}
	return out
}

func tfidfVector(tokens []string, idf func(string) float64) map[string]float64 {
	counts := termCounts(tokens)
	vec := make(map[string]float64, len(counts))
	for term, count := range counts {
		vec[term] = float64(count) * idf(term)
	}
	return vec
}

func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

func sparseCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dotProduct, normA, normB float64
	for term, w := range a {
		normA += w * w
		if bw, ok := b[term]; ok {
			dotProduct += w * bw
		}
	}
	for _, w := range b {
		normB += w * w
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// tokenizeText lowercases and splits on non-alphanumeric runes; CJK runes
// carry no word boundaries, so each one becomes its own token.
func tokenizeText(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		r = unicode.ToLower(r)
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r):
			flush()
			out = append(out, string(r))
		default:
			flush()
		}
	}
	flush()
	return out
}
