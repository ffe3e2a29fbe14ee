package retrieval

import "github.com/yctsai/akasha/internal/core/domain"

// rankMMR greedily selects candidates maximizing
// lambda*relevance - (1-lambda)*max_similarity_to_selected, trading query
// relevance against redundancy with what was already picked. Ties go to the
// earlier pool position, keeping the selection deterministic.
func rankMMR(queryVec []float32, pool []domain.Candidate, k int, lambda float64) []domain.Candidate {
	if len(pool) == 0 || k <= 0 {
		return nil
	}
	if lambda < 0 || lambda > 1 {
		lambda = defaultMMRLambda
	}

	relevance := make([]float64, len(pool))
	for i, c := range pool {
		relevance[i] = cosine32(queryVec, c.Embedding)
	}

	selected := make([]int, 0, k)
	picked := make([]bool, len(pool))

	for len(selected) < k && len(selected) < len(pool) {
		best := -1
		bestScore := 0.0
		for i := range pool {
			if picked[i] {
				continue
			}
			redundancy := 0.0
			for _, j := range selected {
				if sim := cosine32(pool[i].Embedding, pool[j].Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best == -1 {
			break
		}
		picked[best] = true
		selected = append(selected, best)
	}

	out := make([]domain.Candidate, 0, len(selected))
	for _, i := range selected {
		out = append(out, pool[i])
	}
	return out
}
