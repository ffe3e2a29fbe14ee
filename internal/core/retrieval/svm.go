package retrieval

import (
	"sort"

	"github.com/yctsai/akasha/internal/core/domain"
)

const (
	svmEpochs = 120
	svmLambda = 0.01
)

// rankSVM fits a linear separator over the pre-computed embeddings with the
// query as the single positive exemplar and every candidate as a negative,
// then ranks candidates by signed distance from the decision boundary: the
// ones hardest to separate from the query come first. Training is full-batch
// subgradient descent in fixed order with no randomness, so repeated calls
// on the same pool produce the same ranking.
func rankSVM(queryVec []float32, pool []domain.Candidate, k int) []domain.Candidate {
	if len(pool) == 0 || k <= 0 {
		return nil
	}
	if k > len(pool) {
		k = len(pool)
	}

	dim := len(queryVec)
	usable := dim > 0
	for _, c := range pool {
		if len(c.Embedding) != dim {
			usable = false
			break
		}
	}
	// Without embeddings there is nothing to separate; fall back to the
	// store's own similarity order.
	if !usable {
		return pool[:k]
	}

	positive := normalize32(queryVec)
	negatives := make([][]float32, len(pool))
	for i, c := range pool {
		negatives[i] = normalize32(c.Embedding)
	}

	weights := make([]float64, dim)
	bias := 0.0
	for epoch := 1; epoch <= svmEpochs; epoch++ {
		eta := 1.0 / (svmLambda * float64(epoch))

		grad := make([]float64, dim)
		gradBias := 0.0
		addHinge := func(x []float32, label float64) {
			margin := label * (dotF(weights, x) + bias)
			if margin >= 1 {
				return
			}
			for i := range grad {
				grad[i] -= label * float64(x[i])
			}
			gradBias -= label
		}
		addHinge(positive, 1)
		for _, x := range negatives {
			addHinge(x, -1)
		}

		scale := float64(1 + len(negatives))
		for i := range weights {
			weights[i] -= eta * (svmLambda*weights[i] + grad[i]/scale)
		}
		bias -= eta * gradBias / scale
	}

	type scored struct {
		candidate domain.Candidate
		score     float64
	}
	ranked := make([]scored, len(pool))
	for i, c := range pool {
		ranked[i] = scored{candidate: c, score: dotF(weights, negatives[i]) + bias}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]domain.Candidate, 0, k)
	for _, s := range ranked[:k] {
		out = append(out, s.candidate)
	}
	return out
}

func dotF(w []float64, x []float32) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * float64(x[i])
	}
	return sum
}
