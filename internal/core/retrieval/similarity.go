package retrieval

import "math"

func dot32(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm32(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine32(a, b []float32) float64 {
	na := norm32(a)
	nb := norm32(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot32(a, b) / (na * nb)
}

func normalize32(v []float32) []float32 {
	n := norm32(v)
	if n == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}
