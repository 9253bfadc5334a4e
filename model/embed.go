package model

import (
	"context"
	"math"
)

// Embedder turns text into unit-length vectors. Every implementation must
// return L2-normalized output: search scores are inner products, which equal
// cosine similarity only on normalized vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Normalize scales v to unit L2 norm in place. A zero vector is left as is.
func Normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
