package store

import (
	"errors"
	"sort"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// Hit is one search result: the position a vector was inserted at and its
// inner-product score against the query.
type Hit struct {
	Position int
	Score    float32
}

// FlatIndex is an exact nearest-neighbor index over normalized vectors.
// Search scans every stored vector; corpora here are thousands of chunks, so
// exhaustive inner-product search buys correctness without approximate-search
// tuning. A vector's identity is its insertion position.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

func NewFlatIndex(vectors [][]float32) (*FlatIndex, error) {
	if len(vectors) == 0 {
		return nil, types.E(types.StageIndex, types.KindInput,
			errors.New("no vectors to index"))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, types.E(types.StageIndex, types.KindInput,
			errors.New("zero-dimension vector"))
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, types.Ef(types.StageIndex, types.KindInput,
				"vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	return &FlatIndex{dim: dim, vectors: vectors}, nil
}

func (ix *FlatIndex) Len() int { return len(ix.vectors) }

func (ix *FlatIndex) Dimension() int { return ix.dim }

// Search returns up to k hits ordered by descending score. Equal scores are
// ordered by lower position so results are deterministic. k larger than the
// stored count returns everything.
func (ix *FlatIndex) Search(query []float32, k int) []Hit {
	if len(query) != ix.dim || k <= 0 {
		return nil
	}

	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		var dot float32
		for j := range v {
			dot += query[j] * v[j]
		}
		hits[i] = Hit{Position: i, Score: dot}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}
