package store

import (
	"testing"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// toy 2D unit vectors so scores are easy to reason about
func toyVectors() [][]float32 {
	return [][]float32{
		{1, 0},
		{0, 1},
		{0.6, 0.8},
	}
}

func TestFlatIndex_SearchRanking(t *testing.T) {
	ix, err := NewFlatIndex(toyVectors())
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}

	hits := ix.Search([]float32{0, 1}, 2)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Position != 1 {
		t.Fatalf("expected position 1 first, got %d", hits[0].Position)
	}
	if hits[1].Position != 2 {
		t.Fatalf("expected position 2 second, got %d", hits[1].Position)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatalf("scores not non-increasing: %v", hits)
		}
	}
}

func TestFlatIndex_KClampedToSize(t *testing.T) {
	ix, err := NewFlatIndex(toyVectors())
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}

	hits := ix.Search([]float32{1, 0}, 10)
	if len(hits) != 3 {
		t.Fatalf("expected all 3 hits when k > size, got %d", len(hits))
	}
}

func TestFlatIndex_TiesBreakOnLowerPosition(t *testing.T) {
	ix, err := NewFlatIndex([][]float32{
		{0, 1},
		{1, 0},
		{1, 0},
	})
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}

	hits := ix.Search([]float32{1, 0}, 3)
	if hits[0].Position != 1 || hits[1].Position != 2 {
		t.Fatalf("expected tied positions 1 then 2, got %v", hits)
	}
}

func TestFlatIndex_BadQueries(t *testing.T) {
	ix, err := NewFlatIndex(toyVectors())
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}

	if hits := ix.Search([]float32{1, 0, 0}, 2); hits != nil {
		t.Fatalf("expected nil for dimension mismatch, got %v", hits)
	}
	if hits := ix.Search([]float32{1, 0}, 0); hits != nil {
		t.Fatalf("expected nil for k=0, got %v", hits)
	}
}

func TestNewFlatIndex_RejectsBadInput(t *testing.T) {
	if _, err := NewFlatIndex(nil); err == nil {
		t.Fatal("expected error for empty input")
	} else if kind, _ := types.KindOf(err); kind != types.KindInput {
		t.Fatalf("expected input error, got %v", err)
	}

	_, err := NewFlatIndex([][]float32{{1, 0}, {1, 0, 0}})
	if err == nil {
		t.Fatal("expected error for ragged vectors")
	}
	if kind, _ := types.KindOf(err); kind != types.KindInput {
		t.Fatalf("expected input error, got %v", err)
	}
}
