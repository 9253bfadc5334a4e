package store

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

func testPair(t *testing.T) *Pair {
	t.Helper()
	ix, err := NewFlatIndex([][]float32{
		{1, 0},
		{0, 1},
		{0.6, 0.8},
	})
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}
	return &Pair{Index: ix, Chunks: []string{"first", "second", "third"}}
}

func TestSaveLoadPair_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testPair(t)

	if err := SavePair(dir, original); err != nil {
		t.Fatalf("SavePair: %v", err)
	}

	loaded, err := LoadPair(dir)
	if err != nil {
		t.Fatalf("LoadPair: %v", err)
	}

	if len(loaded.Chunks) != len(original.Chunks) {
		t.Fatalf("expected %d chunks, got %d", len(original.Chunks), len(loaded.Chunks))
	}
	for i := range original.Chunks {
		if loaded.Chunks[i] != original.Chunks[i] {
			t.Fatalf("chunk %d changed: %q vs %q", i, loaded.Chunks[i], original.Chunks[i])
		}
	}

	// A loaded index must answer search identically.
	query := []float32{0.8, 0.6}
	want := original.Index.Search(query, 3)
	got := loaded.Index.Search(query, 3)
	if len(got) != len(want) {
		t.Fatalf("hit count differs: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Position != want[i].Position {
			t.Fatalf("hit %d position differs: %d vs %d", i, got[i].Position, want[i].Position)
		}
		if math.Abs(float64(got[i].Score-want[i].Score)) > 1e-6 {
			t.Fatalf("hit %d score differs: %f vs %f", i, got[i].Score, want[i].Score)
		}
	}
}

func TestSavePair_RejectsMisalignedPair(t *testing.T) {
	p := testPair(t)
	p.Chunks = p.Chunks[:2]

	err := SavePair(t.TempDir(), p)
	if err == nil {
		t.Fatal("expected error for misaligned pair")
	}
	if kind, _ := types.KindOf(err); kind != types.KindInput {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestLoadPair_MissingFiles(t *testing.T) {
	_, err := LoadPair(t.TempDir())
	if err == nil {
		t.Fatal("expected error for empty directory")
	}
	if !errors.Is(err, types.ErrNotReady) {
		t.Fatalf("expected not-ready state error, got %v", err)
	}
}

func TestLoadPair_DetectsCountMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := SavePair(dir, testPair(t)); err != nil {
		t.Fatalf("SavePair: %v", err)
	}

	// Overwrite the chunk file with one entry too few.
	data, err := json.Marshal([]string{"first", "second"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, chunksFile), data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = LoadPair(dir)
	if err == nil {
		t.Fatal("expected error for chunk/index count mismatch")
	}
	if kind, _ := types.KindOf(err); kind != types.KindState {
		t.Fatalf("expected state error, got %v", err)
	}
}

func TestLibrary_SnapshotBeforeSwap(t *testing.T) {
	lib := NewLibrary()

	_, err := lib.Snapshot()
	if err == nil {
		t.Fatal("expected not-ready error from empty library")
	}
	if !errors.Is(err, types.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestLibrary_SwapReplacesWholePair(t *testing.T) {
	lib := NewLibrary()
	first := testPair(t)
	lib.Swap(first)

	snap, err := lib.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap != first {
		t.Fatal("snapshot is not the swapped-in pair")
	}

	second := testPair(t)
	second.Chunks = []string{"a", "b", "c"}
	lib.Swap(second)

	snap, err = lib.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap != second {
		t.Fatal("snapshot did not observe the new pair")
	}
	// The old snapshot stays intact for readers that took it before the swap.
	if first.Chunks[0] != "first" {
		t.Fatal("old pair mutated by swap")
	}
}
