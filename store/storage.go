package store

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

const (
	indexFile  = "index.gob"
	chunksFile = "chunks.json"
)

// Pair is the vector index together with the chunk texts it was built from.
// The two are positionally aligned: index entry i holds the embedding of
// Chunks[i]. They are created, persisted, loaded, and swapped only as a unit;
// holding one without the other is an invalid state.
type Pair struct {
	Index  *FlatIndex
	Chunks []string
}

// indexPayload is the on-disk form of a FlatIndex. Count is stored alongside
// the vectors so a load can cross-check the chunk file against the index file
// instead of silently misaligning.
type indexPayload struct {
	Dimension int
	Count     int
	Vectors   [][]float32
}

// SavePair writes both artifacts under dir, each through a temp file and
// rename so a crash mid-write never leaves a torn file behind.
func SavePair(dir string, p *Pair) error {
	if p == nil || p.Index == nil || p.Index.Len() != len(p.Chunks) {
		return types.E(types.StageIndex, types.KindInput,
			errors.New("index and chunk list are not aligned"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.E(types.StageIndex, types.KindConfig, err)
	}

	payload := indexPayload{
		Dimension: p.Index.Dimension(),
		Count:     p.Index.Len(),
		Vectors:   p.Index.vectors,
	}
	if err := writeAtomic(filepath.Join(dir, indexFile), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(payload)
	}); err != nil {
		return types.E(types.StageIndex, types.KindConfig, err)
	}

	if err := writeAtomic(filepath.Join(dir, chunksFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetEscapeHTML(false)
		return enc.Encode(p.Chunks)
	}); err != nil {
		return types.E(types.StageIndex, types.KindConfig, err)
	}
	return nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadPair reads both artifacts back. A loaded pair answers Search exactly as
// the pair that was saved. Missing files surface as a not-ready state error;
// an index/chunks count mismatch is rejected rather than loaded misaligned.
func LoadPair(dir string) (*Pair, error) {
	f, err := os.Open(filepath.Join(dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.E(types.StageRetrieve, types.KindState, types.ErrNotReady)
		}
		return nil, types.E(types.StageRetrieve, types.KindConfig, err)
	}
	defer f.Close()

	var payload indexPayload
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		return nil, types.E(types.StageRetrieve, types.KindState, err)
	}
	if payload.Count != len(payload.Vectors) {
		return nil, types.Ef(types.StageRetrieve, types.KindState,
			"index file records %d vectors but holds %d", payload.Count, len(payload.Vectors))
	}

	data, err := os.ReadFile(filepath.Join(dir, chunksFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.E(types.StageRetrieve, types.KindState, types.ErrNotReady)
		}
		return nil, types.E(types.StageRetrieve, types.KindConfig, err)
	}
	var chunks []string
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, types.E(types.StageRetrieve, types.KindState, err)
	}

	if len(chunks) != payload.Count {
		return nil, types.Ef(types.StageRetrieve, types.KindState,
			"chunk file holds %d chunks but index holds %d vectors", len(chunks), payload.Count)
	}

	ix, err := NewFlatIndex(payload.Vectors)
	if err != nil {
		return nil, err
	}
	if ix.Dimension() != payload.Dimension {
		return nil, types.Ef(types.StageRetrieve, types.KindState,
			"index file records dimension %d but vectors have %d", payload.Dimension, ix.Dimension())
	}
	return &Pair{Index: ix, Chunks: chunks}, nil
}

// Library holds the live index/chunk pair. A rebuild prepares the new pair
// off to the side and Swap replaces a single pointer under the lock, so
// concurrent readers see either the whole old pair or the whole new one.
type Library struct {
	mu   sync.RWMutex
	pair *Pair
}

func NewLibrary() *Library {
	return &Library{}
}

func (l *Library) Swap(p *Pair) {
	l.mu.Lock()
	l.pair = p
	l.mu.Unlock()
}

// Snapshot returns the current pair for the duration of one request. Pairs
// are immutable once swapped in, so the caller needs no further locking.
func (l *Library) Snapshot() (*Pair, error) {
	l.mu.RLock()
	p := l.pair
	l.mu.RUnlock()
	if p == nil {
		return nil, types.E(types.StageRetrieve, types.KindState, types.ErrNotReady)
	}
	return p, nil
}
