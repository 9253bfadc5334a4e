package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Adivarma1619/insurance-rag-bot/store"
	"github.com/Adivarma1619/insurance-rag-bot/types"
)

type fakeExtractor struct {
	text string
}

func (f fakeExtractor) Extract(path string) (string, error) {
	return f.text, nil
}

// pathExtractor returns a different document per source path.
type pathExtractor map[string]string

func (p pathExtractor) Extract(path string) (string, error) {
	return p[path], nil
}

// fakeSplitter cuts on newlines, one chunk per line.
type fakeSplitter struct{}

func (fakeSplitter) Split(text string, chunkSize, overlap int) []types.Chunk {
	var chunks []types.Chunk
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		chunks = append(chunks, types.Chunk{
			Position:   len(chunks),
			Text:       line,
			TokenCount: len(strings.Fields(line)),
		})
	}
	return chunks
}

// fakeEmbedder maps known texts to fixed unit vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			return nil, types.Ef(types.StageEmbed, types.KindProvider, "no fixture for %q", t)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type fakeGenerator struct {
	lastPassages []string
}

func (f *fakeGenerator) Generate(ctx context.Context, query string, passages []string) (string, error) {
	f.lastPassages = passages
	return "grounded answer", nil
}

func newTestService(t *testing.T, text string, vectors map[string][]float32) (*Service, *fakeEmbedder, *fakeGenerator) {
	t.Helper()
	cfg := types.Config{
		DataDir:      t.TempDir(),
		ChunkSize:    450,
		ChunkOverlap: 80,
		RetrieveK:    2,
	}
	embedder := &fakeEmbedder{vectors: vectors}
	generator := &fakeGenerator{}
	svc := New(cfg, fakeExtractor{text: text}, fakeSplitter{}, embedder, generator, store.NewLibrary(), nil)
	return svc, embedder, generator
}

func policyVectors() map[string][]float32 {
	return map[string][]float32{
		"claims must be filed in thirty days": {1, 0},
		"the deductible is five hundred":      {0, 1},
		"coverage excludes flood damage":      {0.6, 0.8},
		"how long to file a claim":            {0.9397, 0.342},  // closest to chunk 0
		"what is my deductible":               {0.1961, 0.9806}, // closest to chunk 1
	}
}

func policyText() string {
	return "claims must be filed in thirty days\nthe deductible is five hundred\ncoverage excludes flood damage"
}

func TestRetrieve_NotReady(t *testing.T) {
	svc, embedder, _ := newTestService(t, policyText(), policyVectors())

	_, err := svc.Retrieve(context.Background(), "what is my deductible", 2)
	if err == nil {
		t.Fatal("expected error before any build")
	}
	if !errors.Is(err, types.ErrNotReady) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
	if embedder.calls != 0 {
		t.Fatalf("embedder called %d times before index existed", embedder.calls)
	}
}

func TestIngestAndRetrieve_RankingAndAlignment(t *testing.T) {
	svc, _, _ := newTestService(t, policyText(), policyVectors())

	count, err := svc.Ingest(context.Background(), "policy.txt")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 chunks ingested, got %d", count)
	}

	results, err := svc.Retrieve(context.Background(), "what is my deductible", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "the deductible is five hundred" {
		t.Fatalf("expected deductible chunk first, got %q", results[0].Text)
	}
	if results[1].Text != "coverage excludes flood damage" {
		t.Fatalf("expected flood chunk second, got %q", results[1].Text)
	}
	if results[0].Score < results[1].Score {
		t.Fatalf("results not ordered by score: %v", results)
	}
}

func TestIngest_EmptyTextRejectedBeforeEmbedding(t *testing.T) {
	svc, embedder, _ := newTestService(t, "   \n  ", policyVectors())

	_, err := svc.Ingest(context.Background(), "empty.txt")
	if err == nil {
		t.Fatal("expected error for empty extracted text")
	}
	if kind, _ := types.KindOf(err); kind != types.KindInput {
		t.Fatalf("expected input error, got %v", err)
	}
	if embedder.calls != 0 {
		t.Fatalf("embedder called %d times for empty input", embedder.calls)
	}
}

func TestIngest_RebuildReplacesPairAtomically(t *testing.T) {
	vectors := policyVectors()
	vectors["premiums are due monthly"] = []float32{1, 0}

	svc, _, _ := newTestService(t, policyText(), vectors)
	if _, err := svc.Ingest(context.Background(), "policy.txt"); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	// Rebuild from a different document through the same service.
	svc.extractor = fakeExtractor{text: "premiums are due monthly"}
	if _, err := svc.Ingest(context.Background(), "billing.txt"); err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	results, err := svc.Retrieve(context.Background(), "how long to file a claim", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	// Only the new document's single chunk exists; k is clamped.
	if len(results) != 1 {
		t.Fatalf("expected 1 result after rebuild, got %d", len(results))
	}
	if results[0].Text != "premiums are due monthly" {
		t.Fatalf("retrieved stale chunk %q after rebuild", results[0].Text)
	}
}

// Two documents with the same chunk count but transposed vectors: if the
// persisted index and chunk list ever came from different builds, position 0
// of the index would map to the wrong text.
func TestIngest_ConcurrentRebuildsNeverMixBuilds(t *testing.T) {
	vectors := map[string][]float32{
		"claims go to the claims desk":   {1, 0},
		"billing goes to accounts":       {0, 1},
		"renewals go to accounts":        {0, 1},
		"disputes go to the claims desk": {1, 0},
	}
	docs := pathExtractor{
		"claims.txt":  "claims go to the claims desk\nbilling goes to accounts",
		"renewal.txt": "renewals go to accounts\ndisputes go to the claims desk",
	}

	cfg := types.Config{DataDir: t.TempDir(), ChunkSize: 450, ChunkOverlap: 80, RetrieveK: 2}
	svc := New(cfg, docs, fakeSplitter{}, &fakeEmbedder{vectors: vectors}, &fakeGenerator{}, store.NewLibrary(), nil)

	for round := 0; round < 25; round++ {
		var wg sync.WaitGroup
		for _, path := range []string{"claims.txt", "renewal.txt"} {
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				if _, err := svc.Ingest(context.Background(), path); err != nil {
					t.Errorf("Ingest %s: %v", path, err)
				}
			}(path)
		}
		wg.Wait()

		pair, err := store.LoadPair(cfg.DataDir)
		if err != nil {
			t.Fatalf("round %d: LoadPair: %v", round, err)
		}
		hits := pair.Index.Search([]float32{1, 0}, 1)
		if len(hits) != 1 {
			t.Fatalf("round %d: expected 1 hit, got %d", round, len(hits))
		}
		got := pair.Chunks[hits[0].Position]
		if got != "claims go to the claims desk" && got != "disputes go to the claims desk" {
			t.Fatalf("round %d: index and chunks came from different builds, top hit %q (chunks %v)",
				round, got, pair.Chunks)
		}
	}
}

type fakeCatalog struct {
	scored    []types.Scored
	lastQuery []float32
	lastLimit int
}

func (f *fakeCatalog) Init(context.Context) error                         { return nil }
func (f *fakeCatalog) SaveDocument(context.Context, types.Document) error { return nil }
func (f *fakeCatalog) ReplaceChunks(context.Context, uuid.UUID, []types.Chunk, [][]float32) error {
	return nil
}
func (f *fakeCatalog) Close() error { return nil }

func (f *fakeCatalog) Search(ctx context.Context, queryVec []float32, limit int) ([]types.Scored, error) {
	f.lastQuery = queryVec
	f.lastLimit = limit
	return f.scored, nil
}

func TestRetrieve_PgvectorBackendSearchesCatalog(t *testing.T) {
	catalog := &fakeCatalog{scored: []types.Scored{
		{Text: "the deductible is five hundred", Score: 0.97},
	}}
	cfg := types.Config{
		DataDir:       t.TempDir(),
		RetrieveK:     2,
		SearchBackend: "pgvector",
	}
	svc := New(cfg, fakeExtractor{}, fakeSplitter{},
		&fakeEmbedder{vectors: policyVectors()}, &fakeGenerator{}, store.NewLibrary(), catalog)

	// No file-backed pair exists; the catalog alone must answer.
	results, err := svc.Retrieve(context.Background(), "what is my deductible", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 || results[0].Text != "the deductible is five hundred" {
		t.Fatalf("expected catalog results, got %v", results)
	}
	if catalog.lastLimit != 2 {
		t.Fatalf("expected limit 2 passed through, got %d", catalog.lastLimit)
	}
	want := policyVectors()["what is my deductible"]
	if len(catalog.lastQuery) != 2 || catalog.lastQuery[0] != want[0] || catalog.lastQuery[1] != want[1] {
		t.Fatalf("expected embedded query vector %v, got %v", want, catalog.lastQuery)
	}
}

func TestRetrieve_PgvectorBackendRejectsEmptyQuery(t *testing.T) {
	cfg := types.Config{DataDir: t.TempDir(), SearchBackend: "pgvector"}
	svc := New(cfg, fakeExtractor{}, fakeSplitter{},
		&fakeEmbedder{vectors: policyVectors()}, &fakeGenerator{}, store.NewLibrary(), &fakeCatalog{})

	_, err := svc.Retrieve(context.Background(), "   ", 2)
	if err == nil {
		t.Fatal("expected error for empty query")
	}
	if kind, _ := types.KindOf(err); kind != types.KindInput {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestRetrieve_LazyLoadsPersistedPair(t *testing.T) {
	svc, _, _ := newTestService(t, policyText(), policyVectors())
	if _, err := svc.Ingest(context.Background(), "policy.txt"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Fresh service over the same data dir, empty library: simulates restart.
	restarted := New(svc.cfg, fakeExtractor{}, fakeSplitter{},
		&fakeEmbedder{vectors: policyVectors()}, &fakeGenerator{}, store.NewLibrary(), nil)

	results, err := restarted.Retrieve(context.Background(), "what is my deductible", 1)
	if err != nil {
		t.Fatalf("Retrieve after restart: %v", err)
	}
	if results[0].Text != "the deductible is five hundred" {
		t.Fatalf("expected persisted pair to answer, got %q", results[0].Text)
	}
}

func TestAnswer_PassesPassagesInRetrievalOrder(t *testing.T) {
	svc, _, generator := newTestService(t, policyText(), policyVectors())
	if _, err := svc.Ingest(context.Background(), "policy.txt"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	answer, sources, err := svc.Answer(context.Background(), "how long to file a claim")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "grounded answer" {
		t.Fatalf("unexpected answer %q", answer)
	}
	if sources != 2 {
		t.Fatalf("expected 2 sources, got %d", sources)
	}
	if generator.lastPassages[0] != "claims must be filed in thirty days" {
		t.Fatalf("expected claim chunk first, got %q", generator.lastPassages[0])
	}
}
