// Package service wires the pipeline together: ingestion (extract, chunk,
// embed, index, persist, swap) and querying (retrieve, generate).
package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adivarma1619/insurance-rag-bot/store"
	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// Extractor produces raw text from a source document.
type Extractor interface {
	Extract(path string) (string, error)
}

// Splitter cuts raw text into token-bounded chunks.
type Splitter interface {
	Split(text string, chunkSize, overlap int) []types.Chunk
}

// Embedder converts texts into normalized vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a grounded answer from a query and context passages.
type Generator interface {
	Generate(ctx context.Context, query string, passages []string) (string, error)
}

type Service struct {
	cfg       types.Config
	logger    *slog.Logger
	extractor Extractor
	splitter  Splitter
	embedder  Embedder
	generator Generator
	library   *store.Library
	catalog   store.Catalog // nil when no catalog is configured

	// rebuildMu serializes persist-and-swap across concurrent rebuilds, so
	// the two artifact files on disk always come from the same build.
	// Readers keep going through the library's own lock.
	rebuildMu sync.Mutex
}

func New(cfg types.Config, extractor Extractor, splitter Splitter, embedder Embedder, generator Generator, library *store.Library, catalog store.Catalog) *Service {
	return &Service{
		cfg:       cfg,
		logger:    slog.Default(),
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		generator: generator,
		library:   library,
		catalog:   catalog,
	}
}

// Ingest builds the knowledge base from one source file: extract, chunk,
// embed, index, persist both artifacts, then swap them in as one unit. The
// previous pair stays live until the swap, so a failed build never leaves a
// partial index behind. Returns the number of chunks indexed.
func (s *Service) Ingest(ctx context.Context, path string) (int, error) {
	text, err := s.extractor.Extract(path)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, types.Ef(types.StageExtract, types.KindInput,
			"no text extracted from %s", filepath.Base(path))
	}

	chunks := s.splitter.Split(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, types.Ef(types.StageChunk, types.KindInput,
			"no chunks produced from %s", filepath.Base(path))
	}
	s.logger.Info("chunked document", "source", filepath.Base(path), "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	ix, err := store.NewFlatIndex(vectors)
	if err != nil {
		return 0, err
	}

	pair := &store.Pair{Index: ix, Chunks: texts}
	s.rebuildMu.Lock()
	if err := store.SavePair(s.cfg.DataDir, pair); err != nil {
		s.rebuildMu.Unlock()
		return 0, err
	}
	s.library.Swap(pair)
	s.rebuildMu.Unlock()
	s.logger.Info("knowledge base rebuilt",
		"dir", s.cfg.DataDir, "vectors", ix.Len(), "dimension", ix.Dimension())

	if s.catalog != nil {
		if err := s.mirrorToCatalog(ctx, path, chunks, vectors); err != nil {
			// The new pair is already live and persisted; a catalog miss
			// must not fail the build.
			s.logger.Warn("catalog mirror failed", "error", err)
		}
	}

	return len(chunks), nil
}

func (s *Service) mirrorToCatalog(ctx context.Context, path string, chunks []types.Chunk, vectors [][]float32) error {
	now := time.Now()
	doc := types.Document{
		ID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)),
		Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		SourcePath: path,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}
	if err := s.catalog.SaveDocument(ctx, doc); err != nil {
		return err
	}
	return s.catalog.ReplaceChunks(ctx, doc.ID, chunks, vectors)
}

// Retrieve embeds the query and searches the configured backend: the
// in-process flat index by default, or the catalog's pgvector column when
// SearchBackend is "pgvector". With the flat index, snapshot and chunk list
// come from the same build, so positions map to exactly the text that was
// embedded.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]types.Scored, error) {
	if s.cfg.SearchBackend == "pgvector" && s.catalog != nil {
		return s.retrieveFromCatalog(ctx, query, k)
	}

	pair, err := s.snapshotOrLoad()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return nil, types.Ef(types.StageRetrieve, types.KindInput, "empty query")
	}

	qv, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	hits := pair.Index.Search(qv, k)
	out := make([]types.Scored, len(hits))
	for i, h := range hits {
		out[i] = types.Scored{Text: pair.Chunks[h.Position], Score: h.Score}
	}
	return out, nil
}

func (s *Service) retrieveFromCatalog(ctx context.Context, query string, k int) ([]types.Scored, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.Ef(types.StageRetrieve, types.KindInput, "empty query")
	}

	qv, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.catalog.Search(ctx, qv, k)
}

// snapshotOrLoad returns the live pair, lazily loading persisted artifacts
// on the first query after a restart.
func (s *Service) snapshotOrLoad() (*store.Pair, error) {
	pair, err := s.library.Snapshot()
	if err == nil {
		return pair, nil
	}

	pair, loadErr := store.LoadPair(s.cfg.DataDir)
	if loadErr != nil {
		return nil, loadErr
	}
	s.library.Swap(pair)
	s.logger.Info("loaded knowledge base from disk",
		"dir", s.cfg.DataDir, "chunks", len(pair.Chunks))
	return pair, nil
}

// Answer runs the full query path: retrieve top-k passages, then generate a
// grounded answer. Returns the answer and how many passages grounded it.
func (s *Service) Answer(ctx context.Context, query string) (string, int, error) {
	scored, err := s.Retrieve(ctx, query, s.cfg.RetrieveK)
	if err != nil {
		return "", 0, err
	}

	passages := make([]string, len(scored))
	for i, sc := range scored {
		passages[i] = sc.Text
	}

	answer, err := s.generator.Generate(ctx, query, passages)
	if err != nil {
		return "", 0, err
	}
	return answer, len(passages), nil
}
