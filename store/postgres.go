package store

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// Catalog records ingested documents and their chunks in durable storage,
// mirroring every index build. It also offers a DB-side similarity search;
// the file-backed flat index stays the authoritative search path.
type Catalog interface {
	Init(context.Context) error
	SaveDocument(context.Context, types.Document) error
	ReplaceChunks(ctx context.Context, docID uuid.UUID, chunks []types.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVec []float32, limit int) ([]types.Scored, error)
	Close() error
}

type PostgresCatalog struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalog(ctx context.Context, connStr string) (*PostgresCatalog, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, types.E(types.StageCatalog, types.KindConfig, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, types.E(types.StageCatalog, types.KindConfig, err)
	}

	return &PostgresCatalog{pool: pool}, nil
}

func (p *PostgresCatalog) SaveDocument(ctx context.Context, doc types.Document) error {
	query := `INSERT INTO documents (id, title, source_path, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			source_path = EXCLUDED.source_path,
			updated_at = EXCLUDED.updated_at,
			version = documents.version + 1
			`
	_, err := p.pool.Exec(
		ctx,
		query,
		doc.ID,
		doc.Title,
		doc.SourcePath,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.Version,
	)
	if err != nil {
		return types.E(types.StageCatalog, types.KindProvider, err)
	}
	return nil
}

// ReplaceChunks swaps the stored chunk rows of a document for the given set.
// Rows carry the same positional identity as the flat index, so position i in
// the table matches index entry i of the build being mirrored.
func (p *PostgresCatalog) ReplaceChunks(ctx context.Context, docID uuid.UUID, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return types.Ef(types.StageCatalog, types.KindInput,
			"%d chunks but %d vectors", len(chunks), len(vectors))
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return types.E(types.StageCatalog, types.KindProvider, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM chunks WHERE doc_id = $1", docID); err != nil {
		return types.E(types.StageCatalog, types.KindProvider, err)
	}

	query := `
    INSERT INTO chunks (id, doc_id, position, token_count, content, embedding)
    VALUES ($1, $2, $3, $4, $5, $6)
    `
	for i, c := range chunks {
		_, err := tx.Exec(ctx, query,
			uuid.New(), docID, c.Position, c.TokenCount, c.Text, pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return types.E(types.StageCatalog, types.KindProvider, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return types.E(types.StageCatalog, types.KindProvider, err)
	}
	return nil
}

// Search ranks stored chunks by cosine similarity to queryVec.
func (p *PostgresCatalog) Search(ctx context.Context, queryVec []float32, limit int) ([]types.Scored, error) {
	if len(queryVec) == 0 {
		return nil, types.Ef(types.StageCatalog, types.KindInput, "empty query vector")
	}

	vector := pgvector.NewVector(queryVec)

	query := `
		SELECT content, 1 - (embedding <=> $1) AS score
		FROM chunks
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1, position
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, query, vector, limit)
	if err != nil {
		return nil, types.E(types.StageCatalog, types.KindProvider, err)
	}
	defer rows.Close()

	var out []types.Scored
	for rows.Next() {
		var s types.Scored
		var score float64
		if err := rows.Scan(&s.Text, &score); err != nil {
			return nil, types.E(types.StageCatalog, types.KindProvider, err)
		}
		s.Score = float32(score)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.E(types.StageCatalog, types.KindProvider, err)
	}
	return out, nil
}

func (p *PostgresCatalog) createRagTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		source_path TEXT,
		created_at TIMESTAMP WITH TIME ZONE,
		updated_at TIMESTAMP WITH TIME ZONE,
		version INTEGER DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_id ON documents(id);

    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS chunks (
        id UUID PRIMARY KEY,
        doc_id UUID NOT NULL,
        position INT NOT NULL,
        token_count INT NOT NULL,
        content TEXT NOT NULL,
        embedding vector(1536) -- text-embedding-3-small
    );

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
    `
	_, err := p.pool.Exec(ctx, query)
	if err != nil {
		return types.E(types.StageCatalog, types.KindProvider, err)
	}
	return nil
}

func (p *PostgresCatalog) Init(ctx context.Context) error {
	return p.createRagTables(ctx)
}

func (p *PostgresCatalog) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
