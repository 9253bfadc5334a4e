package types

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one token-bounded segment of an ingested document. Position is the
// chunk's order within the document and doubles as its identity in the vector
// index: index entry i holds the embedding of chunk i.
type Chunk struct {
	Position   int
	Text       string
	TokenCount int
}

// Scored is a retrieved passage with its cosine similarity to the query.
type Scored struct {
	Text  string
	Score float32
}

// Document is the catalog record for an ingested source file.
type Document struct {
	ID         uuid.UUID
	Title      string
	SourcePath string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int
}

type Config struct {
	ServerAddr   string
	DataDir      string
	ChunkSize    int
	ChunkOverlap int
	RetrieveK    int
	EmbedModel   string
	ChatModel    string
	OpenAIKey    string
	GroqKey      string
	GroqBaseURL  string

	// PDF header/footer crop in points, 0 disables cropping.
	PDFCropTop    float64
	PDFCropBottom float64

	// Postgres catalog, optional. Enabled when PGHost is non-empty.
	PGHost   string
	PGPort   int
	PGUser   string
	PGPass   string
	PGDBName string

	// SearchBackend selects where queries are answered from: "file" (the
	// in-process flat index, the default) or "pgvector" (the catalog's
	// embedding column). "pgvector" requires the catalog to be enabled.
	SearchBackend string
}
