package types

import (
	"context"

	"github.com/pawsona/pawsona/internal/models"
)

// Core interfaces
type Embedder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore holds the document list and its embeddings as one unit.
// Insert replaces the whole corpus and persists it; Search never mutates.
type VectorStore interface {
	Insert(docs []models.Document, embeddings [][]float32) error
	Search(query []float32, k int, typeCode string, minScore float64) ([]models.RetrievedDocument, error)
	Load() error
	Persist() error
	Count() int
	Close() error
}

// Generator produces completion text for a role-tagged message sequence.
type Generator interface {
	Complete(ctx context.Context, messages []models.ChatMessage, model string, temperature float64, maxTokens int) (string, error)
	Available() bool
}

type Chunker interface {
	Chunk(pages []models.GuidePage) ([]models.ChunkedGuide, error)
}
