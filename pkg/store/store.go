// Package store holds the knowledge corpus and serves cosine-similarity
// search over it. Three backends share one contract: a flat-file bundle
// (default), sqlite, and postgres/pgvector. The corpus is bulk-replaced by
// ingestion and read-only otherwise.
package store

import (
	"fmt"

	"github.com/pawsona/pawsona/internal/models"
	"github.com/pawsona/pawsona/internal/types"
)

type Options struct {
	Driver    string
	Path      string
	URL       string
	TableName string
	VectorDim int
}

// Open selects a backend by driver name. An empty driver means file.
func Open(opts Options) (types.VectorStore, error) {
	switch opts.Driver {
	case "", "file":
		return NewFileStore(opts.Path, opts.VectorDim)
	case "sqlite":
		return NewSQLiteStore(opts.Path, opts.TableName, opts.VectorDim)
	case "postgres":
		return NewPostgresStore(opts.URL, opts.TableName, opts.VectorDim)
	default:
		return nil, fmt.Errorf("unknown store driver: %q", opts.Driver)
	}
}

func checkInsert(docs []models.Document, embeddings [][]float32, dim int) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("documents and embeddings length mismatch: %d != %d", len(docs), len(embeddings))
	}
	for i, vec := range embeddings {
		if len(vec) != dim {
			return fmt.Errorf("embedding %d has dimension %d, want %d", i, len(vec), dim)
		}
	}
	return nil
}

// pairDocs attaches each embedding to its document on fresh copies, so the
// caller's slices are never aliased by store state.
func pairDocs(docs []models.Document, embeddings [][]float32) []models.Document {
	out := make([]models.Document, len(docs))
	for i, d := range docs {
		d.Embedding = append([]float32(nil), embeddings[i]...)
		out[i] = d
	}
	return out
}
