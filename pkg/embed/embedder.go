package embed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms/ollama"
)

// ErrUnavailable marks failures to reach the embedding backend. Without a
// query vector retrieval cannot run at all, so callers degrade to an empty
// result instead of failing the request.
var ErrUnavailable = errors.New("embed: model unavailable")

// Config holds the connection settings for the Ollama embedding backend.
type Config struct {
	BaseURL    string
	Model      string
	Dimensions int
}

// embeddingClient is the slice of the Ollama API the embedder needs.
type embeddingClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder turns text into fixed-size vectors using a local Ollama model.
// The backend connection is established on first use, so construction never
// fails and a backend that comes up late is picked up on the next call.
type Embedder struct {
	cfg       Config
	newClient func() (embeddingClient, error)

	mu     sync.Mutex
	client embeddingClient
}

func New(cfg Config) *Embedder {
	if cfg.Model == "" {
		cfg.Model = "all-minilm"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 384
	}

	e := &Embedder{cfg: cfg}
	e.newClient = func() (embeddingClient, error) {
		return ollama.New(
			ollama.WithModel(e.cfg.Model),
			ollama.WithServerURL(e.cfg.BaseURL),
		)
	}
	return e
}

// Dimensions reports the vector size this embedder produces.
func (e *Embedder) Dimensions() int {
	return e.cfg.Dimensions
}

// Encode embeds a single text.
func (e *Embedder) Encode(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeBatch embeds texts in one backend call. The result has one vector
// per input, in input order. An empty batch returns an empty result without
// touching the backend.
func (e *Embedder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	client, err := e.ensureClient()
	if err != nil {
		return nil, err
	}

	vecs, err := client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d inputs", len(vecs), len(texts))
	}
	for i, vec := range vecs {
		if len(vec) != e.cfg.Dimensions {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(vec), e.cfg.Dimensions)
		}
	}
	return vecs, nil
}

// ensureClient connects to the backend once and caches the client. A failed
// attempt leaves the embedder unconnected so the next call tries again.
func (e *Embedder) ensureClient() (embeddingClient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		return e.client, nil
	}
	client, err := e.newClient()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	e.client = client
	return client, nil
}
