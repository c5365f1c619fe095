package ingest_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsona/pawsona/internal/models"
	"github.com/pawsona/pawsona/pkg/ingest"
)

type fakeEmbedder struct {
	dim     int
	batches [][]string
	err     error
}

func (f *fakeEmbedder) Encode(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, texts)
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = make([]float32, f.dim)
		vecs[i][0] = float32(len(texts[i]))
	}
	return vecs, nil
}

type fakeStore struct {
	docs    []models.Document
	vecs    [][]float32
	inserts int
	err     error
}

func (f *fakeStore) Insert(docs []models.Document, embeddings [][]float32) error {
	if f.err != nil {
		return f.err
	}
	f.inserts++
	f.docs = docs
	f.vecs = embeddings
	return nil
}

func (f *fakeStore) Search([]float32, int, string, float64) ([]models.RetrievedDocument, error) {
	return nil, nil
}
func (f *fakeStore) Load() error    { return nil }
func (f *fakeStore) Persist() error { return nil }
func (f *fakeStore) Count() int     { return len(f.docs) }
func (f *fakeStore) Close() error   { return nil }

type fakeFetcher struct {
	pages   map[string][]models.GuidePage
	failing map[string]bool
	calls   []string
}

func (f *fakeFetcher) Scrape(ctx context.Context, startURL string) ([]models.GuidePage, error) {
	f.calls = append(f.calls, startURL)
	if f.failing[startURL] {
		return nil, fmt.Errorf("fetch %s: connection refused", startURL)
	}
	return f.pages[startURL], nil
}

// splitChunker cuts page content on "|" so tests control chunk counts.
type splitChunker struct{}

func (splitChunker) Chunk(pages []models.GuidePage) ([]models.ChunkedGuide, error) {
	out := make([]models.ChunkedGuide, 0, len(pages))
	for _, p := range pages {
		out = append(out, models.ChunkedGuide{GuidePage: p, Chunks: strings.Split(p.Content, "|")})
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleKnowledge = `[
  {"type_code": "wtil", "category": "training", "title": "Recall basics", "content": "Start recall training early."},
  {"type_code": "DILP", "title": "Quiet time", "content": "Give calm dogs a den of their own."},
  {"title": "Grooming", "content": "Brush the coat weekly."}
]`

func writeKnowledge(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadKnowledge(t *testing.T) {
	docs, err := ingest.LoadKnowledge(writeKnowledge(t, sampleKnowledge))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "WTIL", docs[0].TypeCode, "type codes are uppercased")
	assert.Equal(t, "training", docs[0].Category)
	assert.Equal(t, "Recall basics", docs[0].Title)

	assert.Equal(t, "knowledge", docs[1].Category, "missing category gets the default")
	assert.Empty(t, docs[2].TypeCode)

	seen := map[string]bool{}
	for _, d := range docs {
		assert.NotEmpty(t, d.ID)
		assert.False(t, seen[d.ID], "IDs must be unique")
		seen[d.ID] = true
	}
}

func TestLoadKnowledgeValidation(t *testing.T) {
	cases := map[string]string{
		"invalid json":  `{"not": "an array"}`,
		"empty content": `[{"title": "Grooming", "content": "  "}]`,
		"empty title":   `[{"content": "Brush the coat weekly."}]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ingest.LoadKnowledge(writeKnowledge(t, content))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := ingest.LoadKnowledge(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}

func TestRunKnowledgeOnly(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	st := &fakeStore{}
	var progress [][2]int

	p := ingest.NewPipeline(emb, st, nil, nil, ingest.Config{
		KnowledgeFile: writeKnowledge(t, sampleKnowledge),
		BatchSize:     2,
		Logger:        discardLogger(),
		OnEmbedProgress: func(done, total int) {
			progress = append(progress, [2]int{done, total})
		},
	})

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ingest.Stats{KnowledgeDocs: 3, Stored: 3}, stats)
	assert.Equal(t, 1, st.inserts, "corpus is replaced in one insert")
	require.Len(t, st.docs, 3)
	require.Len(t, st.vecs, 3)

	require.Len(t, emb.batches, 2)
	assert.Len(t, emb.batches[0], 2)
	assert.Len(t, emb.batches[1], 1)
	assert.Equal(t, [][2]int{{2, 3}, {3, 3}}, progress)
}

func TestRunWithGuides(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	st := &fakeStore{}
	fetcher := &fakeFetcher{
		pages: map[string][]models.GuidePage{
			"https://guides.test/": {
				{URL: "https://guides.test/", Title: "Walking", Content: "part one|part two"},
				{URL: "https://guides.test/play", Title: "Play", Content: "whole page"},
			},
		},
		failing: map[string]bool{"https://down.test/": true},
	}

	p := ingest.NewPipeline(emb, st, fetcher, splitChunker{}, ingest.Config{
		KnowledgeFile: writeKnowledge(t, `[{"type_code": "WTIL", "title": "Recall", "content": "Practice recall."}]`),
		GuideURLs:     []string{"https://down.test/", "https://guides.test/"},
		Logger:        discardLogger(),
	})

	stats, err := p.Run(context.Background())
	require.NoError(t, err, "one unreachable guide site must not abort the run")

	assert.Equal(t, ingest.Stats{KnowledgeDocs: 1, GuidePages: 2, GuideChunks: 3, Stored: 4}, stats)
	assert.Equal(t, []string{"https://down.test/", "https://guides.test/"}, fetcher.calls)

	require.Len(t, st.docs, 4)
	for _, doc := range st.docs[1:] {
		assert.Equal(t, "guide", doc.Category)
		assert.Empty(t, doc.TypeCode, "guide chunks apply to every type")
	}
	assert.Equal(t, "Walking", st.docs[1].Title)
	assert.Equal(t, "part one", st.docs[1].Content)
	assert.Equal(t, "part two", st.docs[2].Content)
	assert.Equal(t, "Play", st.docs[3].Title)
}

func TestRunNothingToIngest(t *testing.T) {
	p := ingest.NewPipeline(&fakeEmbedder{dim: 4}, &fakeStore{}, nil, nil, ingest.Config{Logger: discardLogger()})
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to ingest")
}

func TestRunEmbedErrorAborts(t *testing.T) {
	emb := &fakeEmbedder{dim: 4, err: fmt.Errorf("ollama unreachable")}
	st := &fakeStore{}

	p := ingest.NewPipeline(emb, st, nil, nil, ingest.Config{
		KnowledgeFile: writeKnowledge(t, sampleKnowledge),
		Logger:        discardLogger(),
	})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, st.inserts, "store must stay untouched when embedding fails")
}

func TestRunStoreErrorPropagates(t *testing.T) {
	st := &fakeStore{err: fmt.Errorf("disk full")}
	p := ingest.NewPipeline(&fakeEmbedder{dim: 4}, st, nil, nil, ingest.Config{
		KnowledgeFile: writeKnowledge(t, sampleKnowledge),
		Logger:        discardLogger(),
	})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
