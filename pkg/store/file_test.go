package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsona/pawsona/internal/models"
	"github.com/pawsona/pawsona/pkg/store"
)

const testDim = 4

// Three documents with hand-picked vectors: doc3 has cosine 0.6 against
// doc1, doc2 points along a different axis entirely.
func scenarioDocs() ([]models.Document, [][]float32) {
	docs := []models.Document{
		{ID: "doc1", TypeCode: "WTIL", Category: "qa", Title: "Energetic walks", Content: "Walk energetically."},
		{ID: "doc2", TypeCode: "DTIL", Category: "qa", Title: "Calm walks", Content: "Calm walks."},
		{ID: "doc3", TypeCode: "WTIL", Category: "qa", Title: "Fetch games", Content: "Loves fetch."},
	}
	vecs := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0.6, 0, 0.8, 0},
	}
	return docs, vecs
}

func newTestStore(t *testing.T) *store.FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := store.NewFileStore(path, testDim)
	require.NoError(t, err)
	return s
}

func TestSearchWithTypeFilter(t *testing.T) {
	s := newTestStore(t)
	docs, vecs := scenarioDocs()
	require.NoError(t, s.Insert(docs, vecs))

	results, err := s.Search([]float32{1, 0, 0, 0}, 2, "WTIL", 0.0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "doc1", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "doc3", results[1].ID)
	assert.InDelta(t, 0.6, results[1].Score, 1e-6)

	for _, r := range results {
		assert.Equal(t, "WTIL", r.TypeCode)
	}
}

func TestSearchDeterminism(t *testing.T) {
	s := newTestStore(t)
	docs, vecs := scenarioDocs()
	require.NoError(t, s.Insert(docs, vecs))

	query := []float32{0.3, 0.2, 0.9, 0}
	first, err := s.Search(query, 3, "", 0.0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := s.Search(query, 3, "", 0.0)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSearchTopKBound(t *testing.T) {
	s := newTestStore(t)
	docs, vecs := scenarioDocs()
	require.NoError(t, s.Insert(docs, vecs))

	for k := 0; k <= 5; k++ {
		results, err := s.Search([]float32{1, 0, 0, 0}, k, "", 0.0)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), k)
	}
}

func TestSearchMinScore(t *testing.T) {
	s := newTestStore(t)
	docs, vecs := scenarioDocs()
	require.NoError(t, s.Insert(docs, vecs))

	results, err := s.Search([]float32{1, 0, 0, 0}, 3, "", 0.9)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc1", results[0].ID)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.9)
	}
}

func TestSearchFilterWithoutMatches(t *testing.T) {
	s := newTestStore(t)
	docs, vecs := scenarioDocs()
	require.NoError(t, s.Insert(docs, vecs))

	results, err := s.Search([]float32{1, 0, 0, 0}, 3, "XXXX", 0.0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	docs := []models.Document{
		{ID: "first", TypeCode: "WTIL", Content: "a"},
		{ID: "second", TypeCode: "WTIL", Content: "b"},
		{ID: "third", TypeCode: "WTIL", Content: "c"},
	}
	vec := []float32{0, 0, 1, 0}
	require.NoError(t, s.Insert(docs, [][]float32{vec, vec, vec}))

	results, err := s.Search(vec, 3, "", 0.0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, "third", results[2].ID)
}

func TestEmptyStoreSearch(t *testing.T) {
	s := newTestStore(t)

	results, err := s.Search([]float32{1, 0, 0, 0}, 5, "", 0.0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.Search([]float32{1, 0, 0, 0}, 5, "WTIL", 0.9)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	s, err := store.NewFileStore(path, testDim)
	require.NoError(t, err)

	docs, vecs := scenarioDocs()
	require.NoError(t, s.Insert(docs, vecs))

	// A brand-new store over the same file must see identical state.
	reloaded, err := store.NewFileStore(path, testDim)
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.Count())

	results, err := reloaded.Search([]float32{1, 0, 0, 0}, 3, "", 0.0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "doc1", results[0].ID)
	assert.Equal(t, "Walk energetically.", results[0].Content)
	assert.Equal(t, vecs[0], results[0].Embedding)
	assert.Equal(t, "qa", results[0].Category)
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.bin")
	s, err := store.NewFileStore(path, testDim)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.bin")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a bundle"), 0644))

	s, err := store.NewFileStore(path, testDim)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())

	results, err := s.Search([]float32{1, 0, 0, 0}, 3, "", 0.0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInsertLengthMismatch(t *testing.T) {
	s := newTestStore(t)
	docs, vecs := scenarioDocs()

	err := s.Insert(docs, vecs[:2])
	assert.Error(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestInsertDimensionMismatch(t *testing.T) {
	s := newTestStore(t)

	err := s.Insert(
		[]models.Document{{ID: "bad", TypeCode: "WTIL"}},
		[][]float32{{1, 0}},
	)
	assert.Error(t, err)
}

func TestSearchDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	docs, vecs := scenarioDocs()
	require.NoError(t, s.Insert(docs, vecs))

	_, err := s.Search([]float32{1, 0}, 3, "", 0.0)
	assert.Error(t, err)
}

func TestZeroVectorsNeverRetrieved(t *testing.T) {
	s := newTestStore(t)
	docs := []models.Document{
		{ID: "zero", TypeCode: "WTIL", Content: "unreachable"},
		{ID: "real", TypeCode: "WTIL", Content: "reachable"},
	}
	vecs := [][]float32{
		{0, 0, 0, 0},
		{1, 0, 0, 0},
	}
	require.NoError(t, s.Insert(docs, vecs))

	results, err := s.Search([]float32{1, 0, 0, 0}, 5, "", -1.0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "real", results[0].ID)
}

func TestInsertReplacesCorpus(t *testing.T) {
	s := newTestStore(t)
	docs, vecs := scenarioDocs()
	require.NoError(t, s.Insert(docs, vecs))
	require.Equal(t, 3, s.Count())

	require.NoError(t, s.Insert(docs[:1], vecs[:1]))
	assert.Equal(t, 1, s.Count())

	results, err := s.Search([]float32{0, 1, 0, 0}, 3, "", 0.0)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "doc2", r.ID)
	}
}
