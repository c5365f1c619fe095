package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/pawsona/pawsona/internal/models"
)

// FileStore keeps the whole corpus in memory and persists it as a single
// binary bundle. Searches take a read lock only; ingestion builds the new
// state off to the side and swaps it in one step.
type FileStore struct {
	path string
	dim  int

	mu   sync.RWMutex
	docs []models.Document
	rows []row
}

func NewFileStore(path string, dim int) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if dim < 1 {
		return nil, errors.New("vector dimension must be positive")
	}

	s := &FileStore{path: path, dim: dim}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Insert(docs []models.Document, embeddings [][]float32) error {
	if err := checkInsert(docs, embeddings, s.dim); err != nil {
		return err
	}

	paired := pairDocs(docs, embeddings)
	rows := buildRows(paired)

	data, err := encodeBundle(s.dim, paired)
	if err != nil {
		return errors.Wrap(err, "encode store bundle")
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return errors.Wrap(err, "persist store bundle")
	}

	s.mu.Lock()
	s.docs = paired
	s.rows = rows
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Search(query []float32, k int, typeCode string, minScore float64) ([]models.RetrievedDocument, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("query dimension %d does not match store dimension %d", len(query), s.dim)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchRows(s.rows, query, k, typeCode, minScore), nil
}

// Load reads the bundle back from disk. A missing or unreadable bundle
// leaves a logically empty store rather than failing, so a fresh deployment
// starts up with zero documents instead of crashing.
func (s *FileStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.swap(nil)
		return nil
	}

	dim, docs, err := decodeBundle(data)
	if err != nil || dim != s.dim {
		s.swap(nil)
		return nil
	}

	s.swap(docs)
	return nil
}

func (s *FileStore) Persist() error {
	s.mu.RLock()
	docs := s.docs
	s.mu.RUnlock()

	data, err := encodeBundle(s.dim, docs)
	if err != nil {
		return errors.Wrap(err, "encode store bundle")
	}
	return errors.Wrap(writeFileAtomic(s.path, data), "persist store bundle")
}

func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) swap(docs []models.Document) {
	rows := buildRows(docs)
	s.mu.Lock()
	s.docs = docs
	s.rows = rows
	s.mu.Unlock()
}

func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
