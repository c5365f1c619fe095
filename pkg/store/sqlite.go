package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/pawsona/pawsona/internal/models"
)

// SQLiteStore persists the corpus in a sqlite file with embeddings stored
// as little-endian float32 blobs. Rows are mirrored into memory at load
// time so searches run through the same brute-force engine as the file
// backend; sqlite only provides durability.
type SQLiteStore struct {
	db    *sql.DB
	table string
	dim   int

	mu   sync.RWMutex
	docs []models.Document
	rows []row
}

func NewSQLiteStore(path, table string, dim int) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if table == "" {
		table = "pawsona_documents"
	}
	if dim < 1 {
		return nil, errors.New("vector dimension must be positive")
	}

	dsn := path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite store")
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, table: table, dim: dim}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			type_code TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			embedding BLOB NOT NULL
		)`, s.table)

	_, err := s.db.Exec(ddl)
	return errors.Wrap(err, "create sqlite schema")
}

func (s *SQLiteStore) Insert(docs []models.Document, embeddings [][]float32) error {
	if err := checkInsert(docs, embeddings, s.dim); err != nil {
		return err
	}

	paired := pairDocs(docs, embeddings)
	rows := buildRows(paired)

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin insert transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return errors.Wrap(err, "clear previous corpus")
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (id, type_code, category, title, content, embedding) VALUES (?, ?, ?, ?, ?, ?)", s.table))
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, d := range paired {
		if _, err := stmt.Exec(d.ID, d.TypeCode, d.Category, d.Title, d.Content, encodeVector(d.Embedding)); err != nil {
			return errors.Wrapf(err, "insert document %s", d.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit insert transaction")
	}

	s.mu.Lock()
	s.docs = paired
	s.rows = rows
	s.mu.Unlock()
	return nil
}

func (s *SQLiteStore) Search(query []float32, k int, typeCode string, minScore float64) ([]models.RetrievedDocument, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("query dimension %d does not match store dimension %d", len(query), s.dim)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchRows(s.rows, query, k, typeCode, minScore), nil
}

// Load mirrors the table into memory in insertion order. Rows that cannot
// be read back cleanly degrade to an empty store, matching the file
// backend's behavior on a corrupt bundle.
func (s *SQLiteStore) Load() error {
	query := fmt.Sprintf(
		"SELECT id, type_code, category, title, content, embedding FROM %s ORDER BY seq", s.table)

	dbRows, err := s.db.Query(query)
	if err != nil {
		s.swap(nil)
		return nil
	}
	defer dbRows.Close()

	var docs []models.Document
	for dbRows.Next() {
		var d models.Document
		var blob []byte
		if err := dbRows.Scan(&d.ID, &d.TypeCode, &d.Category, &d.Title, &d.Content, &blob); err != nil {
			s.swap(nil)
			return nil
		}
		vec, err := decodeVector(blob)
		if err != nil || len(vec) != s.dim {
			s.swap(nil)
			return nil
		}
		d.Embedding = vec
		docs = append(docs, d)
	}
	if err := dbRows.Err(); err != nil {
		s.swap(nil)
		return nil
	}

	s.swap(docs)
	return nil
}

// Persist is a no-op: Insert writes through to sqlite in one transaction.
func (s *SQLiteStore) Persist() error {
	return nil
}

func (s *SQLiteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) swap(docs []models.Document) {
	rows := buildRows(docs)
	s.mu.Lock()
	s.docs = docs
	s.rows = rows
	s.mu.Unlock()
}
