package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/pawsona/pawsona/internal/models"
)

// PostgresStore delegates both durability and similarity ordering to
// pgvector. Cosine distance ordering with a seq tie-break reproduces the
// in-memory engine's insertion-order ties; the minScore cut is applied
// after the LIMIT, like the other backends.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
	dim   int
	count atomic.Int64
}

func NewPostgresStore(connString, table string, dim int) (*PostgresStore, error) {
	if connString == "" {
		return nil, errors.New("postgres connection string is required")
	}
	if table == "" {
		table = "pawsona_documents"
	}
	if dim < 1 {
		return nil, errors.New("vector dimension must be positive")
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	s := &PostgresStore{pool: pool, table: table, dim: dim}
	if err := s.initialize(); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.Load(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initialize() error {
	ctx := context.Background()

	// Enable pgvector extension
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return errors.Wrap(err, "create vector extension")
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			type_code TEXT NOT NULL,
			category TEXT,
			title TEXT,
			content TEXT,
			embedding vector(%d) NOT NULL
		)`, s.table, s.dim)

	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return errors.Wrap(err, "create table")
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		s.table, s.table)

	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return errors.Wrap(err, "create index")
	}

	return nil
}

func (s *PostgresStore) Insert(docs []models.Document, embeddings [][]float32) error {
	if err := checkInsert(docs, embeddings, s.dim); err != nil {
		return err
	}
	paired := pairDocs(docs, embeddings)

	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE %s RESTART IDENTITY", s.table)); err != nil {
		return errors.Wrap(err, "clear previous corpus")
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, type_code, category, title, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`, s.table)

	for _, d := range paired {
		_, err := tx.Exec(ctx, stmt,
			d.ID,
			d.TypeCode,
			sanitizeUTF8(d.Category),
			sanitizeUTF8(d.Title),
			sanitizeUTF8(d.Content),
			pgvector.NewVector(d.Embedding),
		)
		if err != nil {
			return errors.Wrapf(err, "insert document %s", d.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}

	s.count.Store(int64(len(paired)))
	return nil
}

func (s *PostgresStore) Search(query []float32, k int, typeCode string, minScore float64) ([]models.RetrievedDocument, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("query dimension %d does not match store dimension %d", len(query), s.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	ctx := context.Background()
	args := []any{pgvector.NewVector(query)}

	where := ""
	if typeCode != "" {
		where = " WHERE type_code = $2"
		args = append(args, typeCode)
	}

	sql := fmt.Sprintf(`
		SELECT id, type_code, category, title, content, embedding,
		       1 - (embedding <=> $1) AS score
		FROM %s%s
		ORDER BY embedding <=> $1, seq
		LIMIT %d`, s.table, where, k)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query documents")
	}
	defer rows.Close()

	var results []models.RetrievedDocument
	for rows.Next() {
		var rd models.RetrievedDocument
		var vec pgvector.Vector
		err := rows.Scan(
			&rd.ID,
			&rd.TypeCode,
			&rd.Category,
			&rd.Title,
			&rd.Content,
			&vec,
			&rd.Score,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		if rd.Score < minScore {
			continue
		}
		rd.Embedding = vec.Slice()
		results = append(results, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read rows")
	}

	return results, nil
}

// Load refreshes the cached corpus size. The table itself is the durable
// artifact; a fresh database simply counts zero.
func (s *PostgresStore) Load() error {
	var n int64
	err := s.pool.QueryRow(context.Background(),
		fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&n)
	if err != nil {
		return errors.Wrap(err, "count documents")
	}
	s.count.Store(n)
	return nil
}

// Persist is a no-op: Insert commits through to postgres.
func (s *PostgresStore) Persist() error {
	return nil
}

func (s *PostgresStore) Count() int {
	return int(s.count.Load())
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
