// Package docstore keeps per-document metadata in PostgreSQL: the indexing
// status written by the indexer and the titles shown with search results.
//
// It uses a `documents` table, created by Migrate:
//
//	CREATE TABLE documents (
//	    id         TEXT PRIMARY KEY,
//	    title      TEXT NOT NULL DEFAULT '',
//	    status     TEXT NOT NULL,
//	    shard_id   INT NOT NULL,
//	    indexed_at TIMESTAMPTZ,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/postgres"
)

type Status string

const (
	StatusIndexed Status = "INDEXED"
	StatusFailed  Status = "FAILED"
)

// Record is the outcome of indexing one document.
type Record struct {
	DocumentID string
	Title      string
	ShardID    int
	Status     Status
}

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "docstore"),
	}
}

const schema = `CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	shard_id   INT NOT NULL,
	indexed_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const statusIndex = `CREATE INDEX IF NOT EXISTS documents_status_idx ON documents (status)`

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{schema, statusIndex} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrating documents table: %w", err)
			}
		}
		return nil
	})
}

// UpdateStatus upserts the record. A failed attempt keeps the title and
// indexing time of an earlier successful one.
func (s *Store) UpdateStatus(ctx context.Context, rec Record) error {
	var indexedAt any
	if rec.Status == StatusIndexed {
		indexedAt = time.Now().UTC()
	}
	_, err := s.db.DB.ExecContext(ctx, `
		INSERT INTO documents (id, title, status, shard_id, indexed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			title      = CASE WHEN EXCLUDED.status = 'INDEXED' THEN EXCLUDED.title ELSE documents.title END,
			status     = EXCLUDED.status,
			shard_id   = EXCLUDED.shard_id,
			indexed_at = COALESCE(EXCLUDED.indexed_at, documents.indexed_at),
			updated_at = NOW()`,
		rec.DocumentID, rec.Title, string(rec.Status), rec.ShardID, indexedAt,
	)
	if err != nil {
		return fmt.Errorf("updating status of document %s: %w", rec.DocumentID, err)
	}
	s.logger.Debug("document status updated", "doc_id", rec.DocumentID, "status", rec.Status)
	return nil
}

// Titles returns the stored titles of the given documents. Unknown ids are
// absent from the map.
func (s *Store) Titles(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, title FROM documents WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("querying titles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("scanning title row: %w", err)
		}
		out[id] = title
	}
	return out, rows.Err()
}

// StatusCounts returns the number of documents per status.
func (s *Store) StatusCounts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	defer rows.Close()
	out := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status row: %w", err)
		}
		out[Status(status)] = n
	}
	return out, rows.Err()
}
