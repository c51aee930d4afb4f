package rag

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PGVectorIndex implements Index on PostgreSQL with the pgvector extension.
// Each index name maps to one table:
//
//	id uuid PRIMARY KEY, embedding vector(D), metadata jsonb
type PGVectorIndex struct {
	// db is the connection pool.
	db *sql.DB
}

// NewPGVectorIndex opens a connection pool for dsn and ensures the vector
// extension is installed.
func NewPGVectorIndex(ctx context.Context, dsn string) (*PGVectorIndex, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pgvector: dsn must not be empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("pgvector: open: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pgvector: enable extension: %w", err)
	}
	return &PGVectorIndex{db: db}, nil
}

// CreateIndex creates the backing table and an HNSW cosine index on it.
func (p *PGVectorIndex) CreateIndex(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("pgvector: invalid dimension %d", dimension)
	}
	table := pq.QuoteIdentifier(name)
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id         uuid PRIMARY KEY,
    embedding  vector(%d) NOT NULL,
    metadata   jsonb NOT NULL DEFAULT '{}'::jsonb
)`, table, dimension)
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("pgvector: create table %q: %w", name, err)
	}

	idx := pq.QuoteIdentifier(name + "_embedding_idx")
	ddl = fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, idx, table)
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("pgvector: create index on %q: %w", name, err)
	}
	return nil
}

// DeleteIndex drops the backing table if it exists.
func (p *PGVectorIndex) DeleteIndex(ctx context.Context, name string) error {
	if _, err := p.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("pgvector: drop table %q: %w", name, err)
	}
	return nil
}

// Upsert inserts or replaces a batch of vectors inside one transaction.
func (p *PGVectorIndex) Upsert(ctx context.Context, index string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgvector: begin: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s (id, embedding, metadata) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata`,
		pq.QuoteIdentifier(index))

	for _, v := range vectors {
		meta, err := json.Marshal(v.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("pgvector: marshal metadata for %s: %w", v.ID, err)
		}
		if _, err := tx.ExecContext(ctx, q, v.ID, pgvector.NewVector(v.Values), string(meta)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("pgvector: upsert %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgvector: commit: %w", err)
	}
	return nil
}

// Ping checks database reachability.
func (p *PGVectorIndex) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pgvector: ping: %w", err)
	}
	return nil
}

// Name returns the dependency label used in readiness output.
func (p *PGVectorIndex) Name() string { return "pgvector" }

// Close releases the connection pool.
func (p *PGVectorIndex) Close() error {
	return p.db.Close()
}
