package cache

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// schema is the snapshot table layout. seq preserves insertion order.
const schema = `
CREATE TABLE IF NOT EXISTS records (
    seq        INTEGER PRIMARY KEY,
    text       TEXT    NOT NULL,
    source     TEXT    NOT NULL DEFAULT '',
    embedding  BLOB    NOT NULL
);
`

// LoadSQLite reads a snapshot written by SaveSQLite.
func LoadSQLite(path string) (*Cache, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrCacheUnavailable, path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrCacheUnavailable, path, err)
	}
	defer db.Close()

	ctx := context.Background()
	rows, err := db.QueryContext(ctx, `SELECT text, source, embedding FROM records ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrCacheUnavailable, path, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r    Record
			blob []byte
		)
		if err := rows.Scan(&r.Text, &r.Source, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", ErrCacheUnavailable, path, err)
		}
		vec, err := decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d in %s: %v", ErrCacheUnavailable, len(records), path, err)
		}
		r.Embedding = vec
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows %s: %v", ErrCacheUnavailable, path, err)
	}
	return New(records)
}

// SaveSQLite writes records into a fresh SQLite snapshot at path, replacing
// any existing file.
func SaveSQLite(path string, records []Record) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: remove %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("cache: open %s: %w", path, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("cache: migrate: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache: begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (seq, text, source, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("cache: prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.Text, r.Source, encodeEmbedding(r.Embedding)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("cache: insert record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache: commit: %w", err)
	}
	return nil
}

// encodeEmbedding packs a vector as little-endian IEEE 754 float32 values.
func encodeEmbedding(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
