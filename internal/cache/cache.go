// Package cache loads and writes the local vector cache snapshot consumed by
// the query engine. A snapshot is an ordered list of {text, embedding} records
// produced by the ingestion pipeline. Two on-disk formats are supported:
//
//	*.json           : [{"text": "...", "embedding": [...], "source": "..."}]
//	*.db, *.sqlite   : SQLite table "records" with float32 BLOB embeddings
//
// Loads are all-or-nothing: any missing, unreadable, or malformed input fails
// with [ErrCacheUnavailable] and no partial cache is returned.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// ErrCacheUnavailable is returned when a snapshot is missing, unreadable, or
// malformed. Callers should test for it with errors.Is.
var ErrCacheUnavailable = errors.New("cache unavailable")

// Record is one indexed text chunk and its embedding.
type Record struct {
	// Text is the chunk content. Never empty in a loaded cache.
	Text string `json:"text"`

	// Embedding is the chunk vector. All records in a cache share its length.
	Embedding []float32 `json:"embedding"`

	// Source is the originating document name. Optional.
	Source string `json:"source,omitempty"`
}

// Cache is an immutable, ordered set of records loaded for a query session.
type Cache struct {
	records   []Record
	dimension int
}

// New validates records and wraps them in a Cache. Every embedding value must
// be finite. It copies the slice so the caller cannot mutate the cache after
// construction.
func New(records []Record) (*Cache, error) {
	dim := 0
	for i, r := range records {
		if r.Text == "" {
			return nil, fmt.Errorf("%w: record %d has empty text", ErrCacheUnavailable, i)
		}
		if len(r.Embedding) == 0 {
			return nil, fmt.Errorf("%w: record %d has empty embedding", ErrCacheUnavailable, i)
		}
		for j, v := range r.Embedding {
			if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("%w: record %d has non-finite value at position %d", ErrCacheUnavailable, i, j)
			}
		}
		if i == 0 {
			dim = len(r.Embedding)
		} else if len(r.Embedding) != dim {
			return nil, fmt.Errorf("%w: record %d has dimension %d, want %d", ErrCacheUnavailable, i, len(r.Embedding), dim)
		}
	}
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Cache{records: cp, dimension: dim}, nil
}

// Len returns the number of records.
func (c *Cache) Len() int { return len(c.records) }

// Dimension returns the shared embedding length, or 0 for an empty cache.
func (c *Cache) Dimension() int { return c.dimension }

// Record returns the i-th record in insertion order.
func (c *Cache) Record(i int) Record { return c.records[i] }

// Records returns the records in insertion order. The returned slice must not
// be modified.
func (c *Cache) Records() []Record { return c.records }

// Load reads a snapshot from path, selecting the format by file extension.
func Load(path string) (*Cache, error) {
	if isSQLitePath(path) {
		return LoadSQLite(path)
	}
	return LoadJSON(path)
}

// Save writes records to path, selecting the format by file extension.
func Save(path string, records []Record) error {
	if isSQLitePath(path) {
		return SaveSQLite(path, records)
	}
	return SaveJSON(path, records)
}

// jsonRecord mirrors Record with pointer fields so missing keys are detectable.
type jsonRecord struct {
	Text      *string    `json:"text"`
	Embedding *[]float32 `json:"embedding"`
	Source    string     `json:"source,omitempty"`
}

// LoadJSON reads a JSON array snapshot.
func LoadJSON(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCacheUnavailable, path, err)
	}

	var raw []jsonRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCacheUnavailable, path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s is not a list of records", ErrCacheUnavailable, path)
	}

	records := make([]Record, 0, len(raw))
	for i, r := range raw {
		if r.Text == nil || r.Embedding == nil {
			return nil, fmt.Errorf("%w: record %d in %s is missing text or embedding", ErrCacheUnavailable, i, path)
		}
		records = append(records, Record{Text: *r.Text, Embedding: *r.Embedding, Source: r.Source})
	}
	return New(records)
}

// SaveJSON writes records as a JSON array. The file is written to a temp
// file in the same directory and renamed into place.
func SaveJSON(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: rename to %s: %w", path, err)
	}
	return nil
}

func isSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
