package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/54b3r/ragqa-go/internal/cache"
	"github.com/54b3r/ragqa-go/internal/rag"
)

// fakeEmbedder returns dim-length vectors whose first value is the text's
// word count.
type fakeEmbedder struct {
	dim   int
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(strings.Fields(t)))
		out[i] = v
	}
	return out, nil
}

// fakeIndex records every call in order.
type fakeIndex struct {
	calls   []string
	vectors []rag.Vector
	dim     int
}

func (f *fakeIndex) CreateIndex(_ context.Context, name string, dimension int) error {
	f.calls = append(f.calls, "create:"+name)
	f.dim = dimension
	return nil
}

func (f *fakeIndex) DeleteIndex(_ context.Context, name string) error {
	f.calls = append(f.calls, "delete:"+name)
	return nil
}

func (f *fakeIndex) Upsert(_ context.Context, index string, vectors []rag.Vector) error {
	f.calls = append(f.calls, fmt.Sprintf("upsert:%s:%d", index, len(vectors)))
	f.vectors = append(f.vectors, vectors...)
	return nil
}

func (f *fakeIndex) Close() error { return nil }

type countingObserver struct{ chunks map[string]int }

func (c *countingObserver) ObserveIngest(source string, chunks int) {
	if c.chunks == nil {
		c.chunks = map[string]int{}
	}
	c.chunks[source] = chunks
}

// writeDocs creates files under a fresh temp dir and returns its path.
func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func words(n int, word string) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func TestChunkWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		size  int
		want  int
		first string
	}{
		{name: "empty", text: "", size: 300, want: 0},
		{name: "whitespace only", text: " \n\t ", size: 300, want: 0},
		{name: "collapses whitespace", text: "a\n\nb\t c", size: 300, want: 1, first: "a b c"},
		{name: "exact multiple", text: words(600, "w"), size: 300, want: 2},
		{name: "remainder", text: words(650, "w"), size: 300, want: 3},
		{name: "small size", text: "one two three", size: 2, want: 2, first: "one two"},
		{name: "default size", text: words(301, "w"), size: 0, want: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ChunkWords(tc.text, tc.size)
			if len(got) != tc.want {
				t.Fatalf("want %d chunks, got %d", tc.want, len(got))
			}
			if tc.first != "" && got[0] != tc.first {
				t.Errorf("first chunk: want %q, got %q", tc.first, got[0])
			}
		})
	}

	chunks := ChunkWords(words(650, "w"), 300)
	if n := len(strings.Fields(chunks[2])); n != 50 {
		t.Errorf("last chunk: want 50 words, got %d", n)
	}
}

func TestChunkID(t *testing.T) {
	t.Parallel()
	a := ChunkID("cloud.txt", 0)
	if a != ChunkID("cloud.txt", 0) {
		t.Error("ChunkID must be deterministic")
	}
	if a == ChunkID("cloud.txt", 1) || a == ChunkID("edge.txt", 0) {
		t.Error("ChunkID must differ per source and index")
	}
	id, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("ChunkID is not a UUID: %v", err)
	}
	if id.Version() != 5 {
		t.Errorf("want version 5 UUID, got %d", id.Version())
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	t.Parallel()
	emb := &fakeEmbedder{dim: 3}

	if _, err := NewPipeline(nil, nil, &Config{CachePath: "x.json"}, nil); err == nil {
		t.Error("want error for nil embedder")
	}
	if _, err := NewPipeline(emb, nil, &Config{}, nil); err == nil {
		t.Error("want error for empty cache path")
	}
	if _, err := NewPipeline(emb, &fakeIndex{}, &Config{CachePath: "x.json"}, nil); err == nil {
		t.Error("want error for missing dimension with an index")
	}

	p, err := NewPipeline(emb, nil, &Config{CachePath: "x.json"}, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.cfg.IndexName != DefaultIndexName || p.cfg.ChunkWords != DefaultChunkWords {
		t.Errorf("defaults not applied: %+v", p.cfg)
	}
}

func TestPipeline_Ingest(t *testing.T) {
	t.Parallel()
	dir := writeDocs(t, map[string]string{
		"b_edge.txt":  words(10, "edge"),
		"a_cloud.txt": words(650, "cloud"),
		"notes.md":    "ignored",
		"empty.txt":   "   ",
	})
	cachePath := filepath.Join(t.TempDir(), "out", "local_vectors.json")

	emb := &fakeEmbedder{dim: 4}
	idx := &fakeIndex{}
	obs := &countingObserver{}
	p, err := NewPipeline(emb, idx, &Config{IndexName: "docs", Dimension: 4, CachePath: cachePath}, obs)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	var msgs []string
	sum, err := p.Ingest(context.Background(), dir, func(m string) { msgs = append(msgs, m) })
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if sum.Files != 2 || sum.Chunks != 4 {
		t.Errorf("summary: want 2 files / 4 chunks, got %+v", sum)
	}
	wantCalls := []string{"delete:docs", "create:docs", "upsert:docs:3", "upsert:docs:1"}
	if strings.Join(idx.calls, ",") != strings.Join(wantCalls, ",") {
		t.Errorf("index calls: want %v, got %v", wantCalls, idx.calls)
	}
	if idx.dim != 4 {
		t.Errorf("create dimension: want 4, got %d", idx.dim)
	}
	wantMsgs := []string{
		"ingested a_cloud.txt (3 chunks)",
		"ingested b_edge.txt (1 chunks)",
		"skipped empty.txt (empty)",
	}
	if strings.Join(msgs, "|") != strings.Join(wantMsgs, "|") {
		t.Errorf("progress: want %v, got %v", wantMsgs, msgs)
	}
	if obs.chunks["a_cloud.txt"] != 3 || obs.chunks["b_edge.txt"] != 1 {
		t.Errorf("observer: got %v", obs.chunks)
	}

	v := idx.vectors[0]
	if v.ID != ChunkID("a_cloud.txt", 0) || v.Metadata[MetaSource] != "a_cloud.txt" || v.Metadata[MetaText] == "" {
		t.Errorf("unexpected first vector: %+v", v)
	}

	c, err := cache.Load(cachePath)
	if err != nil {
		t.Fatalf("load written cache: %v", err)
	}
	if c.Len() != 4 || c.Dimension() != 4 {
		t.Fatalf("cache: want 4 records of dim 4, got %d of dim %d", c.Len(), c.Dimension())
	}
	if c.Record(0).Source != "a_cloud.txt" || c.Record(3).Source != "b_edge.txt" {
		t.Errorf("cache order: got %q .. %q", c.Record(0).Source, c.Record(3).Source)
	}
	if c.Record(2).Embedding[0] != 50 {
		t.Errorf("third chunk: want 50 words, got %v", c.Record(2).Embedding[0])
	}
}

func TestPipeline_IngestWithoutIndex(t *testing.T) {
	t.Parallel()
	dir := writeDocs(t, map[string]string{"doc.txt": "Cloud computing is on demand."})
	cachePath := filepath.Join(t.TempDir(), "vectors.db")

	p, err := NewPipeline(&fakeEmbedder{dim: 2}, nil, &Config{CachePath: cachePath}, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if _, err := p.Ingest(context.Background(), dir, nil); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	c, err := cache.Load(cachePath)
	if err != nil {
		t.Fatalf("load sqlite cache: %v", err)
	}
	if c.Len() != 1 || c.Record(0).Text != "Cloud computing is on demand." {
		t.Errorf("unexpected cache contents: %+v", c.Records())
	}
}

func TestPipeline_SkipReset(t *testing.T) {
	t.Parallel()
	dir := writeDocs(t, map[string]string{"doc.txt": "alpha beta"})
	idx := &fakeIndex{}
	p, err := NewPipeline(&fakeEmbedder{dim: 2}, idx, &Config{
		Dimension: 2,
		CachePath: filepath.Join(t.TempDir(), "c.json"),
		SkipReset: true,
	}, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if _, err := p.Ingest(context.Background(), dir, nil); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(idx.calls) != 1 || idx.calls[0] != "upsert:rag_index:1" {
		t.Errorf("want a single upsert, got %v", idx.calls)
	}
}

func TestPipeline_Errors(t *testing.T) {
	t.Parallel()

	t.Run("no documents", func(t *testing.T) {
		t.Parallel()
		dir := writeDocs(t, map[string]string{"readme.md": "x"})
		p, _ := NewPipeline(&fakeEmbedder{dim: 2}, nil, &Config{CachePath: filepath.Join(dir, "c.json")}, nil)
		_, err := p.Ingest(context.Background(), dir, nil)
		if !errors.Is(err, ErrNoDocuments) {
			t.Fatalf("want ErrNoDocuments, got %v", err)
		}
	})

	t.Run("missing dir", func(t *testing.T) {
		t.Parallel()
		p, _ := NewPipeline(&fakeEmbedder{dim: 2}, nil, &Config{CachePath: "c.json"}, nil)
		if _, err := p.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope"), nil); err == nil {
			t.Fatal("want error for missing directory")
		}
	})

	t.Run("embed failure leaves no cache", func(t *testing.T) {
		t.Parallel()
		dir := writeDocs(t, map[string]string{"doc.txt": "alpha"})
		cachePath := filepath.Join(t.TempDir(), "c.json")
		boom := errors.New("model offline")
		p, _ := NewPipeline(&fakeEmbedder{dim: 2, err: boom}, nil, &Config{CachePath: cachePath}, nil)

		_, err := p.Ingest(context.Background(), dir, nil)
		if !errors.Is(err, boom) {
			t.Fatalf("want wrapped embed error, got %v", err)
		}
		if _, statErr := os.Stat(cachePath); !os.IsNotExist(statErr) {
			t.Errorf("cache must not be written on failure, stat: %v", statErr)
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		t.Parallel()
		dir := writeDocs(t, map[string]string{"doc.txt": "alpha"})
		p, _ := NewPipeline(&fakeEmbedder{dim: 3}, &fakeIndex{}, &Config{
			Dimension: 384,
			CachePath: filepath.Join(t.TempDir(), "c.json"),
		}, nil)
		_, err := p.Ingest(context.Background(), dir, nil)
		if err == nil || !strings.Contains(err.Error(), "index expects 384") {
			t.Fatalf("want dimension error, got %v", err)
		}
	})
}
