package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// endeeRecorder captures requests sent to a fake Endee server.
type endeeRecorder struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]any
	auth   []string
	status map[string]int
}

func newEndeeServer(t *testing.T, rec *endeeRecorder) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		rec.mu.Lock()
		rec.paths = append(rec.paths, r.URL.Path)
		rec.bodies = append(rec.bodies, body)
		rec.auth = append(rec.auth, r.Header.Get("Authorization"))
		status := rec.status[r.URL.Path]
		rec.mu.Unlock()

		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEndee_CreateDeleteUpsert(t *testing.T) {
	t.Parallel()
	rec := &endeeRecorder{}
	srv := newEndeeServer(t, rec)

	idx := NewEndeeIndex(&EndeeConfig{URL: srv.URL + "/", APIKey: "secret"})
	ctx := context.Background()

	if err := idx.DeleteIndex(ctx, "rag_index"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := idx.CreateIndex(ctx, "rag_index", 384); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := idx.Upsert(ctx, "rag_index", []Vector{{
		ID:       "9b2e4f7a-0000-5000-8000-000000000000",
		Values:   []float32{0.5, 1},
		Metadata: map[string]string{"text": "chunk", "source": "a.txt"},
	}})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	wantPaths := []string{"/api/v1/index/delete", "/api/v1/index/create", "/api/v1/vector/upsert"}
	if strings.Join(rec.paths, ",") != strings.Join(wantPaths, ",") {
		t.Fatalf("paths: got %v, want %v", rec.paths, wantPaths)
	}
	if got := rec.bodies[1]["dimension"]; got != float64(384) {
		t.Errorf("create dimension: got %v, want 384", got)
	}
	if got := rec.bodies[2]["index"]; got != "rag_index" {
		t.Errorf("upsert index: got %v", got)
	}
	vectors, ok := rec.bodies[2]["vectors"].([]any)
	if !ok || len(vectors) != 1 {
		t.Fatalf("upsert vectors: got %v", rec.bodies[2]["vectors"])
	}
	meta := vectors[0].(map[string]any)["metadata"].(map[string]any)
	if meta["text"] != "chunk" || meta["source"] != "a.txt" {
		t.Errorf("metadata: got %v", meta)
	}
	for i, a := range rec.auth {
		if a != "Bearer secret" {
			t.Errorf("request %d auth header: got %q", i, a)
		}
	}
}

func TestEndee_DeleteMissingIsNotError(t *testing.T) {
	t.Parallel()
	rec := &endeeRecorder{status: map[string]int{"/api/v1/index/delete": http.StatusNotFound}}
	srv := newEndeeServer(t, rec)

	if err := NewEndeeIndex(&EndeeConfig{URL: srv.URL}).DeleteIndex(context.Background(), "gone"); err != nil {
		t.Fatalf("want nil error for 404 delete, got %v", err)
	}
}

func TestEndee_ErrorStatus(t *testing.T) {
	t.Parallel()
	rec := &endeeRecorder{status: map[string]int{"/api/v1/vector/upsert": http.StatusInternalServerError}}
	srv := newEndeeServer(t, rec)

	err := NewEndeeIndex(&EndeeConfig{URL: srv.URL}).Upsert(context.Background(), "i", []Vector{{ID: "x"}})
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Fatalf("want HTTP 500 error, got %v", err)
	}
}

func TestEndee_InvalidDimension(t *testing.T) {
	t.Parallel()
	if err := NewEndeeIndex(&EndeeConfig{}).CreateIndex(context.Background(), "i", 0); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestEndee_EmptyUpsertSkipsRequest(t *testing.T) {
	t.Parallel()
	rec := &endeeRecorder{}
	srv := newEndeeServer(t, rec)

	if err := NewEndeeIndex(&EndeeConfig{URL: srv.URL}).Upsert(context.Background(), "i", nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(rec.paths) != 0 {
		t.Errorf("want no requests, got %v", rec.paths)
	}
}
