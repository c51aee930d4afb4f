package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/54b3r/ragqa-go/internal/query"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func TestMetrics_QueryOutcomes(t *testing.T) {
	t.Parallel()
	m, reg := newTestMetrics(t)

	m.ObserveQuery(query.OutcomeAnswered, 0.91, 2)
	m.ObserveQuery(query.OutcomeAnswered, 0.72, 1)
	m.ObserveQuery(query.OutcomeBelowFloor, 0.12, 0)
	m.ObserveQuery(query.OutcomeError, 0, 0)

	if got := testutil.ToFloat64(m.queriesTotal.WithLabelValues(query.OutcomeAnswered)); got != 2 {
		t.Errorf("answered: want 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.queriesTotal.WithLabelValues(query.OutcomeBelowFloor)); got != 1 {
		t.Errorf("below_floor: want 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.queriesTotal.WithLabelValues(query.OutcomeError)); got != 1 {
		t.Errorf("error: want 1, got %v", got)
	}
	if got := histogramSamples(t, reg, "ragqa_query_best_score"); got != 3 {
		t.Errorf("best_score: want 3 samples (errors excluded), got %d", got)
	}
	if got := histogramSamples(t, reg, "ragqa_query_contexts_returned"); got != 3 {
		t.Errorf("contexts_returned: want 3 samples (errors excluded), got %d", got)
	}
}

// histogramSamples returns the sample count of the named histogram in reg.
func histogramSamples(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("histogram %s not found", name)
	return 0
}

func TestMetrics_Ingest(t *testing.T) {
	t.Parallel()
	m, _ := newTestMetrics(t)

	m.ObserveIngest("a.txt", 3)
	m.ObserveIngest("b.txt", 1)

	if got := testutil.ToFloat64(m.ingestedChunksTotal); got != 4 {
		t.Errorf("chunks: want 4, got %v", got)
	}
	if got := testutil.ToFloat64(m.ingestedFilesTotal); got != 2 {
		t.Errorf("files: want 2, got %v", got)
	}
}

func TestMetrics_WriteFile(t *testing.T) {
	t.Parallel()
	m, _ := newTestMetrics(t)
	m.ObserveQuery("answered", 0.8, 1)
	m.ObserveDuration(150 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "ragqa.prom")
	if err := m.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`ragqa_query_questions_total{outcome="answered"} 1`,
		"ragqa_query_best_score_bucket",
		"ragqa_query_duration_seconds_count 1",
		"ragqa_ingest_chunks_total 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics file missing %q", want)
		}
	}
}

func TestMetrics_WriteFileBadPath(t *testing.T) {
	t.Parallel()
	m, _ := newTestMetrics(t)
	if err := m.WriteFile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")); err == nil {
		t.Error("want error for unwritable path")
	}
}
