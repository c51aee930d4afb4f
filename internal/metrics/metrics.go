// Package metrics registers the Prometheus metrics recorded by ragqa
// commands. A CLI process has no scrape endpoint, so metrics are written to a
// text file in the exposition format after each command (suitable for the
// node_exporter textfile collector).
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/54b3r/ragqa-go/internal/query"
)

// Metrics holds every collector owned by ragqa. It satisfies both
// query.Observer and ingestion.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	// queriesTotal counts answered questions partitioned by outcome:
	// answered, below_floor, filtered, empty_cache, error.
	queriesTotal *prometheus.CounterVec

	// bestScore records the best similarity of each question.
	bestScore prometheus.Histogram

	// contextsReturned records how many passages qualified as context.
	contextsReturned prometheus.Histogram

	// queryDurationSeconds records end-to-end question latency.
	queryDurationSeconds prometheus.Histogram

	// ingestedChunksTotal counts chunks written during ingestion.
	ingestedChunksTotal prometheus.Counter

	// ingestedFilesTotal counts documents written during ingestion.
	ingestedFilesTotal prometheus.Counter
}

// New registers all metrics against reg. promauto.With(reg) keeps each
// registry isolated so tests stay hermetic.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ragqa",
			Subsystem: "query",
			Name:      "questions_total",
			Help:      "Total number of questions processed, partitioned by outcome.",
		}, []string{"outcome"}),

		bestScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ragqa",
			Subsystem: "query",
			Name:      "best_score",
			Help:      "Best cosine similarity per question (-1 for an empty cache).",
			Buckets:   []float64{-0.5, 0, 0.1, 0.2, 0.3, 0.4, 0.55, 0.7, 0.85, 1},
		}),

		contextsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ragqa",
			Subsystem: "query",
			Name:      "contexts_returned",
			Help:      "Number of passages that qualified as context per question.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),

		queryDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ragqa",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of a question from embedding to answer.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		ingestedChunksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ragqa",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total number of document chunks embedded and indexed.",
		}),

		ingestedFilesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ragqa",
			Subsystem: "ingest",
			Name:      "files_total",
			Help:      "Total number of documents ingested.",
		}),
	}
}

// ObserveQuery records the outcome of one question. Failed questions have no
// meaningful score, so only the counter moves for query.OutcomeError.
func (m *Metrics) ObserveQuery(outcome string, bestScore float64, contexts int) {
	m.queriesTotal.WithLabelValues(outcome).Inc()
	if outcome == query.OutcomeError {
		return
	}
	m.bestScore.Observe(bestScore)
	m.contextsReturned.Observe(float64(contexts))
}

// ObserveDuration records the latency of one question.
func (m *Metrics) ObserveDuration(d time.Duration) {
	m.queryDurationSeconds.Observe(d.Seconds())
}

// ObserveIngest records one ingested document.
func (m *Metrics) ObserveIngest(_ string, chunks int) {
	m.ingestedFilesTotal.Inc()
	m.ingestedChunksTotal.Add(float64(chunks))
}

// WriteFile writes every gathered metric to path in the Prometheus text
// format. The write is atomic.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
