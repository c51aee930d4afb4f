// Package health probes the external dependencies a ragqa command relies on:
// the embedding backend and the remote vector index.
package health

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/ragqa-go/internal/logging"
)

// probeTimeout is the maximum time allowed for each individual dependency
// probe. A local model load on first use can be slow, so callers that ping
// the local embedder should pass a longer timeout to Check.
const probeTimeout = 5 * time.Second

// Pinger is the interface implemented by any dependency that can report its
// own reachability. Each implementation must return nil when the dependency
// is healthy and a descriptive error otherwise.
type Pinger interface {
	// Ping checks whether the dependency is reachable within the given context.
	Ping(ctx context.Context) error

	// Name returns a short label used in reports (e.g. "ollama", "qdrant").
	Name() string
}

// Result holds the per-dependency outcome of a probe.
type Result struct {
	// Name is the dependency label.
	Name string `json:"name"`
	// OK is true when the dependency responded successfully.
	OK bool `json:"ok"`
	// Error contains the failure reason when OK is false.
	Error string `json:"error,omitempty"`
	// Latency is how long the probe took.
	Latency time.Duration `json:"latency"`
}

// Report is the combined outcome of Check.
type Report struct {
	// Healthy is true only when every probe succeeded.
	Healthy bool `json:"healthy"`
	// Checks contains the per-dependency results in probe order.
	Checks []Result `json:"checks"`
}

// Check probes each pinger sequentially with its own timeout (probeTimeout
// when timeout is zero) and collects every result; one failure does not
// stop the remaining probes.
func Check(ctx context.Context, timeout time.Duration, pingers ...Pinger) Report {
	if timeout <= 0 {
		timeout = probeTimeout
	}
	log := logging.FromContext(ctx)

	report := Report{Healthy: true}
	for _, p := range pingers {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		err := p.Ping(probeCtx)
		cancel()

		res := Result{Name: p.Name(), OK: err == nil, Latency: time.Since(start)}
		if err != nil {
			res.Error = err.Error()
			report.Healthy = false
			log.Warn("health: probe failed",
				slog.String("dependency", p.Name()),
				slog.Any("error", err),
			)
		}
		report.Checks = append(report.Checks, res)
	}
	return report
}

// Write prints one line per check followed by an overall verdict.
func (r Report) Write(w io.Writer) error {
	for _, c := range r.Checks {
		status := "ok"
		if !c.OK {
			status = "FAIL: " + c.Error
		}
		if _, err := fmt.Fprintf(w, "%-10s %-6s %s\n", c.Name, c.Latency.Round(time.Millisecond), status); err != nil {
			return err
		}
	}
	verdict := "healthy"
	if !r.Healthy {
		verdict = "unhealthy"
	}
	_, err := fmt.Fprintln(w, verdict)
	return err
}

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
type QdrantPinger struct {
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in reports.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// CachePinger reports whether the local vector cache loads.
type CachePinger struct {
	path string
	load func(path string) (int, error)
}

// NewCachePinger constructs a CachePinger. load returns the record count.
func NewCachePinger(path string, load func(path string) (int, error)) *CachePinger {
	return &CachePinger{path: path, load: load}
}

// Name returns the dependency label used in reports.
func (p *CachePinger) Name() string { return "cache" }

// Ping loads the cache and fails if it is unavailable.
func (p *CachePinger) Ping(_ context.Context) error {
	n, err := p.load(p.path)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s has no records, run ragqa ingest", p.path)
	}
	return nil
}
