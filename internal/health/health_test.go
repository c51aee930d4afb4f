package health

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakePinger is a test double for the Pinger interface.
type fakePinger struct {
	name  string
	err   error
	delay time.Duration
}

func (f *fakePinger) Name() string { return f.name }

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestCheck_AllHealthy(t *testing.T) {
	t.Parallel()
	r := Check(context.Background(), 0, &fakePinger{name: "local"}, &fakePinger{name: "endee"})

	if !r.Healthy {
		t.Fatal("want healthy report")
	}
	if len(r.Checks) != 2 || r.Checks[0].Name != "local" || r.Checks[1].Name != "endee" {
		t.Errorf("unexpected checks: %+v", r.Checks)
	}
}

func TestCheck_FailureDoesNotStopProbes(t *testing.T) {
	t.Parallel()
	r := Check(context.Background(), 0,
		&fakePinger{name: "ollama", err: errors.New("connection refused")},
		&fakePinger{name: "qdrant"},
	)

	if r.Healthy {
		t.Fatal("want unhealthy report")
	}
	if len(r.Checks) != 2 {
		t.Fatalf("want 2 checks, got %d", len(r.Checks))
	}
	if r.Checks[0].OK || r.Checks[0].Error != "connection refused" {
		t.Errorf("first check: %+v", r.Checks[0])
	}
	if !r.Checks[1].OK {
		t.Errorf("second check should still run and pass: %+v", r.Checks[1])
	}
}

func TestCheck_Timeout(t *testing.T) {
	t.Parallel()
	r := Check(context.Background(), 20*time.Millisecond, &fakePinger{name: "slow", delay: time.Second})
	if r.Healthy {
		t.Fatal("slow probe should time out")
	}
	if !strings.Contains(r.Checks[0].Error, "deadline exceeded") {
		t.Errorf("want deadline error, got %q", r.Checks[0].Error)
	}
}

func TestReport_Write(t *testing.T) {
	t.Parallel()
	r := Report{
		Healthy: false,
		Checks: []Result{
			{Name: "local", OK: true},
			{Name: "endee", OK: false, Error: "HTTP 503"},
		},
	}
	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"local", "ok", "endee", "FAIL: HTTP 503", "unhealthy"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestCachePinger(t *testing.T) {
	t.Parallel()

	ok := NewCachePinger("v.json", func(string) (int, error) { return 3, nil })
	if err := ok.Ping(context.Background()); err != nil {
		t.Errorf("want healthy cache, got %v", err)
	}

	empty := NewCachePinger("v.json", func(string) (int, error) { return 0, nil })
	if err := empty.Ping(context.Background()); err == nil {
		t.Error("want error for empty cache")
	}

	boom := errors.New("cache unavailable")
	broken := NewCachePinger("v.json", func(string) (int, error) { return 0, boom })
	if err := broken.Ping(context.Background()); !errors.Is(err, boom) {
		t.Errorf("want load error, got %v", err)
	}
	if broken.Name() != "cache" {
		t.Errorf("name: got %q", broken.Name())
	}
}
