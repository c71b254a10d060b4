package liveness

import (
	"context"
	"log/slog"
	"time"

	"github.com/meshgate/meshgate/gateway/internal/ingest"
)

// Monitor periodically demotes machines with no recent sample to offline.
// It runs independently of the ingestion path but writes through the same
// pipeline, so the single-writer discipline holds.
type Monitor struct {
	pipe    *ingest.Pipeline
	timeout time.Duration
	period  time.Duration
	now     func() time.Time // injectable for deterministic tests
}

// New creates a Monitor that declares a machine offline after timeout of
// silence, scanning every period.
func New(pipe *ingest.Pipeline, timeout, period time.Duration) *Monitor {
	return &Monitor{
		pipe:    pipe,
		timeout: timeout,
		period:  period,
		now:     time.Now,
	}
}

// Run starts the sweep loop. It blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	t := time.NewTicker(m.period)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				slog.Info("liveness: machines demoted to offline", "count", n)
			}
		}
	}
}

// Sweep runs one liveness pass and returns the number of machines demoted.
func (m *Monitor) Sweep() int {
	return m.pipe.MarkOffline(m.now().Add(-m.timeout))
}
