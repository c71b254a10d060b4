package liveness

import (
	"context"
	"testing"
	"time"

	"github.com/meshgate/meshgate/gateway/internal/classify"
	"github.com/meshgate/meshgate/gateway/internal/ingest"
	"github.com/meshgate/meshgate/gateway/internal/ledger"
	"github.com/meshgate/meshgate/gateway/internal/metrics"
	"github.com/meshgate/meshgate/gateway/internal/state"
	"github.com/meshgate/meshgate/pkg/types"
)

func newFixture(t *testing.T) (*ingest.Pipeline, *state.Table, *ledger.Ledger) {
	t.Helper()
	table := state.New()
	led := ledger.New(50)
	pipe := ingest.NewPipeline(table, led, nil, classify.Defaults(), metrics.NewCounters())
	return pipe, table, led
}

func TestSweep_DemotesSilentMachine(t *testing.T) {
	pipe, table, led := newFixture(t)
	pipe.Apply(ingest.Sample{MachineID: "m1", Temperature: 50}, types.ChannelMesh)

	m := New(pipe, 30*time.Second, time.Second)
	// Advance the monitor's clock past the offline timeout.
	m.now = func() time.Time { return time.Now().Add(time.Minute) }

	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep: got %d demotions, want 1", n)
	}
	got, _ := table.Get("m1")
	if got.Status != types.StatusOffline {
		t.Errorf("Status: got %v, want offline", got.Status)
	}
	if led.Len() != 1 || led.All()[0].Severity != types.SeverityHigh {
		t.Errorf("offline alert: got %+v", led.All())
	}

	// Repeated sweeps must not stack alerts for an already-offline machine.
	m.Sweep()
	m.Sweep()
	if led.Len() != 1 {
		t.Errorf("alerts after repeated sweeps: got %d, want 1", led.Len())
	}
}

func TestSweep_FreshMachineUntouched(t *testing.T) {
	pipe, table, _ := newFixture(t)
	pipe.Apply(ingest.Sample{MachineID: "m1", Temperature: 50}, types.ChannelMesh)

	m := New(pipe, 30*time.Second, time.Second)
	if n := m.Sweep(); n != 0 {
		t.Fatalf("Sweep: got %d demotions, want 0", n)
	}
	got, _ := table.Get("m1")
	if got.Status != types.StatusOK {
		t.Errorf("Status: got %v, want ok", got.Status)
	}
}

func TestSweep_RecoveryReclassifies(t *testing.T) {
	pipe, table, _ := newFixture(t)
	pipe.Apply(ingest.Sample{MachineID: "m1", Temperature: 50}, types.ChannelMesh)

	m := New(pipe, 30*time.Second, time.Second)
	m.now = func() time.Time { return time.Now().Add(time.Minute) }
	m.Sweep()

	// A new sample clears offline and re-enters metric classification.
	pipe.Apply(ingest.Sample{MachineID: "m1", Temperature: 85}, types.ChannelMesh)
	got, _ := table.Get("m1")
	if got.Status != types.StatusCritical {
		t.Errorf("Status after recovery sample: got %v, want critical", got.Status)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	pipe, _, _ := newFixture(t)
	m := New(pipe, 30*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
