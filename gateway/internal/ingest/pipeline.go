package ingest

import (
	"log/slog"
	"sync"
	"time"

	"github.com/meshgate/meshgate/gateway/internal/classify"
	"github.com/meshgate/meshgate/gateway/internal/ledger"
	"github.com/meshgate/meshgate/gateway/internal/metrics"
	"github.com/meshgate/meshgate/gateway/internal/state"
	"github.com/meshgate/meshgate/pkg/types"
)

// placeholder fills descriptive fields the payload never supplied.
const placeholder = "N/A"

// Broadcaster pushes a full-state update to every registered observer. It
// must never block on a slow consumer.
type Broadcaster interface {
	Broadcast()
}

// Pipeline applies accepted samples to the state table and ledger and
// triggers a broadcast after every mutation. Ingestion and the liveness
// sweep both write through the pipeline, serialized by its mutex, so there
// is a single logical writer at any time and broadcasts always read
// fully-applied state.
type Pipeline struct {
	table    *state.Table
	ledger   *ledger.Ledger
	bcast    Broadcaster
	counters *metrics.Counters

	mu sync.Mutex
	th classify.Thresholds
}

// NewPipeline wires the pipeline to its owned registries. bcast may be nil
// (no observers, used in tests).
func NewPipeline(table *state.Table, led *ledger.Ledger, bcast Broadcaster, th classify.Thresholds, counters *metrics.Counters) *Pipeline {
	return &Pipeline{
		table:    table,
		ledger:   led,
		bcast:    bcast,
		counters: counters,
		th:       th,
	}
}

// SetThresholds swaps the classification thresholds. Used by config hot
// reload; takes effect from the next sample.
func (p *Pipeline) SetThresholds(th classify.Thresholds) {
	p.mu.Lock()
	p.th = th
	p.mu.Unlock()
	slog.Info("pipeline: thresholds updated",
		"temperature", th.TemperatureCritical,
		"vibration", th.VibrationCritical,
		"load", th.LoadCritical,
	)
}

// HandleRaw normalizes one raw reading and applies it. Malformed input is
// counted, logged, and dropped — the ingestion loop continues and shared
// state is never touched by a rejected message. The rejection is returned so
// transport handlers can surface it.
func (p *Pipeline) HandleRaw(raw []byte, channel string) error {
	s, err := Normalize(raw)
	if err != nil {
		p.counters.SamplesRejected.Add(1)
		slog.Warn("ingest: reading rejected", "channel", channel, "err", err)
		return err
	}
	p.Apply(s, channel)
	return nil
}

// Apply classifies the sample against the machine's previous values, writes
// the new state, appends any newly raised alerts, and broadcasts one update.
func (p *Pipeline) Apply(s Sample, channel string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev, known := p.table.Get(s.MachineID)
	prevMetrics := classify.Metrics{
		Temperature: prev.Temperature,
		Vibration:   prev.Vibration,
		Load:        prev.Load,
	}
	nextMetrics := classify.Metrics{
		Temperature: s.Temperature,
		Vibration:   s.Vibration,
		Load:        s.Load,
	}

	status, drafts := classify.Classify(prevMetrics, nextMetrics, p.th)

	m := prev
	if !known {
		m = types.Machine{
			ID:       s.MachineID,
			Name:     s.MachineID,
			Type:     placeholder,
			Location: placeholder,
		}
	}
	if s.Name != "" {
		m.Name = s.Name
	}
	if s.Type != "" {
		m.Type = s.Type
	}
	if s.Location != "" {
		m.Location = s.Location
	}
	m.Temperature = s.Temperature
	m.Vibration = s.Vibration
	m.Load = s.Load
	m.Status = status
	m.Channel = channel

	p.table.Upsert(m)
	p.counters.SamplesAccepted.Add(1)

	for _, d := range drafts {
		a := p.ledger.Append(s.MachineID, d.Severity, d.Description)
		p.counters.AlertsRaised.Add(1)
		slog.Info("alert raised",
			"alert_id", a.ID,
			"machine", s.MachineID,
			"severity", a.Severity,
			"description", a.Description,
		)
	}

	if status == types.StatusWarning || status == types.StatusCritical {
		slog.Warn("machine above threshold",
			"machine", s.MachineID,
			"status", status,
			"temperature", s.Temperature,
			"vibration", s.Vibration,
			"load", s.Load,
		)
	}

	p.publish()
}

// MarkOffline demotes every machine whose last update is before cutoff and
// that is not already offline, appending one high-severity alert per
// transition. One update is broadcast if anything changed. It returns the
// number of machines demoted.
func (p *Pipeline) MarkOffline(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	stale := p.table.Stale(cutoff)
	for _, id := range stale {
		p.table.SetStatus(id, types.StatusOffline)
		a := p.ledger.Append(id, types.SeverityHigh, "lost communication with machine")
		p.counters.AlertsRaised.Add(1)
		slog.Warn("machine offline", "machine", id, "alert_id", a.ID)
	}
	if len(stale) > 0 {
		p.publish()
	}
	return len(stale)
}

// Snapshot builds a full-state message of the given type from the current
// table and ledger contents. Machines are sorted ascending by ID, alerts are
// most-recent-first.
func (p *Pipeline) Snapshot(msgType string) types.BroadcastMessage {
	return types.BroadcastMessage{
		Type:     msgType,
		Machines: p.table.All(),
		Alerts:   p.ledger.All(),
	}
}

// publish triggers a broadcast. The hub builds the message from the table
// and ledger, which are fully updated before this point; its fan-out never
// blocks, so the write lock is held only for bounded work.
func (p *Pipeline) publish() {
	if p.bcast == nil {
		return
	}
	p.bcast.Broadcast()
	p.counters.BroadcastsSent.Add(1)
}
