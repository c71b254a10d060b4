package ledger

import (
	"sync"
	"time"

	"github.com/meshgate/meshgate/pkg/types"
)

// Ledger is a bounded, most-recent-first store of alerts. Appends assign
// monotonically increasing IDs; once capacity is reached the oldest alert is
// evicted, strictly FIFO by creation order regardless of severity. Alerts are
// never mutated after creation.
type Ledger struct {
	mu       sync.RWMutex
	alerts   []types.Alert // index 0 is the most recent
	capacity int
	nextID   int64
	now      func() time.Time // injectable for deterministic tests
}

// New creates a Ledger holding at most capacity alerts.
func New(capacity int) *Ledger {
	return &Ledger{
		alerts:   make([]types.Alert, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Append creates an alert with the next ID and the current timestamp,
// inserts it at the front, and evicts the oldest entry if over capacity.
// It returns the created alert.
func (l *Ledger) Append(machineID string, severity types.Severity, description string) types.Alert {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	a := types.Alert{
		ID:          l.nextID,
		MachineID:   machineID,
		Severity:    severity,
		Description: description,
		Timestamp:   l.now(),
	}

	l.alerts = append(l.alerts, types.Alert{})
	copy(l.alerts[1:], l.alerts)
	l.alerts[0] = a
	if len(l.alerts) > l.capacity {
		l.alerts = l.alerts[:l.capacity]
	}
	return a
}

// All returns a copy of the current alerts in recency order (newest first).
func (l *Ledger) All() []types.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]types.Alert, len(l.alerts))
	copy(out, l.alerts)
	return out
}

// Len returns the number of alerts currently retained.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.alerts)
}
