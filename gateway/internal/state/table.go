package state

import (
	"sort"
	"sync"
	"time"

	"github.com/meshgate/meshgate/pkg/types"
)

// Table is the authoritative in-memory map from machine ID to its latest
// known state. All mutation is serialized behind the mutex, so readers never
// observe a partially updated machine. Entries are created on the first
// sample for an ID and never deleted — a permanently silent machine sits at
// offline indefinitely.
type Table struct {
	mu   sync.RWMutex
	data map[string]types.Machine
	now  func() time.Time // injectable for deterministic tests
}

// New creates an empty Table.
func New() *Table {
	return &Table{
		data: make(map[string]types.Machine),
		now:  time.Now,
	}
}

// Upsert replaces the stored state for m.ID, creating the entry if absent,
// and stamps LastUpdate.
func (t *Table) Upsert(m types.Machine) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m.LastUpdate = t.now()
	t.data[m.ID] = m
}

// Get returns the machine for the given ID and whether an entry was found.
func (t *Table) Get(id string) (types.Machine, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.data[id]
	return m, ok
}

// All returns a copy of every machine, sorted ascending by ID for
// deterministic presentation.
func (t *Table) All() []types.Machine {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.Machine, 0, len(t.data))
	for _, m := range t.data {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of known machines.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}

// Stale returns the IDs of machines that are not already offline and whose
// LastUpdate is before cutoff, sorted ascending for deterministic sweeps.
func (t *Table) Stale(cutoff time.Time) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for id, m := range t.data {
		if m.Status != types.StatusOffline && m.LastUpdate.Before(cutoff) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// SetStatus overwrites the status of the machine with the given ID without
// touching LastUpdate, so a demoted machine is not mistaken for a live one.
// It reports whether the entry existed.
func (t *Table) SetStatus(id string, status types.Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.data[id]
	if !ok {
		return false
	}
	m.Status = status
	t.data[id] = m
	return true
}
