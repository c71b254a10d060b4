// Package state implements the machine state table: a thread-safe in-memory
// map from machine ID to its latest known state, with ordered reads for
// deterministic presentation.
package state
