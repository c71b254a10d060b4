// Package ledger implements the bounded alert history. Capacity eviction is
// oldest-first and deterministic; it is not an error condition.
package ledger
