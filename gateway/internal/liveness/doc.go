// Package liveness sweeps the state table on a fixed period and demotes
// machines whose last accepted sample is older than the offline timeout.
// Offline is cleared by the next accepted sample, not by the monitor.
package liveness
