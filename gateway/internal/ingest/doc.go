// Package ingest implements the reading normalizer, the single-writer
// pipeline that applies samples to the state table and alert ledger, and the
// MQTT mesh transport source.
//
// Data flow: raw reading → Normalize → Pipeline.Apply (classify, upsert,
// append alerts) → broadcast. The liveness monitor writes through the same
// pipeline under the same lock.
package ingest
