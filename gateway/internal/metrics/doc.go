// Package metrics exposes the gateway's internal counters in Prometheus text
// exposition format on GET /metrics.
package metrics
