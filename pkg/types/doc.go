// Package types defines the shared Go types used by both the gateway and
// observer clients. These are the canonical in-memory representations of
// machine telemetry state, matching the JSON wire format field for field.
package types
