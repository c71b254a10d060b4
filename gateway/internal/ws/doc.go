// Package ws implements the broadcast hub for meshgate.
//
// Hub manages a set of connected observers. Each observer receives a full
// snapshot immediately on connect, then a full-state update after every
// state-table or ledger mutation — updates are republishes, not diffs.
//
// Message format sent to observers:
//
//	{
//	  "type":     "snapshot" | "update",
//	  "machines": [ { id, name, type, location, temperature, vibration,
//	                  load, status, channel, lastUpdate } ... ],
//	  "alerts":   [ { id, machineId, severity, description, timestamp } ... ]
//	}
//
// machines is sorted ascending by id; alerts is most-recent-first.
//
// A slow, broken, or disconnected observer is unregistered and closed
// without affecting delivery to other observers or the ingestion pipeline.
// The WebSocket endpoint is mounted at /ws by the gateway.
package ws
