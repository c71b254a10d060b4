package types

import "time"

// Status is the severity tier of a machine.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusOffline  Status = "offline"
)

// Severity of an alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Channel tags identifying the transport a reading arrived on.
const (
	ChannelMesh = "Mesh"
	ChannelHTTP = "HTTP"
)

// Machine is the latest known state of one machine, keyed by ID.
// Status is always derived from the three metrics plus the liveness window;
// it is never set independently of the classification rule.
type Machine struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Temperature float64   `json:"temperature"`
	Vibration   float64   `json:"vibration"`
	Load        float64   `json:"load"`
	Status      Status    `json:"status"`
	Channel     string    `json:"channel"`
	LastUpdate  time.Time `json:"lastUpdate"`
}

// Alert is immutable once created. IDs increase monotonically for the
// lifetime of the process and are never reused.
type Alert struct {
	ID          int64     `json:"id"`
	MachineID   string    `json:"machineId"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Broadcast message types.
const (
	MessageSnapshot = "snapshot"
	MessageUpdate   = "update"
)

// BroadcastMessage is the wire unit pushed to observers. Both message types
// carry the complete current state: an update is a full-state republish, not
// a diff. Machines are sorted ascending by ID, alerts are most-recent-first.
type BroadcastMessage struct {
	Type     string    `json:"type"`
	Machines []Machine `json:"machines"`
	Alerts   []Alert   `json:"alerts"`
}
