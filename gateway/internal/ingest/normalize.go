package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Sample is a validated, well-typed sensor reading.
type Sample struct {
	MachineID   string
	Temperature float64
	Vibration   float64
	Load        float64

	// Descriptive fields; empty when the payload omits them.
	Name     string
	Type     string
	Location string
}

// ErrMissingMachineID marks a payload with no usable machine identifier.
var ErrMissingMachineID = errors.New("missing or empty machineId")

// Normalize validates and coerces a raw inbound reading. The machineId field
// must be a non-empty string; anything else rejects the whole message.
// Numeric fields are parsed permissively — JSON numbers and numeric-looking
// strings are both accepted — and an absent or unparsable value falls back to
// 0 rather than rejecting the message, since partial telemetry is still
// actionable. Non-finite values clamp to 0.
func Normalize(raw []byte) (Sample, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Sample{}, fmt.Errorf("decode reading: %w", err)
	}

	id, ok := payload["machineId"].(string)
	if !ok || id == "" {
		return Sample{}, ErrMissingMachineID
	}

	s := Sample{
		MachineID:   id,
		Temperature: numericField(payload, "temperature"),
		Vibration:   numericField(payload, "vibration"),
		Load:        numericField(payload, "load"),
	}
	s.Name, _ = payload["name"].(string)
	s.Type, _ = payload["type"].(string)
	s.Location, _ = payload["location"].(string)
	return s, nil
}

// numericField extracts a float from the payload, accepting numbers and
// numeric strings. Missing, malformed, or non-finite values become 0.
func numericField(payload map[string]interface{}, key string) float64 {
	var v float64
	switch raw := payload[key].(type) {
	case float64:
		v = raw
	case string:
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0
		}
		v = parsed
	default:
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
