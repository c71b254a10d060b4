package classify

import (
	"fmt"

	"github.com/meshgate/meshgate/pkg/types"
)

// Tier is the severity classification of a single metric value.
type Tier int

const (
	TierOK Tier = iota
	TierWarning
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierWarning:
		return "warning"
	case TierCritical:
		return "critical"
	default:
		return "ok"
	}
}

// Thresholds are the warning and critical levels per metric. A value is
// classified warning when strictly above the warning level and critical when
// strictly above the critical level.
type Thresholds struct {
	TemperatureWarning  float64
	TemperatureCritical float64
	VibrationWarning    float64
	VibrationCritical   float64
	LoadWarning         float64
	LoadCritical        float64
}

// Defaults returns the documented policy constants: temperature 70/80 °C,
// vibration 7/10 mm/s, load 85/95 %.
func Defaults() Thresholds {
	return Thresholds{
		TemperatureWarning:  70,
		TemperatureCritical: 80,
		VibrationWarning:    7,
		VibrationCritical:   10,
		LoadWarning:         85,
		LoadCritical:        95,
	}
}

// Metrics are the three observed values for one machine.
type Metrics struct {
	Temperature float64
	Vibration   float64
	Load        float64
}

// Draft is a newly raised alert before the ledger assigns its ID and
// timestamp.
type Draft struct {
	Severity    types.Severity
	Description string
}

// TierOf classifies a single value against its warning and critical levels.
func TierOf(v, warn, crit float64) Tier {
	switch {
	case v > crit:
		return TierCritical
	case v > warn:
		return TierWarning
	default:
		return TierOK
	}
}

// Classify maps a machine's new metrics to an overall status and to the
// alerts newly raised by this sample. It is pure and deterministic: replaying
// an identical sample sequence from a cold state yields identical statuses
// and alerts.
//
// Status precedence: any critical metric makes the machine critical, else any
// warning metric makes it warning, else ok. Offline is never produced here —
// it is the exclusive output of the liveness monitor.
//
// Alerts are edge-triggered: a draft is produced only when an individual
// metric's tier rises relative to its tier under the previous values, so a
// sustained breach raises one alert per crossing rather than one per sample.
// Downward transitions never raise alerts.
func Classify(prev, next Metrics, th Thresholds) (types.Status, []Draft) {
	checks := []struct {
		name       string
		prev, next float64
		warn, crit float64
	}{
		{"temperature", prev.Temperature, next.Temperature, th.TemperatureWarning, th.TemperatureCritical},
		{"vibration", prev.Vibration, next.Vibration, th.VibrationWarning, th.VibrationCritical},
		{"load", prev.Load, next.Load, th.LoadWarning, th.LoadCritical},
	}

	worst := TierOK
	var drafts []Draft

	for _, c := range checks {
		tier := TierOf(c.next, c.warn, c.crit)
		if tier > worst {
			worst = tier
		}
		if tier > TierOf(c.prev, c.warn, c.crit) && tier > TierOK {
			drafts = append(drafts, Draft{
				Severity:    severityFor(tier),
				Description: fmt.Sprintf("%s rose above %s threshold (%.1f)", c.name, tier, c.next),
			})
		}
	}

	return statusFor(worst), drafts
}

func statusFor(t Tier) types.Status {
	switch t {
	case TierCritical:
		return types.StatusCritical
	case TierWarning:
		return types.StatusWarning
	default:
		return types.StatusOK
	}
}

// severityFor maps a metric tier to its alert severity: warning crossings are
// medium, critical crossings are high.
func severityFor(t Tier) types.Severity {
	if t == TierCritical {
		return types.SeverityHigh
	}
	return types.SeverityMedium
}
