package metrics

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Counters are the gateway's self-metrics. All fields are safe for
// concurrent use.
type Counters struct {
	SamplesAccepted    atomic.Int64
	SamplesRejected    atomic.Int64
	AlertsRaised       atomic.Int64
	BroadcastsSent     atomic.Int64
	ObserversConnected atomic.Int64 // gauge: current connections
}

// NewCounters returns a zeroed Counters.
func NewCounters() *Counters {
	return &Counters{}
}

// Handler serves the counters in Prometheus text exposition format.
func (c *Counters) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		families := []*dto.MetricFamily{
			counterFamily("meshgate_samples_accepted_total",
				"Sensor readings accepted by the normalizer.", c.SamplesAccepted.Load()),
			counterFamily("meshgate_samples_rejected_total",
				"Sensor readings rejected as malformed.", c.SamplesRejected.Load()),
			counterFamily("meshgate_alerts_raised_total",
				"Alerts appended to the ledger.", c.AlertsRaised.Load()),
			counterFamily("meshgate_broadcasts_sent_total",
				"Full-state messages published to observers.", c.BroadcastsSent.Load()),
			gaugeFamily("meshgate_observers_connected",
				"Currently connected observer clients.", c.ObserversConnected.Load()),
		}

		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				slog.Error("metrics: encode failed", "family", mf.GetName(), "err", err)
				return
			}
		}
	})
}

func counterFamily(name, help string, v int64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: strPtr(name),
		Help: strPtr(help),
		Type: typePtr(dto.MetricType_COUNTER),
		Metric: []*dto.Metric{{
			Counter: &dto.Counter{Value: f64Ptr(float64(v))},
		}},
	}
}

func gaugeFamily(name, help string, v int64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: strPtr(name),
		Help: strPtr(help),
		Type: typePtr(dto.MetricType_GAUGE),
		Metric: []*dto.Metric{{
			Gauge: &dto.Gauge{Value: f64Ptr(float64(v))},
		}},
	}
}

func strPtr(s string) *string                  { return &s }
func f64Ptr(f float64) *float64                { return &f }
func typePtr(t dto.MetricType) *dto.MetricType { return &t }
