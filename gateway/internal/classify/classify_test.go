package classify

import (
	"strings"
	"testing"

	"github.com/meshgate/meshgate/pkg/types"
)

func TestTierOf(t *testing.T) {
	cases := []struct {
		v, warn, crit float64
		want          Tier
	}{
		{50, 70, 80, TierOK},
		{70, 70, 80, TierOK}, // boundary is exclusive
		{71, 70, 80, TierWarning},
		{80, 70, 80, TierWarning},
		{81, 70, 80, TierCritical},
		{999, 70, 80, TierCritical},
	}
	for _, c := range cases {
		if got := TierOf(c.v, c.warn, c.crit); got != c.want {
			t.Errorf("TierOf(%.0f, %.0f, %.0f): got %v, want %v", c.v, c.warn, c.crit, got, c.want)
		}
	}
}

func TestClassify_StatusPrecedence(t *testing.T) {
	th := Defaults()
	cases := []struct {
		name string
		m    Metrics
		want types.Status
	}{
		{"all nominal", Metrics{Temperature: 50, Vibration: 2, Load: 40}, types.StatusOK},
		{"one warning", Metrics{Temperature: 75, Vibration: 2, Load: 40}, types.StatusWarning},
		{"one critical", Metrics{Temperature: 50, Vibration: 11, Load: 40}, types.StatusCritical},
		{"critical beats warning", Metrics{Temperature: 75, Vibration: 2, Load: 96}, types.StatusCritical},
		{"all critical", Metrics{Temperature: 81, Vibration: 11, Load: 96}, types.StatusCritical},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _ := Classify(Metrics{}, c.m, th)
			if got != c.want {
				t.Errorf("status: got %v, want %v", got, c.want)
			}
		})
	}
}

func TestClassify_NeverOffline(t *testing.T) {
	status, _ := Classify(Metrics{}, Metrics{}, Defaults())
	if status == types.StatusOffline {
		t.Fatal("classification produced offline; offline belongs to the liveness monitor")
	}
}

func TestClassify_EdgeTriggered_UpwardOnly(t *testing.T) {
	th := Defaults()

	// First crossing raises exactly one high alert naming the metric.
	hot := Metrics{Temperature: 92, Vibration: 2, Load: 40}
	status, drafts := Classify(Metrics{}, hot, th)
	if status != types.StatusCritical {
		t.Errorf("status: got %v, want critical", status)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts: got %d, want 1", len(drafts))
	}
	if drafts[0].Severity != types.SeverityHigh {
		t.Errorf("severity: got %v, want high", drafts[0].Severity)
	}
	if !strings.Contains(drafts[0].Description, "temperature") {
		t.Errorf("description %q does not name the metric", drafts[0].Description)
	}

	// Sustained at the same tier: no new alert.
	if _, drafts := Classify(hot, hot, th); len(drafts) != 0 {
		t.Errorf("sustained breach: got %d drafts, want 0", len(drafts))
	}

	// Downward transition: status recovers, no alert.
	cool := Metrics{Temperature: 60, Vibration: 2, Load: 40}
	status, drafts = Classify(hot, cool, th)
	if status != types.StatusOK {
		t.Errorf("status after recovery: got %v, want ok", status)
	}
	if len(drafts) != 0 {
		t.Errorf("downward transition: got %d drafts, want 0", len(drafts))
	}
}

func TestClassify_SustainedBreach_SingleAlert(t *testing.T) {
	th := Defaults()
	prev := Metrics{}
	total := 0
	for i := 0; i < 10; i++ {
		next := Metrics{Temperature: 95, Vibration: 2, Load: 40}
		_, drafts := Classify(prev, next, th)
		total += len(drafts)
		prev = next
	}
	if total != 1 {
		t.Errorf("10 samples at 95°C: got %d alerts, want 1", total)
	}
}

func TestClassify_WarningThenCritical_TwoAlerts(t *testing.T) {
	th := Defaults()

	_, first := Classify(Metrics{}, Metrics{Temperature: 75}, th)
	if len(first) != 1 || first[0].Severity != types.SeverityMedium {
		t.Fatalf("warning crossing: got %+v, want one medium draft", first)
	}

	_, second := Classify(Metrics{Temperature: 75}, Metrics{Temperature: 85}, th)
	if len(second) != 1 || second[0].Severity != types.SeverityHigh {
		t.Fatalf("critical crossing: got %+v, want one high draft", second)
	}
}

func TestClassify_MultipleMetricsCrossTogether(t *testing.T) {
	th := Defaults()
	next := Metrics{Temperature: 85, Vibration: 12, Load: 90}
	status, drafts := Classify(Metrics{}, next, th)
	if status != types.StatusCritical {
		t.Errorf("status: got %v, want critical", status)
	}
	if len(drafts) != 3 {
		t.Errorf("drafts: got %d, want 3 (one per crossing metric)", len(drafts))
	}
}

func TestClassify_Deterministic(t *testing.T) {
	th := Defaults()
	seq := []Metrics{
		{Temperature: 60}, {Temperature: 75}, {Temperature: 92},
		{Temperature: 40}, {Temperature: 92},
	}

	run := func() (types.Status, int) {
		prev := Metrics{}
		var last types.Status
		n := 0
		for _, m := range seq {
			var drafts []Draft
			last, drafts = Classify(prev, m, th)
			n += len(drafts)
			prev = m
		}
		return last, n
	}

	s1, n1 := run()
	s2, n2 := run()
	if s1 != s2 || n1 != n2 {
		t.Errorf("replay diverged: (%v, %d) vs (%v, %d)", s1, n1, s2, n2)
	}
}
