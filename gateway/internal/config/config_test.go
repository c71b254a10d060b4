package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `gateway: {}
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := cfg.Gateway
	if g.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", g.HTTPPort, DefaultHTTPPort)
	}
	if g.OfflineTimeout != DefaultOfflineTimeout {
		t.Errorf("offline_timeout: got %v, want %v", g.OfflineTimeout, DefaultOfflineTimeout)
	}
	if g.SweepPeriod != DefaultSweepPeriod {
		t.Errorf("sweep_period: got %v, want %v", g.SweepPeriod, DefaultSweepPeriod)
	}
	if g.AlertCapacity != DefaultAlertCapacity {
		t.Errorf("alert_capacity: got %d, want %d", g.AlertCapacity, DefaultAlertCapacity)
	}
	if g.MQTT.Enabled() {
		t.Error("mqtt: expected disabled with no broker configured")
	}
	th := g.Thresholds
	if th.TemperatureWarning != 70 || th.TemperatureCritical != 80 ||
		th.VibrationWarning != 7 || th.VibrationCritical != 10 ||
		th.LoadWarning != 85 || th.LoadCritical != 95 {
		t.Errorf("thresholds: got %+v, want documented defaults", th)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `gateway:
  http_port: 9091
  mqtt:
    broker: mesh-bridge.local
    port: 1884
    client_id: gw-7
    topic: plant/telemetry
  thresholds:
    temperature_warning: 60
    temperature_critical: 75
    vibration_warning: 5
    vibration_critical: 9
    load_warning: 80
    load_critical: 90
  offline_timeout: 30s
  sweep_period: 10s
  alert_capacity: 500
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := cfg.Gateway
	if g.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", g.HTTPPort)
	}
	if !g.MQTT.Enabled() || g.MQTT.Broker != "mesh-bridge.local" || g.MQTT.Port != 1884 {
		t.Errorf("mqtt: got %+v", g.MQTT)
	}
	if g.MQTT.Topic != "plant/telemetry" {
		t.Errorf("mqtt.topic: got %q", g.MQTT.Topic)
	}
	if g.OfflineTimeout != 30*time.Second {
		t.Errorf("offline_timeout: got %v", g.OfflineTimeout)
	}
	if g.Thresholds.TemperatureCritical != 75 {
		t.Errorf("temperature_critical: got %v", g.Thresholds.TemperatureCritical)
	}
	if g.AlertCapacity != 500 {
		t.Errorf("alert_capacity: got %d", g.AlertCapacity)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name, yaml string
	}{
		{"bad port", "gateway:\n  http_port: 70000\n"},
		{"negative timeout", "gateway:\n  offline_timeout: -5s\n"},
		{"negative capacity", "gateway:\n  alert_capacity: -1\n"},
		{"warning above critical", "gateway:\n  thresholds:\n    temperature_warning: 90\n    temperature_critical: 80\n"},
		{"not yaml", "gateway: [\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := writeConfig(t, c.yaml)
			if _, err := Load(p); err == nil {
				t.Errorf("Load: expected error for %s", c.name)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestThresholds_Conversion(t *testing.T) {
	tc := ThresholdConfig{
		TemperatureWarning: 60, TemperatureCritical: 75,
		VibrationWarning: 5, VibrationCritical: 9,
		LoadWarning: 80, LoadCritical: 90,
	}
	th := tc.Thresholds()
	if th.TemperatureWarning != 60 || th.LoadCritical != 90 {
		t.Errorf("conversion: got %+v", th)
	}
}

func TestWatch_ReloadOnWrite(t *testing.T) {
	p := writeConfig(t, "gateway:\n  http_port: 8080\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, p, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(p, []byte("gateway:\n  http_port: 9999\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Gateway.HTTPPort != 9999 {
			t.Errorf("reloaded http_port: got %d, want 9999", cfg.Gateway.HTTPPort)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop after cancellation")
	}
}

func TestWatch_InvalidReloadIgnored(t *testing.T) {
	p := writeConfig(t, "gateway:\n  http_port: 8080\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, p, func(cfg *Config) { reloaded <- cfg })
	}()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(p, []byte("gateway: ["), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-reloaded:
		t.Fatal("onChange called for an invalid config")
	case <-time.After(300 * time.Millisecond):
		// Expected: broken reload kept the previous config.
	}
}
