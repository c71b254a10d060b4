package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meshgate/meshgate/gateway/internal/classify"
)

// Default values for the gateway configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultOfflineTimeout = 15 * time.Second
	DefaultSweepPeriod    = 5 * time.Second
	DefaultAlertCapacity  = 200

	DefaultMQTTPort     = 1883
	DefaultMQTTClientID = "meshgate"
	DefaultMQTTTopic    = "mesh/telemetry"
)

// Config holds the gateway configuration parsed from the `gateway:` section
// of config.yaml.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
}

// GatewayConfig holds all gateway-side settings.
type GatewayConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// MQTT configures the mesh transport subscription. Leaving Broker empty
	// disables the MQTT source; readings can still be posted over HTTP.
	MQTT MQTTConfig `yaml:"mqtt"`

	// Thresholds are the warning/critical levels per metric.
	Thresholds ThresholdConfig `yaml:"thresholds"`

	// OfflineTimeout is the maximum silence interval before a machine is
	// declared offline (default 15s).
	OfflineTimeout time.Duration `yaml:"offline_timeout"`

	// SweepPeriod is how often the liveness monitor scans for silent
	// machines (default 5s).
	SweepPeriod time.Duration `yaml:"sweep_period"`

	// AlertCapacity bounds the alert ledger; the oldest alert is evicted
	// when the cap is reached (default 200).
	AlertCapacity int `yaml:"alert_capacity"`
}

// MQTTConfig holds the mesh broker connection settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// Enabled reports whether an MQTT broker is configured.
func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// ThresholdConfig holds the warning/critical levels for each metric.
// Zero values are replaced with the defaults from defaults().
type ThresholdConfig struct {
	TemperatureWarning  float64 `yaml:"temperature_warning"`
	TemperatureCritical float64 `yaml:"temperature_critical"`
	VibrationWarning    float64 `yaml:"vibration_warning"`
	VibrationCritical   float64 `yaml:"vibration_critical"`
	LoadWarning         float64 `yaml:"load_warning"`
	LoadCritical        float64 `yaml:"load_critical"`
}

// Thresholds converts the parsed threshold levels to the classifier's type.
func (t ThresholdConfig) Thresholds() classify.Thresholds {
	return classify.Thresholds{
		TemperatureWarning:  t.TemperatureWarning,
		TemperatureCritical: t.TemperatureCritical,
		VibrationWarning:    t.VibrationWarning,
		VibrationCritical:   t.VibrationCritical,
		LoadWarning:         t.LoadWarning,
		LoadCritical:        t.LoadCritical,
	}
}

// Load reads and parses the config file at path, returning the gateway
// configuration. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gateway config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("gateway config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("gateway config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values. The threshold
// defaults mirror the documented policy constants.
func defaults() *Config {
	return &Config{
		Gateway: GatewayConfig{
			HTTPPort: DefaultHTTPPort,
			MQTT: MQTTConfig{
				Port:     DefaultMQTTPort,
				ClientID: DefaultMQTTClientID,
				Topic:    DefaultMQTTTopic,
			},
			Thresholds: ThresholdConfig{
				TemperatureWarning:  70,
				TemperatureCritical: 80,
				VibrationWarning:    7,
				VibrationCritical:   10,
				LoadWarning:         85,
				LoadCritical:        95,
			},
			OfflineTimeout: DefaultOfflineTimeout,
			SweepPeriod:    DefaultSweepPeriod,
			AlertCapacity:  DefaultAlertCapacity,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	g := cfg.Gateway
	if g.HTTPPort <= 0 || g.HTTPPort > 65535 {
		return fmt.Errorf("gateway.http_port %d is out of range [1, 65535]", g.HTTPPort)
	}
	if g.MQTT.Enabled() && (g.MQTT.Port <= 0 || g.MQTT.Port > 65535) {
		return fmt.Errorf("gateway.mqtt.port %d is out of range [1, 65535]", g.MQTT.Port)
	}
	if g.OfflineTimeout <= 0 {
		return fmt.Errorf("gateway.offline_timeout must be positive")
	}
	if g.SweepPeriod <= 0 {
		return fmt.Errorf("gateway.sweep_period must be positive")
	}
	if g.AlertCapacity <= 0 {
		return fmt.Errorf("gateway.alert_capacity must be positive")
	}

	th := g.Thresholds
	pairs := []struct {
		name       string
		warn, crit float64
	}{
		{"temperature", th.TemperatureWarning, th.TemperatureCritical},
		{"vibration", th.VibrationWarning, th.VibrationCritical},
		{"load", th.LoadWarning, th.LoadCritical},
	}
	for _, p := range pairs {
		if p.warn >= p.crit {
			return fmt.Errorf("gateway.thresholds: %s warning level %.2f must be below critical level %.2f",
				p.name, p.warn, p.crit)
		}
	}
	return nil
}
