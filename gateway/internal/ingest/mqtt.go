package ingest

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/meshgate/meshgate/gateway/internal/config"
	"github.com/meshgate/meshgate/pkg/types"
)

const connectRetryInterval = 5 * time.Second

// MQTTSource subscribes to the mesh bridge topic and feeds every payload to
// the pipeline. The paho client reconnects on its own; a lost broker is not
// fatal to the gateway — silent machines surface as offline instead.
type MQTTSource struct {
	cfg    config.MQTTConfig
	pipe   *Pipeline
	client mqtt.Client
}

// NewMQTTSource creates an MQTT source for the given broker settings.
func NewMQTTSource(cfg config.MQTTConfig, pipe *Pipeline) *MQTTSource {
	return &MQTTSource{cfg: cfg, pipe: pipe}
}

// Start connects to the broker and subscribes to the telemetry topic.
func (s *MQTTSource) Start() error {
	broker := fmt.Sprintf("tcp://%s:%d", s.cfg.Broker, s.cfg.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetOnConnectHandler(func(c mqtt.Client) {
			if token := c.Subscribe(s.cfg.Topic, 1, s.handleMessage); token.Wait() && token.Error() != nil {
				slog.Error("mqtt: subscribe failed", "topic", s.cfg.Topic, "err", token.Error())
				return
			}
			slog.Info("mqtt: subscribed", "broker", broker, "topic", s.cfg.Topic)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("mqtt: connection lost, reconnecting", "err", err)
		})

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	return nil
}

// Stop disconnects from the broker, letting in-flight handlers finish.
func (s *MQTTSource) Stop() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}

func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	// Rejections are already counted and logged by the pipeline.
	_ = s.pipe.HandleRaw(msg.Payload(), types.ChannelMesh)
}
