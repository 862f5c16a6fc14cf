// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	applog "specviz/internal/log"
)

// MQTTConfig holds broker connection and publishing settings.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	// Interval is the minimum spacing between published frames. Frames
	// arriving sooner are skipped.
	Interval time.Duration
}

// mqttPublisher is the part of mqtt.Client the transport uses.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTTransport publishes each frame as JSON on a single topic with QoS 0,
// not retained.
type MQTTTransport struct {
	client   mqttPublisher
	topic    string
	interval time.Duration

	mu       sync.Mutex
	lastSent time.Time
	closed   bool
	now      func() time.Time
}

// NewMQTTTransport connects to the broker and returns a ready transport.
func NewMQTTTransport(cfg MQTTConfig) (*MQTTTransport, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		applog.Infof("MQTTTransport: Connection established")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		applog.Warnf("MQTTTransport: Connection lost: %v", err)
	})
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}

	applog.Infof("MQTTTransport: Publishing to %s on %s", cfg.Topic, cfg.Broker)
	return newMQTTTransport(client, cfg), nil
}

func newMQTTTransport(client mqttPublisher, cfg MQTTConfig) *MQTTTransport {
	return &MQTTTransport{
		client:   client,
		topic:    cfg.Topic,
		interval: cfg.Interval,
		now:      time.Now,
	}
}

// Send publishes data unless the previous publish was less than Interval ago.
// It does not wait for the broker; an error is returned only if the publish
// has already failed by the time Send returns.
func (m *MQTTTransport) Send(data any) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	now := m.now()
	if !m.lastSent.IsZero() && now.Sub(m.lastSent) < m.interval {
		m.mu.Unlock()
		return nil
	}
	m.lastSent = now
	m.mu.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal MQTT payload: %w", err)
	}

	token := m.client.Publish(m.topic, 0, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", m.topic, err)
		}
	default:
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTTTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.client.Disconnect(250)
	applog.Infof("MQTTTransport: Disconnected")
	return nil
}

var _ Transport = (*MQTTTransport)(nil)
