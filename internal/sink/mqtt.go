package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// ErrNotConnected is returned when the broker connection is down.
var ErrNotConnected = errors.New("sink: mqtt not connected")

// Publisher is the part of an MQTT client the sink needs.
type Publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker   string
	ClientID string // generated when empty
	Username string
	Password string
	Topic    string
	QoS      byte
	Retain   bool
	Timeout  time.Duration
}

// DialMQTT connects to the broker. The client reconnects on its own after
// the first connection.
func DialMQTT(cfg MQTTConfig, logger *log.Logger) (mqtt.Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("mqtt")
	if cfg.ClientID == "" {
		cfg.ClientID = "p25cai_" + uuid.New().String()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("connection lost", "err", err)
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		logger.Info("reconnecting")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("sink: connect to %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("sink: connect to %s: %w", cfg.Broker, err)
	}
	return client, nil
}

// MQTTSink publishes the JSON record of every frame to
// <topic>/<frame type>.
type MQTTSink struct {
	pub     Publisher
	desc    Describer
	topic   string
	qos     byte
	retain  bool
	timeout time.Duration
}

// NewMQTTSink publishes through pub.
func NewMQTTSink(pub Publisher, cfg MQTTConfig, desc Describer) *MQTTSink {
	topic := strings.TrimSuffix(cfg.Topic, "/")
	if topic == "" {
		topic = "p25"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTSink{pub: pub, desc: desc, topic: topic, qos: cfg.QoS, retain: cfg.Retain, timeout: timeout}
}

func (s *MQTTSink) Name() string { return "mqtt" }

// Topic returns the topic a frame type is published to.
func (s *MQTTSink) Topic(typ string) string {
	return s.topic + "/" + strings.ToLower(typ)
}

func (s *MQTTSink) Send(ctx context.Context, f p25.Frame) error {
	if !s.pub.IsConnected() {
		return ErrNotConnected
	}
	r := s.desc.Describe(f)
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("sink: marshal record: %w", err)
	}

	token := s.pub.Publish(s.Topic(r.Type), s.qos, s.retain, data)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("sink: publish %s: %w", s.Topic(r.Type), err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.timeout):
		return fmt.Errorf("sink: publish %s: timed out", s.Topic(r.Type))
	}
}

func (s *MQTTSink) Close() error {
	s.pub.Disconnect(250)
	return nil
}
