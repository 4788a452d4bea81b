package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "companion-test",
		},
		QoS: 1,
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Checkin", Topics{}.Checkin("42"), "companion/checkin/42"},
		{"AllCheckins", Topics{}.AllCheckins(), "companion/checkin/+"},
		{"SystemStatus", Topics{}.SystemStatus("kiosk-1"), "companion/system/status/kiosk-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := brokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("brokerURL() = %q", got)
	}
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("brokerURL(tls) = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "kiosk", Password: "pw"}

	opts := buildClientOptions(cfg)
	if opts.ClientID != "companion-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "kiosk" || opts.Password != "pw" {
		t.Error("credentials not applied")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect with a clean session")
	}
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "companion-test")

	if !opts.WillEnabled || !opts.WillRetained || opts.WillQos != 1 {
		t.Errorf("will enabled=%v retained=%v qos=%d", opts.WillEnabled, opts.WillRetained, opts.WillQos)
	}
	if opts.WillTopic != "companion/system/status/companion-test" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var p statusPayload
	if err := json.Unmarshal(opts.WillPayload, &p); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if p.Status != "offline" || p.Reason != "unexpected_disconnect" || p.ClientID != "companion-test" {
		t.Errorf("will payload = %+v", p)
	}
}

func TestValidatePublish(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"valid", "companion/checkin/1", []byte(`{}`), 1, nil},
		{"nil payload", "companion/checkin/1", nil, 0, nil},
		{"empty topic", "", []byte(`{}`), 1, ErrInvalidTopic},
		{"qos too high", "companion/checkin/1", []byte(`{}`), 3, ErrInvalidQoS},
		{"payload too large", "companion/checkin/1", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validatePublish(tt.topic, tt.payload, tt.qos); !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePublish() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublish_NotConnected(t *testing.T) {
	c := &Client{cfg: testConfig()}

	if c.IsConnected() {
		t.Fatal("zero client reports connected")
	}
	if err := c.PublishJSON(Topics{}.Checkin("1"), map[string]string{"outcome": "success"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishJSON() = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(t.Context()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
}

func TestPublishJSON_EncodeError(t *testing.T) {
	c := &Client{cfg: testConfig()}
	if err := c.PublishJSON("companion/checkin/1", make(chan int)); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishJSON(chan) = %v, want ErrPublishFailed", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() on unconnected = %v", err)
	}
}
