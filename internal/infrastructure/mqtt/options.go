package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"net"
	"net/url"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // ms

	keepAlive         = 60 * time.Second
	reconnectInterval = 2 * time.Second
	maxReconnectDelay = time.Minute

	statusQoS = 1
	maxQoS    = 2
)

func brokerURL(cfg config.MQTTConfig) string {
	u := url.URL{
		Scheme: "tcp",
		Host:   net.JoinHostPort(cfg.Broker.Host, strconv.Itoa(cfg.Broker.Port)),
	}
	if cfg.Broker.TLS {
		u.Scheme = "ssl"
	}
	return u.String()
}

// buildClientOptions maps the companion config onto paho. The session is
// clean because the companion never subscribes.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetConnectRetryInterval(reconnectInterval).
		SetMaxReconnectInterval(maxReconnectDelay).
		SetConnectTimeout(defaultConnectTimeout).
		SetKeepAlive(keepAlive)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username).SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return opts
}

// statusPayload is the retained body on Topics.SystemStatus.
type statusPayload struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

func buildStatusPayload(clientID, status, reason string) []byte {
	//nolint:errcheck // strings only
	b, _ := json.Marshal(statusPayload{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return b
}

// configureLWT has the broker mark the install offline if the link drops
// without a Close.
func configureLWT(opts *pahomqtt.ClientOptions, clientID string) {
	opts.SetBinaryWill(Topics{}.SystemStatus(clientID),
		buildStatusPayload(clientID, "offline", "unexpected_disconnect"), statusQoS, true)
}
