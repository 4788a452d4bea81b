package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
)

// Logger is the subset of logging.Logger the client uses.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Client is a publish-only broker connection. Methods are safe for
// concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	connected atomic.Bool

	mu           sync.RWMutex
	logger       Logger
	onConnect    func()
	onDisconnect func(error)
}

// Connect dials the broker, arms the last will and announces the install
// online. logger may be nil.
func Connect(cfg config.MQTTConfig, logger Logger) (*Client, error) {
	c := &Client{cfg: cfg, logger: logger}

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.connectionUp() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.connectionLost(err) })

	c.client = pahomqtt.NewClient(opts)
	tok := c.client.Connect()
	switch {
	case !tok.WaitTimeout(defaultConnectTimeout):
		return nil, fmt.Errorf("%w: no answer from %s within %v", ErrConnectionFailed, brokerURL(cfg), defaultConnectTimeout)
	case tok.Error() != nil:
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, tok.Error())
	}

	// paho runs the OnConnect handler on its own goroutine.
	c.connected.Store(true)
	return c, nil
}

func (c *Client) announce(status, reason string) pahomqtt.Token {
	id := c.cfg.Broker.ClientID
	return c.client.Publish(Topics{}.SystemStatus(id), statusQoS, true, buildStatusPayload(id, status, reason))
}

func (c *Client) connectionUp() {
	c.connected.Store(true)
	c.announce("online", "")

	c.mu.RLock()
	fn := c.onConnect
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) connectionLost(err error) {
	c.connected.Store(false)

	c.mu.RLock()
	log, fn := c.logger, c.onDisconnect
	c.mu.RUnlock()
	if log != nil {
		log.Warn("mqtt connection lost", "broker", brokerURL(c.cfg), "error", err)
	}
	if fn != nil {
		fn(err)
	}
}

// Close announces a graceful offline, replacing the last will, and
// disconnects. Nil and never-connected clients are no-ops.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.IsConnected() {
		c.announce("offline", "graceful_shutdown").WaitTimeout(defaultPublishTimeout)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// HealthCheck fails with ErrNotConnected while paho is reconnecting.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected is nil-safe.
func (c *Client) IsConnected() bool {
	return c != nil && c.client != nil && c.connected.Load() && c.client.IsConnected()
}

// SetOnConnect runs fn after the first connect and after every reconnect.
func (c *Client) SetOnConnect(fn func()) {
	c.mu.Lock()
	c.onConnect = fn
	c.mu.Unlock()
}

// SetOnDisconnect runs fn whenever the connection drops.
func (c *Client) SetOnDisconnect(fn func(error)) {
	c.mu.Lock()
	c.onDisconnect = fn
	c.mu.Unlock()
}

func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}
