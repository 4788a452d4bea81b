package influxdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	fallbackBatchSize     = 20
	fallbackFlushInterval = 5 * time.Second
)

// Client writes check-in outcome points. A nil or closed Client drops
// writes silently. All methods are safe for concurrent use.
type Client struct {
	client influxdb2.Client
	writes api.WriteAPI
	closed atomic.Bool

	mu      sync.Mutex
	onError func(err error)
}

// Option adjusts the underlying client options before connecting.
type Option func(*influxdb2.Options)

// WithDefaultTag adds a tag to every point this client writes.
func WithDefaultTag(key, value string) Option {
	return func(o *influxdb2.Options) {
		if value != "" {
			o.AddDefaultTag(key, value)
		}
	}
}

// Connect pings the server and opens a batched, non-blocking write API on
// cfg.Org/cfg.Bucket. It returns ErrDisabled when cfg.Enabled is false.
func Connect(ctx context.Context, cfg config.InfluxDBConfig, opts ...Option) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	options := influxdb2.DefaultOptions()
	batch, flush := batching(cfg)
	options.SetBatchSize(batch)
	options.SetFlushInterval(uint(flush.Milliseconds())) // #nosec G115 -- positive by construction
	for _, opt := range opts {
		opt(options)
	}

	ic := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, options)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := ping(pingCtx, ic); err != nil {
		ic.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{client: ic, writes: ic.WriteAPI(cfg.Org, cfg.Bucket)}
	go c.forwardErrors(c.writes.Errors())
	return c, nil
}

// batching returns the configured batch size and flush interval, or the
// fallbacks for unset values.
func batching(cfg config.InfluxDBConfig) (uint, time.Duration) {
	batch := uint(fallbackBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize)
	}
	flush := fallbackFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}
	return batch, flush
}

func ping(ctx context.Context, ic influxdb2.Client) error {
	ok, err := ic.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !ok {
		return errors.New("server not ready")
	}
	return nil
}

func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.mu.Lock()
		fn := c.onError
		c.mu.Unlock()
		if fn != nil {
			fn(err)
		}
	}
}

// SetOnError sets the callback for failed background batch writes.
func (c *Client) SetOnError(fn func(err error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// IsConnected reports whether the client accepts writes. Safe on nil.
func (c *Client) IsConnected() bool {
	return c != nil && c.client != nil && !c.closed.Load()
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(pingCtx, c.client); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// Flush blocks until buffered points are sent. No-op once closed.
func (c *Client) Flush() {
	if c.IsConnected() {
		c.writes.Flush()
	}
}

// Close sends buffered points and releases the client. Safe on nil and
// safe to call twice.
func (c *Client) Close() error {
	if c == nil || c.client == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writes.Flush()
	c.client.Close()
	return nil
}
