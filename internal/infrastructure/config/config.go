package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors configs/config.yaml.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Backend   BackendConfig   `yaml:"backend"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	Sync      SyncConfig      `yaml:"sync"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AppConfig identifies this install of the companion app.
type AppConfig struct {
	InstallID string `yaml:"install_id"`
	EventName string `yaml:"event_name"`

	// Timezone is the IANA zone talk times are shown in.
	Timezone string `yaml:"timezone"`
}

// BackendConfig contains settings for the external event REST API.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single HTTP call in seconds. It is a transport bound,
	// not a retry budget: failed calls are never retried.
	Timeout int `yaml:"timeout"`

	UserAgent string `yaml:"user_agent"`
}

// DatabaseConfig contains SQLite database settings for the local state store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// SessionConfig controls how a persisted session is restored.
type SessionConfig struct {
	// RejectExpiredTokens discards a persisted session whose bearer token is a
	// JWT with an exp claim in the past.
	RejectExpiredTokens bool `yaml:"reject_expired_tokens"`
}

// AuthConfig contains authentication flow settings.
type AuthConfig struct {
	// ResetCodeTTL is how long a password-reset verification code stays valid (seconds).
	ResetCodeTTL int `yaml:"reset_code_ttl"`

	// MinPasswordLength is the minimum length for a newly created password.
	MinPasswordLength int `yaml:"min_password_length"`
}

// SyncConfig contains legacy ticketing reconciliation settings.
//
// The admin credential is privileged. It must only be supplied through the
// environment (COMPANION_SYNC_ADMIN_EMAIL / COMPANION_SYNC_ADMIN_PASSWORD);
// with no credential configured, reconciliation is disabled.
type SyncConfig struct {
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`

	// EventMap maps app event IDs to ticketing platform event IDs.
	EventMap map[string]string `yaml:"event_map"`

	// HiddenEvents lists app event IDs never offered for reconciliation.
	HiddenEvents []string `yaml:"hidden_events"`
}

// Enabled reports whether a reconciliation credential is configured.
func (s SyncConfig) Enabled() bool {
	return s.AdminEmail != "" && s.AdminPassword != ""
}

// GatewayConfig contains the loopback HTTP gateway used by the UI shell.
type GatewayConfig struct {
	Host     string               `yaml:"host"`
	Port     int                  `yaml:"port"`
	Timeouts GatewayTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig           `yaml:"cors"`
}

// GatewayTimeoutConfig contains HTTP timeout settings (seconds).
type GatewayTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig lists what the UI shell's dev server may call. Empty allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig tunes the push channel to the UI shell. Intervals are seconds.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for check-in fan-out.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	QoS     int              `yaml:"qos"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB connection settings for check-in metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads path over the built-in defaults, then lets COMPANION_*
// variables override the file, then validates.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// defaultConfig targets the production backend with MQTT and InfluxDB off.
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			InstallID: "companion-local",
			Timezone:  "America/Sao_Paulo",
		},
		Backend: BackendConfig{
			BaseURL:   "https://events-br-ima.onrender.com/api",
			Timeout:   15,
			UserAgent: "event-companion-core",
		},
		Database: DatabaseConfig{
			Path:        "./data/companion.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Session: SessionConfig{
			RejectExpiredTokens: true,
		},
		Auth: AuthConfig{
			ResetCodeTTL:      300,
			MinPasswordLength: 6,
		},
		Sync: SyncConfig{
			EventMap: map[string]string{
				"1":  "s2ac649",
				"2":  "s2ac494",
				"4":  "s2ab991",
				"7":  "s2ac55f",
				"8":  "s2abab5",
				"9":  "s2aaff4",
				"20": "s2ac649",
			},
			HiddenEvents: []string{"5"},
		},
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 8787,
			Timeouts: GatewayTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "event-companion",
			},
			QoS: 1,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides copies each set variable over its field. The sync
// credential is only meant to arrive this way.
func applyEnvOverrides(cfg *Config) {
	for name, field := range map[string]*string{
		"COMPANION_BACKEND_URL":         &cfg.Backend.BaseURL,
		"COMPANION_DATABASE_PATH":       &cfg.Database.Path,
		"COMPANION_GATEWAY_HOST":        &cfg.Gateway.Host,
		"COMPANION_SYNC_ADMIN_EMAIL":    &cfg.Sync.AdminEmail,
		"COMPANION_SYNC_ADMIN_PASSWORD": &cfg.Sync.AdminPassword,
		"COMPANION_MQTT_HOST":           &cfg.MQTT.Broker.Host,
		"COMPANION_MQTT_USERNAME":       &cfg.MQTT.Auth.Username,
		"COMPANION_MQTT_PASSWORD":       &cfg.MQTT.Auth.Password,
		"COMPANION_INFLUXDB_TOKEN":      &cfg.InfluxDB.Token,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}
}

// Validate reports every problem at once, joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	_, tzErr := time.LoadLocation(c.App.Timezone)
	check(tzErr == nil, "app.timezone: unknown zone %q", c.App.Timezone)

	u, urlErr := url.Parse(c.Backend.BaseURL)
	check(urlErr == nil && u.Scheme != "" && u.Host != "", "backend.base_url: %q is not an absolute URL", c.Backend.BaseURL)
	check(c.Backend.Timeout > 0, "backend.timeout: must be positive")

	check(c.Database.Path != "", "database.path: required")

	check(c.Auth.ResetCodeTTL > 0, "auth.reset_code_ttl: must be positive")
	check(c.Auth.MinPasswordLength >= 1, "auth.min_password_length: must be at least 1")

	check((c.Sync.AdminEmail == "") == (c.Sync.AdminPassword == ""), "sync: admin_email and admin_password go together")

	check(c.Gateway.Port >= 1 && c.Gateway.Port <= 65535, "gateway.port: %d out of range", c.Gateway.Port)
	check(c.WebSocket.PingInterval > 0 && c.WebSocket.PongTimeout > 0, "websocket: ping_interval and pong_timeout must be positive")

	if c.MQTT.Enabled {
		check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos: %d is not 0, 1 or 2", c.MQTT.QoS)
	}
	if c.InfluxDB.Enabled {
		check(c.InfluxDB.URL != "" && c.InfluxDB.Bucket != "", "influxdb: url and bucket are required when enabled")
	}

	return errors.Join(errs...)
}

// GetLocation returns the configured display time zone, or time.Local
// when it cannot be loaded.
func (c *Config) GetLocation() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetBackendTimeout returns the backend HTTP timeout as a Duration.
func (c *Config) GetBackendTimeout() time.Duration {
	return time.Duration(c.Backend.Timeout) * time.Second
}

// GetResetCodeTTL returns the password-reset code lifetime as a Duration.
func (c *Config) GetResetCodeTTL() time.Duration {
	return time.Duration(c.Auth.ResetCodeTTL) * time.Second
}

// GetReadTimeout returns the gateway read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the gateway write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the gateway idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Idle) * time.Second
}
