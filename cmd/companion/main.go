// Event Companion Core
//
// This is the main entry point for the event companion service. It runs
// next to the attendee and booth-staff app, owns the signed-in session,
// talks to the event REST API and serves a loopback gateway the app shell
// drives:
//   - Session lifecycle (login, first access, legacy sync, logout)
//   - Role-based navigation
//   - Booth QR check-in and its CSV export
//   - Event, agenda, speaker and sponsor browsing
//   - Staff registration
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	_ "time/tzdata"

	"github.com/nerrad567/event-companion-core/internal/api"
	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/backend"
	"github.com/nerrad567/event-companion-core/internal/cache"
	"github.com/nerrad567/event-companion-core/internal/catalog"
	"github.com/nerrad567/event-companion-core/internal/checkin"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/database"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/event-companion-core/internal/navigation"
	"github.com/nerrad567/event-companion-core/internal/registration"
	"github.com/nerrad567/event-companion-core/migrations"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "companion:", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled. Deferred
// closes run in reverse, so the gateway stops first and the database last.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("companion starting", "build", version, "commit", commit, "built", date)

	path := getConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("config loaded", "path", path, "log_level", cfg.Logging.Level, "install_id", cfg.App.InstallID)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer closeLogged(log, "database", db)
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrating %s: %w", db.Path(), err)
	}
	log.Info("state store ready", "path", db.Path())

	client := backend.New(cfg.Backend, log)
	store := cache.New(client)
	store.SetLogger(log)

	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, log)

	authSvc := auth.NewService(client, auth.NewSessionStore(db.DB, cfg.Session, log), store, auth.ServiceConfig{
		Sync:              cfg.Sync,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	}, log)
	authSvc.SetAuditor(recorder)
	authSvc.Restore(ctx)

	verifier := checkin.NewVerifier(client, authSvc, log)
	verifier.AddSink(checkin.AuditSink(recorder))
	authSvc.OnStateChange(func(st auth.State) {
		if st == auth.StateUnauthenticated {
			verifier.Abandon()
		}
	})

	mqttClient, err := connectMQTT(cfg, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		defer closeLogged(log, "mqtt", mqttClient)
		verifier.AddSink(checkin.MQTTSink(mqttClient, log))
	}

	influxClient, err := connectInfluxDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer closeLogged(log, "influxdb", influxClient)
		verifier.AddSink(checkin.MetricsSink(influxClient))
	}

	// Registered after the sink clients, so it runs before they close.
	defer verifier.Wait()

	gateway, err := api.New(api.Deps{
		Config:       cfg.Gateway,
		WS:           cfg.WebSocket,
		Logger:       log,
		Auth:         authSvc,
		Reset:        auth.NewResetFlow(client, cfg.GetResetCodeTTL()),
		Navigation:   navigation.NewRouter(authSvc, recorder, log),
		Catalog:      catalog.NewService(client, store, cfg.GetLocation(), log),
		Checkin:      verifier,
		Registration: registration.NewService(client, recorder, log),
		Audit:        auditRepo,
		Cache:        store,
		DB:           db.DB,
		MQTT:         mqttClient,
		Influx:       influxClient,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("building gateway: %w", err)
	}
	if err := gateway.Start(ctx); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}
	defer closeLogged(log, "gateway", gateway)

	type check struct {
		name string
		fn   func(context.Context) error
	}
	checks := []check{{"database", db.HealthCheck}, {"gateway", gateway.HealthCheck}}
	if mqttClient != nil {
		checks = append(checks, check{"mqtt", mqttClient.HealthCheck})
	}
	if influxClient != nil {
		checks = append(checks, check{"influxdb", influxClient.HealthCheck})
	}
	for _, c := range checks {
		if err := c.fn(ctx); err != nil {
			return fmt.Errorf("%s not healthy: %w", c.name, err)
		}
	}

	log.Info("companion ready",
		"gateway", net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port)),
		"session", authSvc.State().String(),
	)
	<-ctx.Done()

	log.Info("shutting down")
	verifier.Abandon()
	return nil
}

// getConfigPath honours COMPANION_CONFIG.
func getConfigPath() string {
	if path := os.Getenv("COMPANION_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func closeLogged(log *logging.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Error("close failed", "component", name, "error", err)
		return
	}
	log.Debug("closed", "component", name)
}

// connectMQTT returns nil, nil while MQTT is disabled.
func connectMQTT(cfg *config.Config, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.MQTT.Enabled {
		log.Info("mqtt off")
		return nil, nil
	}
	mlog := log.With("component", "mqtt")
	c, err := mqtt.Connect(cfg.MQTT, mlog)
	if err != nil {
		return nil, err
	}
	c.SetOnConnect(func() { mlog.Info("broker link up") })
	c.SetOnDisconnect(func(err error) { mlog.Warn("broker link down", "error", err) })
	mlog.Info("publishing check-ins",
		"broker", net.JoinHostPort(cfg.MQTT.Broker.Host, strconv.Itoa(cfg.MQTT.Broker.Port)),
		"topic", mqtt.Topics{}.AllCheckins(),
	)
	return c, nil
}

// connectInfluxDB returns nil, nil while InfluxDB is disabled.
func connectInfluxDB(ctx context.Context, cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	c, err := influxdb.Connect(ctx, cfg.InfluxDB, influxdb.WithDefaultTag("install_id", cfg.App.InstallID))
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("influxdb off")
		return nil, nil
	case err != nil:
		return nil, err
	}

	ilog := log.With("component", "influxdb")
	c.SetOnError(func(err error) { ilog.Error("batch write failed", "error", err) })
	ilog.Info("recording check-in outcomes", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	return c, nil
}
