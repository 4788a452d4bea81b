package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/cache"
	"github.com/nerrad567/event-companion-core/internal/catalog"
	"github.com/nerrad567/event-companion-core/internal/checkin"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/event-companion-core/internal/navigation"
	"github.com/nerrad567/event-companion-core/internal/registration"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// sessionPush is the payload of ChannelSessionState.
type sessionPush struct {
	State auth.State `json:"state"`
}

// Deps holds the dependencies required by the gateway.
type Deps struct {
	Config       config.GatewayConfig
	WS           config.WebSocketConfig
	Logger       *logging.Logger
	Auth         *auth.Service
	Reset        *auth.ResetFlow
	Navigation   *navigation.Router
	Catalog      *catalog.Service
	Checkin      *checkin.Verifier
	Registration *registration.Service
	Audit        audit.Repository

	// Optional, reported by /metrics only.
	Cache  *cache.Store
	DB     *sql.DB
	MQTT   *mqtt.Client
	Influx *influxdb.Client

	Version string
}

// Server is the loopback HTTP gateway.
//
// It is created with New(), which also wires the WebSocket push of
// check-in and session state, and started with Start().
type Server struct {
	cfg          config.GatewayConfig
	wsCfg        config.WebSocketConfig
	logger       *logging.Logger
	auth         *auth.Service
	reset        *auth.ResetFlow
	nav          *navigation.Router
	catalog      *catalog.Service
	checkin      *checkin.Verifier
	registration *registration.Service
	auditRepo    audit.Repository
	cache        *cache.Store
	db           *sql.DB
	mqtt         *mqtt.Client
	influx       *influxdb.Client
	version      string
	startTime    time.Time

	hub     *Hub
	handler http.Handler
	server  *http.Server
	addr    string
	cancel  context.CancelFunc
}

// New creates a gateway with the given dependencies.
//
// The server is not listening until Start() is called; Handler() is usable
// right away.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Navigation == nil {
		return nil, fmt.Errorf("navigation router is required")
	}

	s := &Server{
		cfg:          deps.Config,
		wsCfg:        deps.WS,
		logger:       deps.Logger.With("component", "gateway"),
		auth:         deps.Auth,
		reset:        deps.Reset,
		nav:          deps.Navigation,
		catalog:      deps.Catalog,
		checkin:      deps.Checkin,
		registration: deps.Registration,
		auditRepo:    deps.Audit,
		cache:        deps.Cache,
		db:           deps.DB,
		mqtt:         deps.MQTT,
		influx:       deps.Influx,
		version:      deps.Version,
		startTime:    time.Now(),
	}
	s.hub = NewHub(s.wsCfg, s.logger)

	s.hub.Channel(ChannelSessionState, func() any {
		return sessionPush{State: s.auth.State()}
	})
	s.auth.OnStateChange(func(st auth.State) {
		s.hub.Publish(ChannelSessionState, sessionPush{State: st})
	})
	if s.checkin != nil {
		s.hub.Channel(ChannelCheckinState, func() any {
			return checkin.Event{State: s.checkin.State(), At: time.Now().UTC()}
		})
		s.checkin.OnEvent(func(ev checkin.Event) {
			s.hub.Publish(ChannelCheckinState, ev)
		})
	}

	s.handler = s.buildRouter()
	return s, nil
}

// Handler returns the gateway's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections in a background goroutine.
// The listener is bound before Start returns, so a port conflict is
// reported here rather than logged later.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.handler,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.addr = ln.Addr().String()
	s.logger.Info("gateway listening", "address", s.addr)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address once Start has succeeded.
func (s *Server) Addr() string {
	return s.addr
}

// Close gracefully shuts down the gateway.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("gateway shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down gateway: %w", err)
	}
	return nil
}

// HealthCheck verifies the gateway is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("gateway health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("gateway not started")
	}
	return nil
}
