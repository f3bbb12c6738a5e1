package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/ratpad-bridge/internal/audit"
	"github.com/nerrad567/ratpad-bridge/internal/bridge"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/config"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/database"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/ratpad-bridge/internal/pad"
	"github.com/nerrad567/ratpad-bridge/internal/process"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// WebSocket channels.
const (
	ChannelPadEvent     = "pad.event"
	ChannelStateChanged = "state.changed"
)

// HealthChecker is a component reported by /health.
// *mqtt.Client, *influxdb.Client and *database.DB satisfy it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ActionStats reports key action runs. *process.Runner satisfies it.
type ActionStats interface {
	Stats() process.Stats
}

// TelemetryStats reports time-series writes. *influxdb.Client satisfies it.
type TelemetryStats interface {
	Stats() influxdb.Stats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Store    *bridge.Store
	Executor *bridge.Executor
	Events   *bridge.EventChannel

	// Optional.
	Journal   audit.Repository
	DB        *database.DB
	Actions   ActionStats
	Telemetry TelemetryStats
	Checks    map[string]HealthChecker
	UI        http.Handler
	Version   string
}

// Server is the HTTP API server the desktop UI talks to.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	store     *bridge.Store
	exec      *bridge.Executor
	events    *bridge.EventChannel
	journal   audit.Repository
	db        *database.DB
	actions   ActionStats
	telemetry TelemetryStats
	checks    map[string]HealthChecker
	ui        http.Handler
	version   string
	startTime time.Time

	server  *http.Server
	hub     *Hub
	cancel  context.CancelFunc
	detach  []func()
	running bool
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil || deps.Executor == nil || deps.Events == nil {
		return nil, fmt.Errorf("store, executor and events are required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		store:     deps.Store,
		exec:      deps.Executor,
		events:    deps.Events,
		journal:   deps.Journal,
		db:        deps.DB,
		actions:   deps.Actions,
		telemetry: deps.Telemetry,
		checks:    deps.Checks,
		ui:        deps.UI,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       NewHub(deps.WS, deps.Logger),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, relays pad events and state changes to it,
// and launches the HTTP listener in a background goroutine. The server can
// be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.relay()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}
	s.running = true

	go func() {
		s.logger.Info("API server listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// relay forwards pad events and store snapshots to WebSocket subscribers.
func (s *Server) relay() {
	s.hub.SetInitial(ChannelStateChanged, func() any { return s.store.Snapshot() })
	s.detach = append(s.detach,
		s.events.Subscribe(func(e protocol.Event) {
			s.hub.Broadcast(ChannelPadEvent, e)
		}),
		s.store.Watch(func(state pad.AppState) {
			s.hub.Broadcast(ChannelStateChanged, state)
		}),
	)
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	for _, fn := range s.detach {
		fn()
	}
	s.detach = nil
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil || !s.running {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}
