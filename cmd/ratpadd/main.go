// ratpadd bridges the RatPad macro pad to the desktop UI.
//
// It forwards typed commands to the pad's serial daemon over MQTT (or to an
// in-process simulated pad), keeps the last confirmed pad state, and serves
// both over HTTP and WebSocket. Key presses can run local commands, executed
// commands are journalled in SQLite, and pad events are optionally written
// to InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/ratpad-bridge/internal/actions"
	"github.com/nerrad567/ratpad-bridge/internal/api"
	"github.com/nerrad567/ratpad-bridge/internal/audit"
	"github.com/nerrad567/ratpad-bridge/internal/bridge"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/config"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/database"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/ratpad-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/ratpad-bridge/internal/padsim"
	"github.com/nerrad567/ratpad-bridge/internal/process"
	"github.com/nerrad567/ratpad-bridge/internal/telemetry"
	"github.com/nerrad567/ratpad-bridge/internal/transport"
	"github.com/nerrad567/ratpad-bridge/internal/webui"
	"github.com/nerrad567/ratpad-bridge/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// startupTimeout bounds the initial state query and auto-connect.
const startupTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting ratpadd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	checks := make(map[string]api.HealthChecker)

	// Database and command journal
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	checks["database"] = db
	journal := audit.NewSQLiteRepository(db.DB)
	log.Info("database ready", "path", cfg.Database.Path)

	// Transport
	tr, closeTransport, err := openTransport(cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeTransport()

	// Bridge core
	events := bridge.NewEventChannel(tr)
	events.SetLogger(log.Component("events"))
	defer events.Close()

	exec := bridge.NewExecutor(tr)
	exec.SetLogger(log.Component("executor"))
	exec.SetJournal(journal)

	store := bridge.NewStore(exec, events)
	store.SetLogger(log.Component("store"))
	store.SetConnectTimeout(cfg.GetConnectTimeout())
	defer store.Close()

	// Telemetry (optional)
	var telemetryStats api.TelemetryStats
	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
		telemetryStats = influxClient

		recorder := telemetry.NewRecorder(influxClient, cfg.Device.ID)
		recorder.SetLogger(log.Component("telemetry"))
		recorder.Attach(events)
		defer recorder.Detach()
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Key actions (optional)
	var actionStats api.ActionStats
	if cfg.Actions.Enabled {
		runner := process.NewRunner(process.Config{
			Timeout:         cfg.GetActionTimeout(),
			AllowedCommands: cfg.Actions.AllowedCommands,
			OnExit: func(res process.Result) {
				if res.Error != "" {
					log.Warn("key action failed", "action", res.Name, "exit_code", res.ExitCode, "error", res.Error)
				}
			},
		})
		runner.SetLogger(log.Component("actions"))
		defer func() {
			log.Info("stopping key actions")
			runner.Stop()
		}()

		dispatcher := actions.New(runner, store)
		dispatcher.SetLogger(log.Component("actions"))
		dispatcher.Attach(events)
		defer dispatcher.Detach()
		actionStats = runner
		log.Info("key actions enabled", "allowed", len(cfg.Actions.AllowedCommands))
	}

	// Initial state
	startCtx, cancelStart := context.WithTimeout(ctx, startupTimeout)
	syncInitialState(startCtx, cfg, store, log)
	cancelStart()

	// API server
	var ui http.Handler
	if cfg.API.UIDir != "" {
		if ui, err = webui.Handler(cfg.API.UIDir); err != nil {
			return fmt.Errorf("loading web UI: %w", err)
		}
		log.Info("serving web UI", "dir", cfg.API.UIDir)
	}

	srv, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log.Component("api"),
		Store:     store,
		Executor:  exec,
		Events:    events,
		Journal:   journal,
		DB:        db,
		Actions:   actionStats,
		Telemetry: telemetryStats,
		Checks:    checks,
		UI:        ui,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, actions, telemetry,
	// store, events, transport, database.
	log.Info("ratpadd stopped")
	return nil
}

// openTransport returns the configured transport and its cleanup.
// MQTT registers the broker and transport health checks in checks.
func openTransport(cfg *config.Config, log *logging.Logger, checks map[string]api.HealthChecker) (bridge.Transport, func(), error) {
	if cfg.Transport.Mode == config.TransportSimulator {
		log.Warn("using simulated pad", "port", padsim.DefaultPort)
		return padsim.New(), func() {}, nil
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Device.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	tr := transport.NewMQTT(mqttClient, mqttClient.Topics(), mqttClient.QoS(), cfg.GetCommandTimeout())
	tr.SetLogger(log.Component("transport"))
	if err := tr.Start(); err != nil {
		mqttClient.Close() //nolint:errcheck // Already failing
		return nil, nil, fmt.Errorf("starting MQTT transport: %w", err)
	}
	checks["mqtt"] = mqttClient
	checks["transport"] = tr

	return tr, func() {
		tr.Stop()
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}, nil
}

// syncInitialState connects when auto_connect is set, otherwise loads
// whatever state the daemon already has. Failures are logged; the UI can
// retry through the API.
func syncInitialState(ctx context.Context, cfg *config.Config, store *bridge.Store, log *logging.Logger) {
	if cfg.Device.AutoConnect {
		if err := store.Connect(ctx, cfg.Device.Port, uint32(cfg.Device.BaudRate)); err != nil {
			log.Warn("auto-connect failed", "port", cfg.Device.Port, "error", err)
		}
		return
	}
	if _, err := store.UpdateState(ctx); err != nil {
		log.Info("initial state not available", "error", err)
	}
}
