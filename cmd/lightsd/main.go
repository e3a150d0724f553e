// lightsd bridges a local unix socket to a light on an MQTT bus.
//
// Clients write one encoded command to the socket and close it. lightsd
// turns the command into a JSON delta against the light's last reported
// state and publishes it to <topic>/set. Device reports on <topic> keep
// the cached state current.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-lights/internal/api"
	"github.com/nerrad567/gray-logic-lights/internal/history"
	"github.com/nerrad567/gray-logic-lights/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-lights/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-lights/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-lights/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-lights/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-lights/internal/ipc"
	"github.com/nerrad567/gray-logic-lights/internal/light"
	"github.com/nerrad567/gray-logic-lights/internal/server"
	"github.com/nerrad567/gray-logic-lights/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "/etc/lightsd/config.yaml"

// historyPruneInterval is how often old history rows are deleted.
const historyPruneInterval = time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the collaborators and blocks until the server stops.
// It returns nil on a signal-driven shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting lightsd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"device", cfg.Device.Name,
		"topic", cfg.Device.Topic,
	)

	socketMode, err := cfg.GetSocketMode()
	if err != nil {
		return err
	}

	// Bind first so a bad socket path fails before any network work.
	ln, err := ipc.Listen(cfg.IPC.SocketPath, socketMode)
	if err != nil {
		return fmt.Errorf("opening control socket: %w", err)
	}
	defer func() {
		ln.Close() //nolint:errcheck // Already closed on a clean shutdown
		if rmErr := ipc.RemoveSocket(cfg.IPC.SocketPath); rmErr != nil {
			log.Warn("removing control socket", "error", rmErr)
		}
	}()
	log.Info("control socket listening", "path", cfg.IPC.SocketPath)

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttLog := log.With("component", "mqtt")
	mqttClient.SetLogger(mqttLog)
	mqttClient.SetOnDisconnect(func(err error) {
		mqttLog.Warn("MQTT connection lost", "error", err, "reconnect", cfg.MQTT.Reconnect.Enabled)
	})
	mqttClient.SetOnConnect(func() {
		mqttLog.Info("MQTT connected")
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	checks := map[string]api.HealthChecker{"mqtt": mqttClient}
	var recorders []server.Recorder

	var store *history.Store
	if cfg.History.Enabled {
		db, dbErr := openHistory(ctx, cfg)
		if dbErr != nil {
			return dbErr
		}
		store = history.NewStore(db.DB, cfg.Device.Name)
		recorders = append(recorders, store)
		checks["history"] = db

		stopPruner := func() {}
		if retention := cfg.GetHistoryRetention(); retention > 0 {
			stopPruner = store.StartPruner(ctx, retention, historyPruneInterval, log.With("component", "history"))
		}
		defer func() {
			stopPruner()
			log.Info("closing history database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		}()
		log.Info("history enabled", "path", cfg.History.Path)
	}

	influxClient, err := connectInfluxDB(cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB")
			influxClient.Close() //nolint:errcheck // Close always returns nil
		}()
		recorders = append(recorders, influxClient)
		checks["influxdb"] = influxClient
	}

	srv, err := server.New(server.Options{
		Topic:          cfg.Device.Topic,
		SubscribeQoS:   byte(cfg.MQTT.SubscribeQoS), // #nosec G115 -- validated 0-2
		PublishQoS:     byte(cfg.MQTT.PublishQoS),   // #nosec G115 -- validated 0-2
		Policy:         light.Policy{MaxBrightness: cfg.Device.MaxBrightness},
		ReadTimeout:    cfg.GetIPCReadTimeout(),
		MaxCommandSize: cfg.IPC.MaxCommandSize,
		Bus:            server.NewMQTTBus(mqttClient),
		Listener:       ln,
		Logger:         log.With("component", "server"),
		Recorders:      recorders,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if cfg.API.Enabled {
		apiServer, apiErr := startAPI(ctx, cfg, log, srv, store, checks)
		if apiErr != nil {
			return apiErr
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := srv.Start(ctx); err != nil {
		var loopErr *server.LoopError
		if errors.As(err, &loopErr) {
			log.Error("lightsd stopped", "loop", loopErr.Loop, "error", loopErr.Err)
		}
		return err
	}

	log.Info("lightsd stopped")
	return nil
}

// openHistory opens the history database and applies its schema.
func openHistory(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.History.Path,
		WALMode:     true,
		BusyTimeout: cfg.History.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running history migrations: %w", err)
	}

	return db, nil
}

// connectInfluxDB returns nil when telemetry is disabled. An unreachable
// server is logged and skipped; telemetry is never required to run.
func connectInfluxDB(cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.InfluxDB.Enabled {
		return nil, nil
	}

	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Device.Name)
	if err != nil {
		if errors.Is(err, influxdb.ErrConnectionFailed) {
			log.Warn("InfluxDB unavailable, telemetry disabled", "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}

	influxLog := log.With("component", "influxdb")
	client.SetOnError(func(err error) {
		influxLog.Warn("InfluxDB write failed", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

	return client, nil
}

func startAPI(ctx context.Context, cfg *config.Config, log *logging.Logger, srv *server.Server, store *history.Store, checks map[string]api.HealthChecker) (*api.Server, error) {
	deps := api.Deps{
		Config:  cfg.API,
		Logger:  log.With("component", "api"),
		Device:  cfg.Device.Name,
		Topic:   cfg.Device.Topic,
		State:   srv.Cache(),
		Checks:  checks,
		Version: version,
	}
	if store != nil {
		deps.History = store
	}

	apiServer, err := api.New(deps)
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting API server: %w", err)
	}
	return apiServer, nil
}

// getConfigPath returns the configuration file path.
// Checks LIGHTSD_CONFIG env var first, then falls back to default.
func getConfigPath() string {
	if path := os.Getenv("LIGHTSD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
