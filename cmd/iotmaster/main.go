// iotinator master - agent registry for a local IoT network.
//
// The master accepts registrations from agent devices over HTTP and MQTT,
// keeps them in an in-memory registry, pings them periodically, renames
// agents whose names collide, and exposes the registry to operators.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/iotinator/iotinator-master/migrations"

	"github.com/iotinator/iotinator-master/internal/agent"
	"github.com/iotinator/iotinator-master/internal/agent/httpprobe"
	"github.com/iotinator/iotinator-master/internal/api"
	"github.com/iotinator/iotinator-master/internal/audit"
	"github.com/iotinator/iotinator-master/internal/display"
	"github.com/iotinator/iotinator-master/internal/infrastructure/config"
	"github.com/iotinator/iotinator-master/internal/infrastructure/database"
	"github.com/iotinator/iotinator-master/internal/infrastructure/influxdb"
	"github.com/iotinator/iotinator-master/internal/infrastructure/logging"
	"github.com/iotinator/iotinator-master/internal/infrastructure/mqtt"
	"github.com/iotinator/iotinator-master/internal/ingest"
	"github.com/iotinator/iotinator-master/internal/supervisor"
	"github.com/iotinator/iotinator-master/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

const healthCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, blocks until ctx is cancelled, then shuts
// everything down in reverse order.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting iotinator master",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig(getConfigPath(), log)
	if err != nil {
		return err
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"master_id", cfg.Master.ID,
	)

	var observers agent.Observers

	// Audit trail (optional)
	var auditRepo audit.Repository
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database ready", "path", cfg.Database.Path)

		repo := audit.NewSQLiteRepository(db.DB)
		auditRepo = repo
		observers = append(observers, audit.NewRecorder(repo, log))
	} else {
		log.Info("audit trail disabled")
	}

	// Telemetry (optional)
	var influxClient *influxdb.Client
	var telemetryObserver *telemetry.Observer
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		telemetryObserver = telemetry.NewObserver(influxClient, nil)
		observers = append(observers, telemetryObserver)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Display sinks. The hub outlives the API server so the registry
	// never broadcasts into a closed hub.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(hubCtx)

	screen := display.NewScreen()
	displays := display.Multi{display.NewLogSink(log), screen, display.NewHubSink(hub)}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttSink := display.NewMQTTSink(mqttClient, mqtt.Topics{}.MasterDisplay(), log)
		defer mqttSink.Close()
		displays = append(displays, mqttSink)
	} else {
		log.Info("MQTT disabled")
	}

	registry := agent.NewRegistry(agent.Options{
		Prober: httpprobe.New(httpprobe.Config{
			Port:    cfg.Probe.Port,
			Timeout: cfg.Probe.Timeout,
		}),
		Display:        displays,
		Observer:       observers,
		Logger:         log.With("component", "registry"),
		MaxPayloadSize: cfg.Registry.MaxPayloadSize,
	})
	if telemetryObserver != nil {
		telemetryObserver.SetCounter(registry)
	}

	// MQTT ingestion and the retained agent list
	publishList := func() {}
	if mqttClient != nil {
		ingester := ingest.New(registry, mqttClient)
		ingester.SetLogger(log)
		if startErr := ingester.Start(ctx); startErr != nil {
			return fmt.Errorf("starting MQTT ingestion: %w", startErr)
		}
		publishList = func() {
			if pubErr := ingester.PublishList(); pubErr != nil {
				log.Warn("failed to publish agent list", "error", pubErr)
			}
		}
		publishList()
	}

	sup := supervisor.New(registry, supervisor.Config{
		PingInterval:   cfg.Supervisor.PingInterval,
		RenameInterval: cfg.Supervisor.RenameInterval,
		OnPing: func(report agent.PingReport) {
			publishList()
			if telemetryObserver != nil {
				telemetryObserver.RecordSweep(report)
			}
		},
		OnRename: func(int) { publishList() },
	})
	sup.SetLogger(log)
	sup.Start(ctx)
	defer func() {
		log.Info("stopping supervisor")
		sup.Stop()
	}()
	log.Info("supervisor started",
		"ping_interval", cfg.Supervisor.PingInterval,
		"rename_interval", cfg.Supervisor.RenameInterval,
	)

	deps := api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Logger:        log,
		Registry:      registry,
		AuditRepo:     auditRepo,
		Screen:        screen,
		Hub:           hub,
		OnListChanged: publishList,
		Version:       version,
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal",
		"api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up", "agents", registry.Count())
	return nil
}

// loadConfig loads the configuration file, falling back to built-in
// defaults when the file does not exist.
func loadConfig(path string, log *logging.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("configuration file not found, using defaults", "path", path)
		cfg = config.Default()
		if validateErr := cfg.Validate(); validateErr != nil {
			return nil, fmt.Errorf("validating default config: %w", validateErr)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", path)
	return cfg, nil
}

// getConfigPath returns the configuration file path.
// Uses IOTINATOR_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("IOTINATOR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the enabled infrastructure connections.
// Nil clients are disabled components and are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
