// Tuya BLE Bridge
//
// This is the main entry point for the Tuya BLE MQTT bridge. The bridge
// connects to paired Tuya BLE devices (fingerbots, smart locks, CO2 and
// climate sensors, irrigation valves), mirrors their datapoints onto an
// MQTT topic tree, and accepts entity commands back over MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/quarrylane/tuya-ble-bridge/internal/bridge"
	"github.com/quarrylane/tuya-ble-bridge/internal/history"
	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/config"
	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/database"
	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/logging"
	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/mqtt"
	"github.com/quarrylane/tuya-ble-bridge/internal/platform"
	"github.com/quarrylane/tuya-ble-bridge/internal/registry"
	"github.com/quarrylane/tuya-ble-bridge/internal/tuyable"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Tuya BLE bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
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
	log.Info("database connected", "path", cfg.Database.Path)

	// Initialise the paired-device registry and seed it from config.
	// Already-known addresses are left untouched so registry state
	// (last-seen timestamps) survives restarts.
	repo, err := registry.NewSQLiteRepository(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("initialising device registry: %w", err)
	}
	if err := registry.Seed(ctx, repo, pairedDevices(cfg.Devices)); err != nil {
		return fmt.Errorf("seeding device registry: %w", err)
	}
	paired, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}
	log.Info("device registry initialised", "devices", len(paired))

	// Connect to MQTT broker
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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect the datapoint history recorder (optional)
	recorder, err := history.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, history.ErrDisabled):
		log.Info("datapoint history disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing history recorder")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing history recorder", "error", closeErr)
			}
		}()
		recorder.SetOnError(func(err error) {
			log.Error("history write error", "error", err)
		})
		log.Info("datapoint history enabled",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// Enable the BLE adapter
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("enabling BLE adapter: %w", err)
	}
	log.Info("BLE adapter enabled")

	// Wire the bridge
	publisher := platform.NewPublisher(mqttClient, log)

	opts := bridge.Options{
		Registry:  repo,
		Publisher: publisher,
		Dialer:    bleDialer(adapter, cfg.Bluetooth),
		Logger:    log,
	}
	if recorder != nil {
		opts.History = recorder
	}

	b, err := bridge.New(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, recorder); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	b.Stop()

	// Deferred Close() calls will run in reverse order:
	// 1. History recorder (if enabled)
	// 2. MQTT
	// 3. Database

	log.Info("Tuya BLE bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TUYABLE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TUYABLE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// pairedDevices converts config entries to registry records.
func pairedDevices(devices []config.DeviceConfig) []registry.PairedDevice {
	records := make([]registry.PairedDevice, 0, len(devices))
	for _, d := range devices {
		records = append(records, registry.PairedDevice{
			Address:   d.Address,
			Name:      d.Name,
			Category:  d.Category,
			ProductID: d.ProductID,
			DeviceID:  d.DeviceID,
			LocalKey:  d.LocalKey,
			UUID:      d.UUID,
		})
	}
	return records
}

// bleDialer builds the bridge's dial function over a real BLE adapter.
func bleDialer(adapter *bluetooth.Adapter, cfg config.BluetoothConfig) bridge.Dialer {
	return func(ctx context.Context, device *registry.PairedDevice, notify func([]byte)) (tuyable.Transport, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return tuyable.Dial(adapter, device.Address, tuyable.DialOptions{
			ScanTimeout:    time.Duration(cfg.ScanTimeout) * time.Second,
			ConnectTimeout: time.Duration(cfg.ConnectTimeout) * time.Second,
			Notify:         notify,
		})
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - recorder: History recorder to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, recorder *history.Recorder) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check history recorder (if enabled)
	if recorder != nil {
		if err := recorder.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
