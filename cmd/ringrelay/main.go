// ring-relay - Ring cloud to MQTT/InfluxDB bridge
//
// This is the main entry point for the ring-relay daemon. It signs in
// to a Ring account, watches camera activity and alarm device state,
// and republishes both to an MQTT broker and an InfluxDB bucket, with
// a small local HTTP API for inspection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/ring-relay/internal/alarm"
	"github.com/nerrad567/ring-relay/internal/api"
	"github.com/nerrad567/ring-relay/internal/infrastructure/config"
	"github.com/nerrad567/ring-relay/internal/infrastructure/influxdb"
	"github.com/nerrad567/ring-relay/internal/infrastructure/logging"
	"github.com/nerrad567/ring-relay/internal/infrastructure/mqtt"
	"github.com/nerrad567/ring-relay/internal/relay"
	"github.com/nerrad567/ring-relay/internal/rest"
	"github.com/nerrad567/ring-relay/internal/ring"
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

// healthSnapshotInterval is how often camera health reports are
// fetched and forwarded to the sinks.
const healthSnapshotInterval = time.Hour

func main() {
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
	log.Info("starting ring-relay",
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

	// Authenticated transport to the Ring cloud
	restClient := rest.New(cfg.Ring)
	restClient.SetLogger(log.With("component", "rest"))

	ringClient := ring.NewClient(restClient, cfg.Ring.ConnectionsURL, cfg.Alarm.GetReconnectDelay())
	ringClient.SetLogger(log.With("component", "ring"))

	// Connect to MQTT broker (optional)
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
		mqttClient.SetLogger(log.With("component", "mqtt"))
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
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
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
	} else {
		log.Info("InfluxDB disabled")
	}

	// Event relay between the Ring client and the sinks. Interface
	// fields stay nil for disabled sinks.
	eventRelay := buildRelay(mqttClient, influxClient)
	eventRelay.SetLogger(log.With("component", "relay"))

	// Discover alarm locations and bind their device pushes to the relay
	alarms, err := ringClient.Alarms(ctx)
	if err != nil {
		return fmt.Errorf("discovering alarms: %w", err)
	}
	for _, a := range alarms {
		a.Session().SetLogger(log.With("component", "alarm", "location_id", a.LocationID()))
		a.Registry().SetLogger(log.With("component", "registry", "location_id", a.LocationID()))
		eventRelay.BindAlarm(a)
		defer a.Close()

		// Prime the hub session and device view now rather than on
		// first request, so pushes start flowing immediately.
		devices, devErr := a.Devices(ctx)
		if devErr != nil {
			return fmt.Errorf("loading alarm devices for %s: %w", a.LocationID(), devErr)
		}
		log.Info("alarm location connected",
			"location_id", a.LocationID(),
			"devices", len(devices),
		)
	}
	if len(alarms) == 0 {
		log.Info("no alarm locations on account")
	}

	// Periodic camera health snapshots, only worthwhile with a sink
	if mqttClient != nil || influxClient != nil {
		go runHealthSnapshots(ctx, ringClient, eventRelay, log)
	}

	// Poll for camera activity (optional)
	if cfg.Poll.Enabled {
		poller := ring.NewPoller(ringClient, cfg.Poll.GetPollInterval())
		poller.OnActivity(eventRelay.HandleDing)
		poller.Start(ctx)
		defer poller.Stop()
		log.Info("activity poller started", "interval", cfg.Poll.GetPollInterval())
	} else {
		log.Info("activity polling disabled")
	}

	// Local status API (optional)
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.With("component", "api"),
			Source:  ringClient,
			Alarms:  alarmViews(alarms),
			Checks:  buildHealthChecks(mqttClient, influxClient),
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))
	} else {
		log.Info("API server disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Poller
	// 3. Alarm sessions
	// 4. InfluxDB (if enabled)
	// 5. MQTT (if enabled)

	log.Info("ring-relay stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RINGRELAY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RINGRELAY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildRelay wires the enabled sinks into a relay. A typed nil pointer
// must not end up in an interface field, hence the explicit checks.
func buildRelay(mqttClient *mqtt.Client, influxClient *influxdb.Client) *relay.Relay {
	var publisher relay.Publisher
	if mqttClient != nil {
		publisher = mqttClient
	}
	var telemetry relay.Telemetry
	if influxClient != nil {
		telemetry = influxClient
	}
	return relay.New(publisher, telemetry)
}

// alarmViews adapts discovered alarms to the API's read surface.
func alarmViews(alarms []*alarm.Alarm) []api.AlarmView {
	views := make([]api.AlarmView, 0, len(alarms))
	for _, a := range alarms {
		views = append(views, a)
	}
	return views
}

// runHealthSnapshots periodically fetches camera health reports and
// forwards them to the relay sinks. Failures are logged and skipped;
// the next tick tries again.
func runHealthSnapshots(ctx context.Context, client *ring.Client, eventRelay *relay.Relay, log *logging.Logger) {
	ticker := time.NewTicker(healthSnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		list, err := client.Devices(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("health snapshot device listing failed", "error", err)
			}
			continue
		}

		for _, d := range list.Doorbells {
			if h, healthErr := d.Health(ctx); healthErr == nil {
				eventRelay.HandleHealth(d.ID, h)
			} else if ctx.Err() == nil {
				log.Warn("doorbell health fetch failed", "device_id", d.ID, "error", healthErr)
			}
		}
		for _, d := range list.Cameras {
			if h, healthErr := d.Health(ctx); healthErr == nil {
				eventRelay.HandleHealth(d.ID, h)
			} else if ctx.Err() == nil {
				log.Warn("camera health fetch failed", "device_id", d.ID, "error", healthErr)
			}
		}
	}
}

// buildHealthChecks assembles the component probes reported by the
// health endpoint.
func buildHealthChecks(mqttClient *mqtt.Client, influxClient *influxdb.Client) map[string]func(ctx context.Context) error {
	checks := make(map[string]func(ctx context.Context) error)
	if mqttClient != nil {
		checks["mqtt"] = func(context.Context) error {
			return mqttClient.HealthCheck()
		}
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient.HealthCheck
	}
	return checks
}
