package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for ring-relay.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Ring     RingConfig     `yaml:"ring"`
	Poll     PollConfig     `yaml:"poll"`
	Alarm    AlarmConfig    `yaml:"alarm"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RingConfig contains the Ring account credentials and API endpoint settings.
type RingConfig struct {
	// Email and Password are the Ring account credentials used for the
	// password-grant OAuth flow. They can also be supplied via the
	// RING_USER and RING_PASSWORD environment variables.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// ServerRoot is the base URL of the Ring client API.
	ServerRoot string `yaml:"server_root"`

	// AuthURL is the OAuth token endpoint.
	AuthURL string `yaml:"auth_url"`

	// ConnectionsURL is the alarm hub connection coordinates endpoint.
	ConnectionsURL string `yaml:"connections_url"`

	// APIVersion is the client API version sent with every request.
	APIVersion int `yaml:"api_version"`

	// UserAgent identifies the client to the Ring API.
	UserAgent string `yaml:"user_agent"`

	// TransientCooldown is the wait in seconds before retrying a request
	// rejected with a known transient vendor error code (asset offline,
	// update in progress, maintenance).
	TransientCooldown int `yaml:"transient_cooldown"`

	// NetworkCooldown is the wait in seconds before retrying a request
	// that failed with a DNS or connect error.
	NetworkCooldown int `yaml:"network_cooldown"`
}

// PollConfig contains active-ding polling settings.
type PollConfig struct {
	Enabled bool `yaml:"enabled"`

	// Interval is the poll frequency in seconds. Five seconds matches the
	// rate the official Ring app uses.
	Interval int `yaml:"interval"`
}

// AlarmConfig contains realtime alarm session settings.
type AlarmConfig struct {
	// ReconnectDelay is the wait in milliseconds between hub socket
	// reconnection attempts.
	ReconnectDelay int `yaml:"reconnect_delay"`
}

// MQTTConfig contains MQTT relay settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTReconnectConfig contains broker reconnection backoff settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains local status API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RINGRELAY_SECTION_KEY, with the
// exception of the account credentials which keep the names RING_USER and
// RING_PASSWORD for compatibility with existing deployments.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
// Credentials are intentionally empty and must come from the file or environment.
func Default() *Config {
	return &Config{
		Ring: RingConfig{
			ServerRoot:        "https://api.ring.com",
			AuthURL:           "https://oauth.ring.com/oauth/token",
			ConnectionsURL:    "https://app.ring.com/api/v1/rs/connections",
			APIVersion:        11,
			UserAgent:         "android:com.ringapp:2.0.67(423)",
			TransientCooldown: 20,
			NetworkCooldown:   5,
		},
		Poll: PollConfig{
			Enabled:  true,
			Interval: 5,
		},
		Alarm: AlarmConfig{
			ReconnectDelay: 1000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ring-relay",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8584,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Ring credentials keep the original variable names
	if v := os.Getenv("RING_USER"); v != "" {
		cfg.Ring.Email = v
	}
	if v := os.Getenv("RING_PASSWORD"); v != "" {
		cfg.Ring.Password = v
	}
	if v := os.Getenv("RINGRELAY_SERVER_ROOT"); v != "" {
		cfg.Ring.ServerRoot = v
	}

	// MQTT
	if v := os.Getenv("RINGRELAY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RINGRELAY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RINGRELAY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("RINGRELAY_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("RINGRELAY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Credentials are mandatory: without them no session can be established
	if c.Ring.Email == "" || c.Ring.Password == "" {
		errs = append(errs, "ring.email and ring.password are required (or set RING_USER and RING_PASSWORD environment variables)")
	}
	if c.Ring.ServerRoot == "" {
		errs = append(errs, "ring.server_root is required")
	}
	if c.Ring.APIVersion < 1 {
		errs = append(errs, "ring.api_version must be positive")
	}

	if c.Poll.Enabled && c.Poll.Interval < 1 {
		errs = append(errs, "poll.interval must be at least 1 second")
	}

	if c.Alarm.ReconnectDelay < 1 {
		errs = append(errs, "alarm.reconnect_delay must be positive")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetTransientCooldown returns the transient-error retry cooldown as a Duration.
func (c *RingConfig) GetTransientCooldown() time.Duration {
	return time.Duration(c.TransientCooldown) * time.Second
}

// GetNetworkCooldown returns the network-error retry cooldown as a Duration.
func (c *RingConfig) GetNetworkCooldown() time.Duration {
	return time.Duration(c.NetworkCooldown) * time.Second
}

// GetPollInterval returns the ding poll interval as a Duration.
func (c *PollConfig) GetPollInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// GetReconnectDelay returns the alarm socket reconnect delay as a Duration.
func (c *AlarmConfig) GetReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelay) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
