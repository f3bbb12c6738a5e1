package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport modes.
const (
	// TransportMQTT talks to the serial daemon through the MQTT broker.
	TransportMQTT = "mqtt"

	// TransportSimulator uses the in-process simulated pad.
	TransportSimulator = "simulator"
)

// DefaultPath is used when RATPAD_CONFIG is not set.
const DefaultPath = "configs/config.yaml"

// Config is the root configuration structure for ratpadd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Transport TransportConfig `yaml:"transport"`
	Actions   ActionsConfig   `yaml:"actions"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies the pad and the serial link used on startup.
type DeviceConfig struct {
	// ID names the pad in MQTT topics and telemetry tags.
	ID string `yaml:"id"`

	// Port is the serial port connected when AutoConnect is set.
	Port string `yaml:"port"`

	// BaudRate is the serial rate sent with serial.connect.
	BaudRate int `yaml:"baud_rate"`

	// AutoConnect connects to Port on startup.
	AutoConnect bool `yaml:"auto_connect"`

	// ConnectTimeout is how long a connect may stay Waiting (seconds).
	// 0 disables the timeout.
	ConnectTimeout int `yaml:"connect_timeout"`
}

// TransportConfig selects how commands reach the pad.
type TransportConfig struct {
	// Mode is "mqtt" or "simulator".
	Mode string `yaml:"mode"`

	// CommandTimeout bounds a single command round trip (seconds).
	CommandTimeout int `yaml:"command_timeout"`
}

// ActionsConfig controls how key actions of type "command" are run when the
// pad reports a key press.
type ActionsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Timeout bounds a single action run (seconds).
	Timeout int `yaml:"timeout"`

	// AllowedCommands restricts which executables may be started.
	// Empty allows any command.
	AllowedCommands []string `yaml:"allowed_commands"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// UIDir is a built web UI served at /. Empty disables it.
	UIDir string `yaml:"ui_dir"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Path returns the configuration file path from RATPAD_CONFIG, or
// DefaultPath.
func Path() string {
	if v := os.Getenv("RATPAD_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RATPAD_SECTION_KEY
// For example: RATPAD_DEVICE_PORT, RATPAD_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration, used when no file exists.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:             "ratpad",
			Port:           "/dev/ttyACM0",
			BaudRate:       115200,
			ConnectTimeout: 10,
		},
		Transport: TransportConfig{
			Mode:           TransportMQTT,
			CommandTimeout: 5,
		},
		Actions: ActionsConfig{
			Timeout: 30,
		},
		Database: DatabaseConfig{
			Path:        "./data/ratpad.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ratpadd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8765,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "ratpad",
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

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RATPAD_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Device
	if v := os.Getenv("RATPAD_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("RATPAD_DEVICE_PORT"); v != "" {
		cfg.Device.Port = v
	}
	if v := os.Getenv("RATPAD_DEVICE_BAUD_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATPAD_DEVICE_BAUD_RATE: %w", err)
		}
		cfg.Device.BaudRate = rate
	}

	// Transport
	if v := os.Getenv("RATPAD_TRANSPORT_MODE"); v != "" {
		cfg.Transport.Mode = v
	}

	// Database
	if v := os.Getenv("RATPAD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("RATPAD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RATPAD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RATPAD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("RATPAD_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("RATPAD_API_UI_DIR"); v != "" {
		cfg.API.UIDir = v
	}

	// InfluxDB
	if v := os.Getenv("RATPAD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// Device validation
	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	} else if strings.ContainsAny(c.Device.ID, "/+# ") {
		errs = append(errs, "device.id must not contain '/', '+', '#' or spaces")
	}
	if c.Device.BaudRate <= 0 {
		errs = append(errs, "device.baud_rate must be positive")
	}
	if c.Device.AutoConnect && c.Device.Port == "" {
		errs = append(errs, "device.port is required when device.auto_connect is set")
	}
	if c.Device.ConnectTimeout < 0 {
		errs = append(errs, "device.connect_timeout must not be negative")
	}

	// Transport validation
	switch c.Transport.Mode {
	case TransportMQTT, TransportSimulator:
	default:
		errs = append(errs, fmt.Sprintf("transport.mode must be %q or %q", TransportMQTT, TransportSimulator))
	}
	if c.Transport.CommandTimeout <= 0 {
		errs = append(errs, "transport.command_timeout must be positive")
	}

	// Actions validation
	if c.Actions.Enabled && c.Actions.Timeout <= 0 {
		errs = append(errs, "actions.timeout must be positive")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetCommandTimeout returns the transport command timeout as a Duration.
func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Transport.CommandTimeout) * time.Second
}

// GetConnectTimeout returns the connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Device.ConnectTimeout) * time.Second
}

// GetActionTimeout returns the action run timeout as a Duration.
func (c *Config) GetActionTimeout() time.Duration {
	return time.Duration(c.Actions.Timeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
