package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
device:
  id: "desk-pad"
  port: "/dev/ttyACM1"
  baud_rate: 9600
  auto_connect: true
transport:
  mode: "simulator"
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  port: 9000
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "desk-pad" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "desk-pad")
	}
	if cfg.Device.Port != "/dev/ttyACM1" || cfg.Device.BaudRate != 9600 || !cfg.Device.AutoConnect {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Transport.Mode != TransportSimulator {
		t.Errorf("Transport.Mode = %q, want simulator", cfg.Transport.Mode)
	}
	if cfg.Transport.CommandTimeout != 5 {
		t.Errorf("Transport.CommandTimeout = %d, want default 5", cfg.Transport.CommandTimeout)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	_, err := Load(writeConfig(t, `
transport:
  mode: "serial"
`))
	if err == nil {
		t.Error("Load() expected validation error for unknown transport mode, got nil")
	}
}

func TestLoad_BadEnvBaudRate(t *testing.T) {
	t.Setenv("RATPAD_DEVICE_BAUD_RATE", "fast")
	if _, err := Load(writeConfig(t, "device:\n  id: pad\n")); err == nil {
		t.Error("Load() expected error for non-numeric baud rate, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantErr: false},
		{name: "missing device ID", mutate: func(c *Config) { c.Device.ID = "" }, wantErr: true},
		{name: "device ID with wildcard", mutate: func(c *Config) { c.Device.ID = "pad/#" }, wantErr: true},
		{name: "zero baud rate", mutate: func(c *Config) { c.Device.BaudRate = 0 }, wantErr: true},
		{
			name:    "auto connect without port",
			mutate:  func(c *Config) { c.Device.AutoConnect = true; c.Device.Port = "" },
			wantErr: true,
		},
		{name: "negative connect timeout", mutate: func(c *Config) { c.Device.ConnectTimeout = -1 }, wantErr: true},
		{name: "disabled connect timeout", mutate: func(c *Config) { c.Device.ConnectTimeout = 0 }, wantErr: false},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport.Mode = "serial" }, wantErr: true},
		{name: "zero command timeout", mutate: func(c *Config) { c.Transport.CommandTimeout = 0 }, wantErr: true},
		{
			name:    "actions without timeout",
			mutate:  func(c *Config) { c.Actions.Enabled = true; c.Actions.Timeout = 0 },
			wantErr: true,
		},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "influxdb without URL", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		Device:    DeviceConfig{ConnectTimeout: 10},
		Transport: TransportConfig{CommandTimeout: 5},
		Actions:   ActionsConfig{Timeout: 20},
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"command", cfg.GetCommandTimeout(), 5 * time.Second},
		{"connect", cfg.GetConnectTimeout(), 10 * time.Second},
		{"action", cfg.GetActionTimeout(), 20 * time.Second},
		{"read", cfg.API.GetReadTimeout(), 30 * time.Second},
		{"write", cfg.API.GetWriteTimeout(), 45 * time.Second},
		{"idle", cfg.API.GetIdleTimeout(), 60 * time.Second},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s timeout = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("RATPAD_DEVICE_ID", "studio")
	t.Setenv("RATPAD_DEVICE_PORT", "/dev/ttyUSB3")
	t.Setenv("RATPAD_DEVICE_BAUD_RATE", "57600")
	t.Setenv("RATPAD_TRANSPORT_MODE", "simulator")
	t.Setenv("RATPAD_DATABASE_PATH", "/custom/path.db")
	t.Setenv("RATPAD_MQTT_HOST", "mqtt.example.com")
	t.Setenv("RATPAD_MQTT_USERNAME", "testuser")
	t.Setenv("RATPAD_MQTT_PASSWORD", "testpass")
	t.Setenv("RATPAD_API_HOST", "192.168.1.1")
	t.Setenv("RATPAD_INFLUXDB_TOKEN", "secret-token")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	checks := []struct {
		name      string
		got, want any
	}{
		{"Device.ID", cfg.Device.ID, "studio"},
		{"Device.Port", cfg.Device.Port, "/dev/ttyUSB3"},
		{"Device.BaudRate", cfg.Device.BaudRate, 57600},
		{"Transport.Mode", cfg.Transport.Mode, TransportSimulator},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestPath(t *testing.T) {
	t.Setenv("RATPAD_CONFIG", "")
	if got := Path(); got != DefaultPath {
		t.Errorf("Path() = %q, want %q", got, DefaultPath)
	}
	t.Setenv("RATPAD_CONFIG", "/etc/ratpad.yaml")
	if got := Path(); got != "/etc/ratpad.yaml" {
		t.Errorf("Path() = %q, want /etc/ratpad.yaml", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Transport.Mode != TransportMQTT {
		t.Errorf("defaultConfig Transport.Mode = %q, want mqtt", cfg.Transport.Mode)
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", DefaultPath))
	if err != nil {
		t.Fatalf("Load(%s) error = %v", DefaultPath, err)
	}
	if cfg.Transport.Mode != TransportMQTT {
		t.Errorf("Transport.Mode = %q, want mqtt", cfg.Transport.Mode)
	}
	if len(cfg.API.CORS.AllowedOrigins) == 0 {
		t.Error("API.CORS.AllowedOrigins is empty")
	}
	if cfg.API.UIDir != "" {
		t.Errorf("API.UIDir = %q, want disabled", cfg.API.UIDir)
	}
}

func TestApplyEnvOverrides_UIDir(t *testing.T) {
	t.Setenv("RATPAD_API_UI_DIR", "/opt/ratpad/ui")
	cfg := defaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}
	if cfg.API.UIDir != "/opt/ratpad/ui" {
		t.Errorf("API.UIDir = %q", cfg.API.UIDir)
	}
}
