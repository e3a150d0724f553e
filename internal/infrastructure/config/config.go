package config

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for lightsd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	IPC      IPCConfig      `yaml:"ipc"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Logging  LoggingConfig  `yaml:"logging"`
	History  HistoryConfig  `yaml:"history"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
}

// DeviceConfig identifies the light being controlled.
type DeviceConfig struct {
	// Name is a label used in logs, history rows and metric tags.
	Name string `yaml:"name"`

	// Topic is the state topic the light reports on, e.g. "zigbee2mqtt/lamp".
	// Updates are published to Topic + "/set".
	Topic string `yaml:"topic"`

	// MaxBrightness is the brightness ceiling used by brighten and
	// set-brightness. Default: 254
	MaxBrightness uint64 `yaml:"max_brightness"`
}

// IPCConfig contains local socket settings.
type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`

	// SocketMode is an octal permission string, e.g. "0660".
	// Empty leaves the permissions to the process umask.
	SocketMode string `yaml:"socket_mode"`

	// ReadTimeout bounds a single client read in seconds. 0 disables it.
	ReadTimeout int `yaml:"read_timeout"`

	// MaxCommandSize is the largest payload accepted from a client, in bytes.
	MaxCommandSize int64 `yaml:"max_command_size"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker         MQTTBrokerConfig    `yaml:"broker"`
	Auth           MQTTAuthConfig      `yaml:"auth"`
	SubscribeQoS   int                 `yaml:"subscribe_qos"`
	PublishQoS     int                 `yaml:"publish_qos"`
	PublishTimeout int                 `yaml:"publish_timeout"`
	Reconnect      MQTTReconnectConfig `yaml:"reconnect"`
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
	// Enabled turns on paho's automatic reconnect. When false, a lost
	// connection ends the state subscription and stops the daemon.
	Enabled      bool `yaml:"enabled"`
	InitialDelay int  `yaml:"initial_delay"`
	MaxDelay     int  `yaml:"max_delay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// HistoryConfig contains the SQLite state history settings.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	BusyTimeout   int    `yaml:"busy_timeout"`
	RetentionDays int    `yaml:"retention_days"`
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

// APIConfig contains the read-only status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LIGHTSD_SECTION_KEY
// For example: LIGHTSD_MQTT_HOST, LIGHTSD_DEVICE_TOPIC
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.ClientID == "" {
		cfg.MQTT.Broker.ClientID = generateClientID()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:          "lamp",
			MaxBrightness: 254,
		},
		IPC: IPCConfig{
			SocketPath:     "/tmp/lights.sock",
			MaxCommandSize: 64,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			PublishTimeout: 5,
			Reconnect: MQTTReconnectConfig{
				Enabled:      true,
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		History: HistoryConfig{
			Path:          "./data/lightsd.db",
			BusyTimeout:   5,
			RetentionDays: 30,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8780,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LIGHTSD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("LIGHTSD_DEVICE_TOPIC"); v != "" {
		cfg.Device.Topic = v
	}

	// IPC
	if v := os.Getenv("LIGHTSD_SOCKET_PATH"); v != "" {
		cfg.IPC.SocketPath = v
	}

	// MQTT
	if v := os.Getenv("LIGHTSD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LIGHTSD_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("LIGHTSD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LIGHTSD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Logging
	if v := os.Getenv("LIGHTSD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// History
	if v := os.Getenv("LIGHTSD_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	// InfluxDB
	if v := os.Getenv("LIGHTSD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// generateClientID returns a broker client id unique to this process.
func generateClientID() string {
	return "lightsd-" + uuid.NewString()[:8]
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation
	if c.Device.Topic == "" {
		errs = append(errs, "device.topic is required")
	} else if strings.ContainsAny(c.Device.Topic, "+#") {
		errs = append(errs, "device.topic must not contain MQTT wildcards")
	}
	if c.Device.MaxBrightness == 0 {
		errs = append(errs, "device.max_brightness must be greater than 0")
	}

	// IPC validation
	if c.IPC.SocketPath == "" {
		errs = append(errs, "ipc.socket_path is required")
	}
	if _, err := c.GetSocketMode(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.IPC.ReadTimeout < 0 {
		errs = append(errs, "ipc.read_timeout must not be negative")
	}
	if c.IPC.MaxCommandSize < 0 {
		errs = append(errs, "ipc.max_command_size must not be negative")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.SubscribeQoS < 0 || c.MQTT.SubscribeQoS > 2 {
		errs = append(errs, "mqtt.subscribe_qos must be 0, 1, or 2")
	}
	if c.MQTT.PublishQoS < 0 || c.MQTT.PublishQoS > 2 {
		errs = append(errs, "mqtt.publish_qos must be 0, 1, or 2")
	}
	if c.MQTT.PublishTimeout < 1 {
		errs = append(errs, "mqtt.publish_timeout must be at least 1 second")
	}

	// History validation
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetSocketMode parses ipc.socket_mode. An empty value yields 0.
func (c *Config) GetSocketMode() (fs.FileMode, error) {
	if c.IPC.SocketMode == "" {
		return 0, nil
	}
	mode, err := strconv.ParseUint(c.IPC.SocketMode, 8, 32)
	if err != nil || mode > 0o777 {
		return 0, fmt.Errorf("ipc.socket_mode %q is not an octal permission", c.IPC.SocketMode)
	}
	return fs.FileMode(mode), nil
}

// GetIPCReadTimeout returns the client read timeout as a Duration.
func (c *Config) GetIPCReadTimeout() time.Duration {
	return time.Duration(c.IPC.ReadTimeout) * time.Second
}

// GetPublishTimeout returns the MQTT publish timeout as a Duration.
func (c *Config) GetPublishTimeout() time.Duration {
	return time.Duration(c.MQTT.PublishTimeout) * time.Second
}

// GetHistoryRetention returns how long history rows are kept. 0 keeps them forever.
func (c *Config) GetHistoryRetention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
