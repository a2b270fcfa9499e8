package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults when the corresponding field is unset.
const (
	DefaultAddr            = ":8080"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	DefaultPrefsBackend    = "sqlite"
	DefaultPrefsPath       = "~/.wearrelay/prefs.db"
	DefaultWatchdogSeconds = 30
	DefaultSystemID        = 255
	DefaultSerialDevice    = "/dev/ttyUSB0"
	DefaultHeartbeatSecs   = 5
)

// Config holds runtime parameters for the relay.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr     string         `json:"addr" yaml:"addr" toml:"addr"`
	Log      LogConfig      `json:"log" yaml:"log" toml:"log"`
	Prefs    PrefsConfig    `json:"prefs" yaml:"prefs" toml:"prefs"`
	Watchdog WatchdogConfig `json:"watchdog" yaml:"watchdog" toml:"watchdog"`
	Drone    DroneConfig    `json:"drone" yaml:"drone" toml:"drone"`
	Auth     AuthConfig     `json:"auth" yaml:"auth" toml:"auth"`
	CORS     CORSConfig     `json:"cors" yaml:"cors" toml:"cors"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"` // console|json
	// File enables rotated file output in addition to stderr.
	File       string `json:"file" yaml:"file" toml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" toml:"max_age_days"`
}

type PrefsConfig struct {
	Backend string `json:"backend" yaml:"backend" toml:"backend"` // sqlite|memory
	Path    string `json:"path" yaml:"path" toml:"path"`
	// Seed values are written only when the key is not stored yet.
	Seed map[string]string `json:"seed" yaml:"seed" toml:"seed"`
}

type WatchdogConfig struct {
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

type DroneConfig struct {
	SystemID         int    `json:"system_id" yaml:"system_id" toml:"system_id"`
	SerialDevice     string `json:"serial_device" yaml:"serial_device" toml:"serial_device"`
	HeartbeatSeconds int    `json:"heartbeat_timeout_seconds" yaml:"heartbeat_timeout_seconds" toml:"heartbeat_timeout_seconds"`

	// RFCOMMBindings maps a radio's Bluetooth address to the RFCOMM node
	// it is bound to (rfcomm bind).
	RFCOMMBindings map[string]string `json:"rfcomm_bindings" yaml:"rfcomm_bindings" toml:"rfcomm_bindings"`
}

type AuthConfig struct {
	// HS256Secret enables bearer token checks on mutating endpoints.
	HS256Secret string `json:"hs256_secret" yaml:"hs256_secret" toml:"hs256_secret"`
}

type CORSConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Prefs.Backend == "" {
		c.Prefs.Backend = DefaultPrefsBackend
	}
	if c.Prefs.Path == "" {
		c.Prefs.Path = DefaultPrefsPath
	}
	if c.Watchdog.TimeoutSeconds <= 0 {
		c.Watchdog.TimeoutSeconds = DefaultWatchdogSeconds
	}
	if c.Drone.SystemID <= 0 || c.Drone.SystemID > 255 {
		c.Drone.SystemID = DefaultSystemID
	}
	if c.Drone.SerialDevice == "" {
		c.Drone.SerialDevice = DefaultSerialDevice
	}
	if c.Drone.HeartbeatSeconds <= 0 {
		c.Drone.HeartbeatSeconds = DefaultHeartbeatSecs
	}
}
