/*
Copyright 2024 SerialLink Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config provides configuration loading and management for serialmon.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Shoaibashk/serialmon/internal/serial"
	"github.com/spf13/viper"
)

// Config represents the complete monitor configuration
type Config struct {
	Monitor MonitorConfig `mapstructure:"monitor" yaml:"monitor"`
	Serial  SerialConfig  `mapstructure:"serial" yaml:"serial"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// MonitorConfig holds the parameters of a timed read session
type MonitorConfig struct {
	Device      string        `mapstructure:"device" yaml:"device"`
	Duration    time.Duration `mapstructure:"duration" yaml:"duration"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	Encoding    string        `mapstructure:"encoding" yaml:"encoding"`
	Errors      string        `mapstructure:"errors" yaml:"errors"`
	MaxLineSize int           `mapstructure:"max_line_size" yaml:"max_line_size"`
}

// SerialConfig holds serial port settings
type SerialConfig struct {
	BaudRate        int      `mapstructure:"baud_rate" yaml:"baud_rate"`
	DataBits        int      `mapstructure:"data_bits" yaml:"data_bits"`
	StopBits        string   `mapstructure:"stop_bits" yaml:"stop_bits"`
	Parity          string   `mapstructure:"parity" yaml:"parity"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig holds metrics/monitoring settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// DefaultConfig returns a configuration with the reference session values:
// 115200 baud, one second read window, twenty second run.
func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Duration:    20 * time.Second,
			ReadTimeout: time.Second,
			Encoding:    "utf-8",
			Errors:      "ignore",
			MaxLineSize: serial.DefaultMaxLineSize,
		},
		Serial: SerialConfig{
			BaudRate: 115200,
			DataBits: 8,
			StopBits: "1",
			Parity:   "none",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9090",
			Path:    "/metrics",
		},
	}
}

// ToPortConfig converts the serial and monitor settings into a concrete
// serial.PortConfig.
func (c *Config) ToPortConfig() (serial.PortConfig, error) {
	parity, err := serial.ParseParity(c.Serial.Parity)
	if err != nil {
		return serial.PortConfig{}, err
	}

	stopBits, err := serial.ParseStopBits(c.Serial.StopBits)
	if err != nil {
		return serial.PortConfig{}, err
	}

	return serial.PortConfig{
		BaudRate:      c.Serial.BaudRate,
		DataBits:      c.Serial.DataBits,
		StopBits:      stopBits,
		Parity:        parity,
		ReadTimeoutMs: int(c.Monitor.ReadTimeout / time.Millisecond),
	}, nil
}

// SetDefaults sets default values in viper
func SetDefaults() {
	defaults := DefaultConfig()

	// Monitor defaults
	viper.SetDefault("monitor.device", defaults.Monitor.Device)
	viper.SetDefault("monitor.duration", defaults.Monitor.Duration)
	viper.SetDefault("monitor.read_timeout", defaults.Monitor.ReadTimeout)
	viper.SetDefault("monitor.encoding", defaults.Monitor.Encoding)
	viper.SetDefault("monitor.errors", defaults.Monitor.Errors)
	viper.SetDefault("monitor.max_line_size", defaults.Monitor.MaxLineSize)

	// Serial defaults
	viper.SetDefault("serial.baud_rate", defaults.Serial.BaudRate)
	viper.SetDefault("serial.data_bits", defaults.Serial.DataBits)
	viper.SetDefault("serial.stop_bits", defaults.Serial.StopBits)
	viper.SetDefault("serial.parity", defaults.Serial.Parity)
	viper.SetDefault("serial.exclude_patterns", defaults.Serial.ExcludePatterns)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size", defaults.Logging.MaxSize)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.max_age", defaults.Logging.MaxAge)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	viper.SetDefault("metrics.address", defaults.Metrics.Address)
	viper.SetDefault("metrics.path", defaults.Metrics.Path)
}

// Load reads configuration from viper and returns a Config struct
func Load() (*Config, error) {
	cfg := &Config{}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	viper.SetConfigFile(path)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Load()
}

// Save writes configuration to a YAML file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	for key, value := range c.toMap() {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// toMap flattens config into viper keys
func (c *Config) toMap() map[string]interface{} {
	return map[string]interface{}{
		"monitor.device":          c.Monitor.Device,
		"monitor.duration":        c.Monitor.Duration.String(),
		"monitor.read_timeout":    c.Monitor.ReadTimeout.String(),
		"monitor.encoding":        c.Monitor.Encoding,
		"monitor.errors":          c.Monitor.Errors,
		"monitor.max_line_size":   c.Monitor.MaxLineSize,
		"serial.baud_rate":        c.Serial.BaudRate,
		"serial.data_bits":        c.Serial.DataBits,
		"serial.stop_bits":        c.Serial.StopBits,
		"serial.parity":           c.Serial.Parity,
		"serial.exclude_patterns": c.Serial.ExcludePatterns,
		"logging.level":           c.Logging.Level,
		"logging.format":          c.Logging.Format,
		"logging.file":            c.Logging.File,
		"logging.max_size":        c.Logging.MaxSize,
		"logging.max_backups":     c.Logging.MaxBackups,
		"logging.max_age":         c.Logging.MaxAge,
		"logging.compress":        c.Logging.Compress,
		"metrics.enabled":         c.Metrics.Enabled,
		"metrics.address":         c.Metrics.Address,
		"metrics.path":            c.Metrics.Path,
	}
}

// Validate checks if the configuration is valid. The device path is not
// checked here; commands that open a device require it.
func (c *Config) Validate() error {
	if c.Monitor.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}

	if c.Monitor.ReadTimeout < time.Millisecond {
		return fmt.Errorf("read_timeout must be at least 1ms")
	}

	if c.Serial.BaudRate < 1 {
		return fmt.Errorf("baud_rate must be positive")
	}

	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		return fmt.Errorf("data_bits must be between 5 and 8")
	}

	switch strings.ToLower(c.Monitor.Errors) {
	case "", "ignore", "replace":
	default:
		return fmt.Errorf("errors must be ignore or replace, got %q", c.Monitor.Errors)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics address is required when metrics are enabled")
	}

	portCfg, err := c.ToPortConfig()
	if err != nil {
		return fmt.Errorf("invalid serial settings: %w", err)
	}
	if err := portCfg.Validate(); err != nil {
		return fmt.Errorf("invalid serial settings: %w", err)
	}

	return nil
}

// UserConfigPath returns the user-specific configuration file path
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "serialmon", "config.yaml")
}

// InitViper initializes viper with default configuration paths
func InitViper(configFile string) error {
	SetDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Search in multiple locations
		home, _ := os.UserHomeDir()
		if home != "" {
			viper.AddConfigPath(filepath.Join(home, ".serialmon"))
			viper.AddConfigPath(filepath.Join(home, ".config", "serialmon"))
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/serialmon")

		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Environment variable support
	viper.SetEnvPrefix("SERIALMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults
	}

	return nil
}
