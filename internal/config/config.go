package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultPollingInterval       = 10 * time.Second
	DefaultTargetHeightURL       = "https://blockchain.info/q/getblockcount"
	DefaultCanisterMetricsURL    = "https://g4xu7-jiaaa-aaaan-aaaaq-cai.raw.ic0.app/metrics"
	DefaultCanisterHeightPattern = `\nmain_chain_height (\d+) \d+\n`
	DefaultMetricsAddr           = "0.0.0.0:9090"
	DefaultHTTPTimeout           = 10 * time.Second
	DefaultLogLevel              = "info"
	DefaultTimeFormatLogs        = "iso8601"
	MinPollingInterval           = 100 * time.Millisecond

	// EnvPrefix is prepended to every environment variable, e.g.
	// BTCPROBE_POLLING_INTERVAL
	EnvPrefix = "BTCPROBE"
)

// Configuration keys, shared by config files, environment and flags
const (
	KeyPollingInterval       = "polling_interval"
	KeyTargetHeightURL       = "target_height_url"
	KeyCanisterMetricsURL    = "canister_metrics_url"
	KeyCanisterHeightPattern = "canister_height_pattern"
	KeyMetricsAddr           = "metrics_addr"
	KeyHTTPTimeout           = "http_timeout"
	KeyContinueOnError       = "continue_on_error"
	KeyLogLevel              = "log_level"
	KeyColorLogs             = "color_logs"
	KeyDisableLogs           = "disable_logs"
	KeyTimeFormatLogs        = "time_format_logs"
)

// Config holds all configuration for the probe
type Config struct {
	// Polling
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	ContinueOnError bool          `mapstructure:"continue_on_error"`

	// Sources
	TargetHeightURL       string `mapstructure:"target_height_url"`
	CanisterMetricsURL    string `mapstructure:"canister_metrics_url"`
	CanisterHeightPattern string `mapstructure:"canister_height_pattern"`

	// Metrics server
	MetricsAddr string `mapstructure:"metrics_addr"`

	// Logging
	LogLevel       string `mapstructure:"log_level"`
	ColorLogs      bool   `mapstructure:"color_logs"`
	DisableLogs    bool   `mapstructure:"disable_logs"`
	TimeFormatLogs string `mapstructure:"time_format_logs"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		PollingInterval:       DefaultPollingInterval,
		HTTPTimeout:           DefaultHTTPTimeout,
		TargetHeightURL:       DefaultTargetHeightURL,
		CanisterMetricsURL:    DefaultCanisterMetricsURL,
		CanisterHeightPattern: DefaultCanisterHeightPattern,
		MetricsAddr:           DefaultMetricsAddr,
		LogLevel:              DefaultLogLevel,
		TimeFormatLogs:        DefaultTimeFormatLogs,
	}
}

// settings flattens the config into viper keys. Durations are rendered as
// strings so the output can be read back from a config file.
func (c *Config) settings() map[string]interface{} {
	return map[string]interface{}{
		KeyPollingInterval:       c.PollingInterval.String(),
		KeyHTTPTimeout:           c.HTTPTimeout.String(),
		KeyContinueOnError:       c.ContinueOnError,
		KeyTargetHeightURL:       c.TargetHeightURL,
		KeyCanisterMetricsURL:    c.CanisterMetricsURL,
		KeyCanisterHeightPattern: c.CanisterHeightPattern,
		KeyMetricsAddr:           c.MetricsAddr,
		KeyLogLevel:              c.LogLevel,
		KeyColorLogs:             c.ColorLogs,
		KeyDisableLogs:           c.DisableLogs,
		KeyTimeFormatLogs:        c.TimeFormatLogs,
	}
}

// NewViper returns a viper instance with defaults and environment lookup
// configured. Flags are bound by the caller.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range DefaultConfig().settings() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configFile (if set) into v and decodes the merged result.
// Precedence follows viper: flags, environment, config file, defaults.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}

// Marshal renders the configuration in the given format (yaml or toml).
func (c *Config) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml", "":
		return yaml.Marshal(c.settings())
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c.settings()); err != nil {
			return nil, fmt.Errorf("failed to encode toml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want yaml or toml)", format)
	}
}
