package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"go.uber.org/zap/zapcore"

	"github.com/wemix/btcprobe/internal/height"
)

// ValidationRule represents a configuration validation rule
type ValidationRule interface {
	Name() string
	Validate(cfg *Config) error
}

// Validator validates configuration
type Validator struct {
	rules []ValidationRule
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := &Validator{}

	// Register default validation rules
	v.registerDefaultRules()

	return v
}

// Validate validates the configuration
func (v *Validator) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	// Run all validation rules
	var errs []error
	for _, rule := range v.rules {
		if err := rule.Validate(cfg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rule.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// AddRule adds a custom validation rule
func (v *Validator) AddRule(rule ValidationRule) {
	v.rules = append(v.rules, rule)
}

// registerDefaultRules registers default validation rules
func (v *Validator) registerDefaultRules() {
	v.rules = []ValidationRule{
		&intervalValidationRule{},
		&sourceValidationRule{},
		&patternValidationRule{},
		&addressValidationRule{},
		&loggingValidationRule{},
	}
}

// Interval validation rule
type intervalValidationRule struct{}

func (r *intervalValidationRule) Name() string {
	return "interval"
}

func (r *intervalValidationRule) Validate(cfg *Config) error {
	if cfg.PollingInterval < MinPollingInterval {
		return fmt.Errorf("polling interval %v too short (minimum %v)", cfg.PollingInterval, MinPollingInterval)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	return nil
}

// Source URL validation rule
type sourceValidationRule struct{}

func (r *sourceValidationRule) Name() string {
	return "source"
}

func (r *sourceValidationRule) Validate(cfg *Config) error {
	if err := validateHTTPURL(cfg.TargetHeightURL); err != nil {
		return fmt.Errorf("target height url: %w", err)
	}
	if err := validateHTTPURL(cfg.CanisterMetricsURL); err != nil {
		return fmt.Errorf("canister metrics url: %w", err)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("not set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// Extraction pattern validation rule
type patternValidationRule struct{}

func (r *patternValidationRule) Name() string {
	return "pattern"
}

func (r *patternValidationRule) Validate(cfg *Config) error {
	_, err := height.NewPatternCapture(cfg.CanisterHeightPattern)
	return err
}

// Metrics address validation rule
type addressValidationRule struct{}

func (r *addressValidationRule) Name() string {
	return "metrics_addr"
}

func (r *addressValidationRule) Validate(cfg *Config) error {
	_, port, err := net.SplitHostPort(cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("invalid bind address %q: %w", cfg.MetricsAddr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

// Logging validation rule
type loggingValidationRule struct{}

func (r *loggingValidationRule) Name() string {
	return "logging"
}

func (r *loggingValidationRule) Validate(cfg *Config) error {
	if cfg.LogLevel == "" {
		return nil
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}
