package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
		},
		{
			name:    "interval too short",
			modify:  func(c *Config) { c.PollingInterval = 10 * time.Millisecond },
			wantErr: "interval",
		},
		{
			name:    "zero http timeout",
			modify:  func(c *Config) { c.HTTPTimeout = 0 },
			wantErr: "http timeout",
		},
		{
			name:    "empty target url",
			modify:  func(c *Config) { c.TargetHeightURL = "" },
			wantErr: "target height url",
		},
		{
			name:    "ftp canister url",
			modify:  func(c *Config) { c.CanisterMetricsURL = "ftp://example.com/metrics" },
			wantErr: "canister metrics url",
		},
		{
			name:    "relative url",
			modify:  func(c *Config) { c.TargetHeightURL = "/q/getblockcount" },
			wantErr: "target height url",
		},
		{
			name:    "pattern with two groups",
			modify:  func(c *Config) { c.CanisterHeightPattern = `\nmain_chain_height (\d+) (\d+)\n` },
			wantErr: "pattern",
		},
		{
			name:    "pattern with no group",
			modify:  func(c *Config) { c.CanisterHeightPattern = `main_chain_height \d+` },
			wantErr: "pattern",
		},
		{
			name:    "address without port",
			modify:  func(c *Config) { c.MetricsAddr = "0.0.0.0" },
			wantErr: "metrics_addr",
		},
		{
			name:    "port out of range",
			modify:  func(c *Config) { c.MetricsAddr = ":70000" },
			wantErr: "metrics_addr",
		},
		{
			name:   "port only",
			modify: func(c *Config) { c.MetricsAddr = ":8008" },
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "logging",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := NewValidator().Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidator_NilConfig(t *testing.T) {
	assert.Error(t, NewValidator().Validate(nil))
}

type rejectAll struct{}

func (rejectAll) Name() string               { return "reject" }
func (rejectAll) Validate(cfg *Config) error { return errors.New("always") }

func TestValidator_AddRule(t *testing.T) {
	v := NewValidator()
	v.AddRule(rejectAll{})

	err := v.Validate(DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reject: always")
}
