package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 10*time.Second, cfg.PollingInterval)
	assert.Equal(t, "https://blockchain.info/q/getblockcount", cfg.TargetHeightURL)
	assert.Equal(t, "https://g4xu7-jiaaa-aaaan-aaaaq-cai.raw.ic0.app/metrics", cfg.CanisterMetricsURL)
	assert.Equal(t, `\nmain_chain_height (\d+) \d+\n`, cfg.CanisterHeightPattern)
	assert.Equal(t, "0.0.0.0:9090", cfg.MetricsAddr)
	assert.False(t, cfg.ContinueOnError)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BTCPROBE_POLLING_INTERVAL", "30s")
	t.Setenv("BTCPROBE_METRICS_ADDR", "127.0.0.1:9191")
	t.Setenv("BTCPROBE_CONTINUE_ON_ERROR", "true")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.PollingInterval)
	assert.Equal(t, "127.0.0.1:9191", cfg.MetricsAddr)
	assert.True(t, cfg.ContinueOnError)
	assert.Equal(t, DefaultTargetHeightURL, cfg.TargetHeightURL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "btcprobe.yaml",
			content: `polling_interval: 1m
target_height_url: http://localhost:8080/height
canister_height_pattern: 'stable_height (\d+)'
`,
		},
		{
			name: "toml",
			file: "btcprobe.toml",
			content: `polling_interval = "1m"
target_height_url = "http://localhost:8080/height"
canister_height_pattern = 'stable_height (\d+)'
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			cfg, err := Load(NewViper(), path)
			require.NoError(t, err)

			assert.Equal(t, time.Minute, cfg.PollingInterval)
			assert.Equal(t, "http://localhost:8080/height", cfg.TargetHeightURL)
			assert.Equal(t, `stable_height (\d+)`, cfg.CanisterHeightPattern)
			assert.Equal(t, DefaultMetricsAddr, cfg.MetricsAddr)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btcprobe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics_addr: 127.0.0.1:1000\n"), 0o600))
	t.Setenv("BTCPROBE_METRICS_ADDR", "127.0.0.1:2000")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:2000", cfg.MetricsAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestMarshal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollingInterval = 45 * time.Second
	cfg.ContinueOnError = true

	for _, format := range []string{"yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			data, err := cfg.Marshal(format)
			require.NoError(t, err)
			assert.Contains(t, string(data), "polling_interval")
			assert.Contains(t, string(data), "45s")

			// rendered output is a valid config file
			path := filepath.Join(t.TempDir(), "btcprobe."+format)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			loaded, err := Load(NewViper(), path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestMarshal_UnsupportedFormat(t *testing.T) {
	_, err := DefaultConfig().Marshal("xml")
	assert.Error(t, err)
}
