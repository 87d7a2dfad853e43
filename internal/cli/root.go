package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wemix/btcprobe/internal/config"
)

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"polling-interval":                  config.KeyPollingInterval,
	"target-height-url":                 config.KeyTargetHeightURL,
	"bitcoin-canister-metrics-endpoint": config.KeyCanisterMetricsURL,
	"canister-height-pattern":           config.KeyCanisterHeightPattern,
	"metrics-addr":                      config.KeyMetricsAddr,
	"http-timeout":                      config.KeyHTTPTimeout,
	"continue-on-error":                 config.KeyContinueOnError,
	"log-level":                         config.KeyLogLevel,
	"color-logs":                        config.KeyColorLogs,
	"disable-logs":                      config.KeyDisableLogs,
	"log-time-format":                   config.KeyTimeFormatLogs,
}

// rootOptions is shared by all subcommands
type rootOptions struct {
	viper      *viper.Viper
	configFile string
}

// NewRootCommand creates the root command for btcprobe. Running it without
// a subcommand starts the probe.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{viper: config.NewViper()}

	cmd := &cobra.Command{
		Use:   "btcprobe",
		Short: "Bitcoin canister height probe",
		Long: `btcprobe compares the block height of the canonical Bitcoin chain with the
height reported by the Bitcoin canister and exports both, plus their
difference, as Prometheus gauges.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a YAML or TOML config file")
	addConfigFlags(flags)
	bindFlags(opts.viper, flags)

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func addConfigFlags(flags *pflag.FlagSet) {
	d := config.DefaultConfig()

	flags.Duration("polling-interval", d.PollingInterval, "Interval between poll cycles")
	flags.String("target-height-url", d.TargetHeightURL, "URL returning the canonical block height as a plain integer")
	flags.String("bitcoin-canister-metrics-endpoint", d.CanisterMetricsURL, "Bitcoin canister metrics URL")
	flags.String("canister-height-pattern", d.CanisterHeightPattern, "Regular expression with one capture group selecting the canister height")
	flags.String("metrics-addr", d.MetricsAddr, "Address the metrics server listens on")
	flags.Duration("http-timeout", d.HTTPTimeout, "Timeout for each outbound fetch")
	flags.Bool("continue-on-error", d.ContinueOnError, "Keep polling after a failed cycle instead of exiting")
	flags.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	flags.Bool("color-logs", d.ColorLogs, "Colorize log output")
	flags.Bool("disable-logs", d.DisableLogs, "Disable logging")
	flags.String("log-time-format", d.TimeFormatLogs, "Log time format (iso8601, rfc3339, rfc3339nano, kitchen)")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			// only fails on a nil flag
			_ = v.BindPFlag(key, f)
		}
	}
}
