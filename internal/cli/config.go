package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wemix/btcprobe/internal/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand(opts *rootOptions) *cobra.Command {
	var (
		format   string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Display the configuration after merging defaults, the config file,
BTCPROBE_* environment variables and flags. The output can be used as a
config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.viper, opts.configFile)
			if err != nil {
				return err
			}

			if validate {
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
			}

			data, err := cfg.Marshal(format)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml, toml)")
	cmd.Flags().BoolVar(&validate, "validate", true, "Validate before printing")

	return cmd
}
