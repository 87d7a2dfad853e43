package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set by build flags
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the version information for btcprobe.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "btcprobe version: %s\n", Version)
			fmt.Fprintf(out, "git commit: %s\n", GitCommit)
		},
	}

	return cmd
}
