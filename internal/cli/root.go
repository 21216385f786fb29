package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "loopgate",
	Short: "Iteration control and verification gating for coding-agent loops",
	Long: `Loopgate runs a coding agent in a bounded retry loop. Each attempt is
verified against the project's own checks, scanned for test-gaming
edits, and stopped by an explicit gate decision rather than by the
agent's own claim of success.`,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("loopgate version {{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
