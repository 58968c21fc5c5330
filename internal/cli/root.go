// Package cli implements the poscanon command line tool for processing POS
// exports locally, without running the server.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/retailkit/poscanon/internal/logging"
)

var (
	locationsPath string
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "poscanon",
	Short: "Normalize POS transaction exports and flag exceptions",
	Long: `poscanon reads point-of-sale transaction exports (CSV or XLSX),
normalizes them into canonical transaction records, and flags data-quality
and compliance exceptions such as void spikes, tax mismatches, and orphan
refunds.

Store timezones and detection thresholds come from a locations YAML file.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logLevel, "text")
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&locationsPath, "locations", "locations.yaml",
		"path to the locations YAML file (timezones and threshold overrides)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"minimum log level: debug, info, warn, error")
}
