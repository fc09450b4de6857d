// Package commands provides the CLI commands for designd.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/prompt2figma/designd/internal/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	printLogs bool
	logLevel  string
	logFile   bool
)

var rootCmd = &cobra.Command{
	Use:   "designd",
	Short: "designd - stateful iterative design server",
	Long: `designd serves iterative UI-design sessions: clients start a session
from a natural-language prompt and submit successive edit prompts that
mutate a versioned wireframe document backed by Redis.

Run 'designd serve' to start the HTTP server.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logCfg := logging.Config{
			Level:     logging.ParseLevel(logLevel),
			Output:    os.Stderr,
			Pretty:    printLogs,
			LogToFile: logFile,
		}
		logging.Init(logCfg)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Pretty-print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR, FATAL)")
	rootCmd.PersistentFlags().BoolVar(&logFile, "log-file", false, "Also log to a timestamped file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
