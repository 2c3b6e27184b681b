// Package commands implements the acquirectl CLI.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Flags holds the global persistent flag values, synced in PersistentPreRun.
var Flags struct {
	ServerURL string
	Output    string
}

var rootCmd = &cobra.Command{
	Use:   "acquirectl",
	Short: "acquirectl - inspect a running acquired daemon",
	Long: `acquirectl is the command-line client for inspecting an acquired
daemon's status API: in-flight acquisition flows and their admission
and transfer counters.

Use "acquirectl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Flags.ServerURL, _ = cmd.Flags().GetString("server")
		Flags.Output, _ = cmd.Flags().GetString("output")
	},
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:9200", "acquired status API base URL")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table|json)")

	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Exit prints an error to stderr and exits with code 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
