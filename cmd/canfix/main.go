// Canfix runs and inspects CAN-FIX nodes.
//
// It hosts a node on a CAN transport (SocketCAN, a websocket gateway or an
// in-memory loopback segment), runs the websocket gateway that joins remote
// nodes into one virtual bus, monitors live traffic and manages the node
// configuration file.
//
// Usage:
//
//	canfix [command] [flags]
//
// See 'canfix --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Sync()
}

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "canfix",
	Short: "CAN-FIX node and bus utility",
	Long: `A utility for running and inspecting CAN-FIX nodes.

Runs a node that answers node specific messages (identify, node set,
bitrate, parameter enable/disable, configuration get/set), a websocket
gateway that shares a CAN segment over the network, and a live bus monitor.`,
	Version:       version.Get().Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Node configuration file (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides "+logging.LogLevelEnvVar)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get().Banner())
	},
}
