package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/canfix/internal/config"
	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/node"
	"github.com/muurk/canfix/internal/protocol"
	"github.com/muurk/canfix/internal/telemetry"
	"github.com/muurk/canfix/internal/version"
)

var (
	runTransport transportFlags
	runInterval  time.Duration
	runAddress   uint8
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a CAN-FIX node",
	Long: `Run a node on the configured bus.

The node answers node specific messages addressed to it and persists changes
made over the bus (node address, bitrate, parameter enable state and
configuration values) to the configuration file. A status message is sent
periodically when a status interval is configured.`,
	Example: `  # Run with the saved configuration
  canfix run

  # Run on a SocketCAN interface
  canfix run --interface can0

  # Join a websocket gateway with a different address
  canfix run --url ws://gateway.local:8080/can --address 0x42`,
	RunE: runNode,
}

func init() {
	runCmd.Flags().StringVar(&runTransport.kind, "transport", "", "Transport kind (loopback, socketcan, websocket)")
	runCmd.Flags().StringVar(&runTransport.iface, "interface", "", "SocketCAN interface (implies --transport socketcan)")
	runCmd.Flags().StringVar(&runTransport.url, "url", "", "Gateway websocket URL (implies --transport websocket)")
	runCmd.Flags().DurationVar(&runInterval, "status-interval", 0, "Status message interval (default from config, 0 disables)")
	runCmd.Flags().Uint8Var(&runAddress, "address", 0, "Node address for this run (default from config)")

	rootCmd.AddCommand(runCmd)
}

func runNode(cmd *cobra.Command, args []string) error {
	store, err := config.OpenStore(configPath)
	if err != nil {
		return err
	}
	cfg := store.Config()
	cfg.Transport = runTransport.apply(cfg.Transport)
	if runAddress != 0 {
		cfg.Node.Address = runAddress
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	interval := time.Duration(cfg.StatusInterval) * time.Second
	if cmd.Flags().Changed("status-interval") {
		interval = runInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus, segment, err := openBus(ctx, cfg.Transport)
	if err != nil {
		return fmt.Errorf("failed to open bus: %w", err)
	}
	defer bus.Close()
	if segment != nil {
		defer segment.Close()
		logging.Warn("Running on a private loopback segment; no other node can reach this one")
	}

	logger := logging.GetLogger().Named("node")

	var n *node.Node
	hooks := store.Hooks().Merge(node.Hooks{
		Report: func() {
			// Runs on the dispatch goroutine
			if err := n.SendStatus(0, nil); err != nil {
				logger.Warn("Report status failed", zap.Error(err))
			}
		},
	})
	opts := append(cfg.NodeOptions(),
		node.WithHooks(hooks),
		node.WithLogger(logger),
		node.WithCounters(telemetry.NewCounters()),
	)
	n = node.New(cfg.Node.DeviceID, node.BusSink{Bus: bus}, opts...)

	r := node.NewRunner(n, bus,
		node.WithRunnerLogger(logger),
		node.WithProcessErrorHandler(func(f protocol.Frame, err error) {
			logger.Debug("Frame rejected", append(logging.FrameFields(f), zap.Error(err))...)
		}),
	)

	if interval > 0 {
		go r.Every(ctx, interval, func(n *node.Node) error {
			return n.SendStatus(0, nil)
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), version.Get().Banner())
	fmt.Fprintf(cmd.OutOrStdout(), "Started %s on %s (config: %s)\n",
		n.Identity(), describeTransport(cfg.Transport), store.Path())

	err = r.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
