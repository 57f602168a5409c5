package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/canfix/internal/config"
	"github.com/muurk/canfix/internal/protocol"
	"github.com/muurk/canfix/internal/transport"
	"github.com/muurk/canfix/internal/ui"
)

var (
	monitorTransport transportFlags
	monitorOnly      string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Show live bus traffic",
	Long: `Open the bus and show live traffic: the latest value of every parameter,
frame counts per category and the most recent raw frames.

Keys: ↑/↓ scroll the parameter table, c clears, q quits.`,
	Example: `  # Monitor a SocketCAN interface
  canfix monitor --interface can0

  # Monitor parameters and alarms through a gateway
  canfix monitor --url ws://gateway.local:8080/can --only parameter,alarm`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorTransport.kind, "transport", "", "Transport kind (socketcan, websocket)")
	monitorCmd.Flags().StringVar(&monitorTransport.iface, "interface", "", "SocketCAN interface")
	monitorCmd.Flags().StringVar(&monitorTransport.url, "url", "", "Gateway websocket URL")
	monitorCmd.Flags().StringVar(&monitorOnly, "only", "", "Comma separated categories to show (parameter, alarm, node_specific, channel)")

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	t := monitorTransport.apply(cfg.Transport)
	if t.Kind == config.TransportLoopback {
		return fmt.Errorf("monitor needs a real bus: pass --interface or --url")
	}
	filter, err := parseCategories(monitorOnly)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus, _, err := openBus(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to open bus: %w", err)
	}
	defer bus.Close()

	frames := make(chan protocol.Frame, 64)
	go pump(ctx, bus, filter, frames)

	model := ui.NewMonitorModel("CAN-FIX monitor  "+describeTransport(t), frames)
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// pump copies frames accepted by filter from bus to out and closes out when
// the bus ends.
func pump(ctx context.Context, bus transport.Bus, filter transport.FrameFilter, out chan<- protocol.Frame) {
	defer close(out)
	for {
		f, err := bus.Receive(ctx)
		if err != nil {
			return
		}
		if filter != nil && !filter(f) {
			continue
		}
		select {
		case out <- f:
		case <-ctx.Done():
			return
		}
	}
}
