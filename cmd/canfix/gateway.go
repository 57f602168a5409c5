package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/canfix/internal/discovery"
	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/server"
	"github.com/muurk/canfix/internal/transport"
	"github.com/muurk/canfix/internal/version"
)

var (
	gwConfig    server.Config
	gwName      string
	gwAdvertise bool
	gwBridges   []string
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Share a CAN segment over websocket",
	Long: `Start the websocket gateway. Every client connected to the hub path joins
one virtual CAN segment; SocketCAN interfaces given with --bridge are
attached to it. The gateway advertises itself over mDNS as _canfix._tcp
unless --advertise=false.`,
	Example: `  # Virtual bus only
  canfix gateway --port 8080

  # Bridge a real interface and serve TLS
  canfix gateway --bridge can0 --cert cert.pem --key key.pem`,
	RunE: runGateway,
}

func init() {
	gatewayCmd.Flags().StringVar(&gwConfig.Host, "host", "", "Listen host (empty = all interfaces)")
	gatewayCmd.Flags().IntVar(&gwConfig.Port, "port", 8080, "Listen port")
	gatewayCmd.Flags().StringVar(&gwConfig.Path, "path", server.DefaultPath, "Websocket path of the hub")
	gatewayCmd.Flags().StringVar(&gwConfig.CertPath, "cert", "", "TLS certificate file")
	gatewayCmd.Flags().StringVar(&gwConfig.KeyPath, "key", "", "TLS private key file")
	gatewayCmd.Flags().StringVar(&gwName, "name", "", "mDNS instance name (default: hostname)")
	gatewayCmd.Flags().BoolVar(&gwAdvertise, "advertise", true, "Advertise the gateway over mDNS")
	gatewayCmd.Flags().StringSliceVar(&gwBridges, "bridge", nil, "SocketCAN interface to bridge onto the hub (repeatable)")

	rootCmd.AddCommand(gatewayCmd)
}

func runGateway(cmd *cobra.Command, args []string) error {
	srv, err := server.New(&gwConfig)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	ctx := cmd.Context()
	for _, iface := range gwBridges {
		bus, err := transport.DialSocketCAN(iface)
		if err != nil {
			return fmt.Errorf("bridge %s: %w", iface, err)
		}
		defer bus.Close()
		srv.Bridge(ctx, iface, bus)
	}

	if gwAdvertise {
		name := gwName
		if name == "" {
			if name, err = os.Hostname(); err != nil {
				name = "canfix"
			}
		}
		port := gwConfig.Port
		if addr, ok := srv.Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}

		adv, err := discovery.Advertise(name, port, gwConfig.Path, version.Get().TXT()...)
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer adv.Shutdown()
			logging.Info("Gateway advertised", zap.String("name", name), zap.String("service", discovery.ServiceType))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Gateway listening on %s\n", srv.URL())
	return srv.Start(ctx)
}
