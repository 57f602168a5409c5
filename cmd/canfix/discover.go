package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/canfix/internal/discovery"
	"github.com/muurk/canfix/internal/ui"
	"github.com/muurk/canfix/internal/version"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find websocket gateways on the local network",
	Long: `Browse mDNS for CAN-FIX gateways (_canfix._tcp) and list the websocket
URL of each. Pass a URL to 'canfix run --url' or 'canfix monitor --url'.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "How long to browse")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	scanner.Timeout = discoverTimeout

	fmt.Fprintf(cmd.OutOrStdout(), "Browsing for gateways (%s)...\n", discoverTimeout)
	gateways, err := scanner.ScanForGateways(cmd.Context())
	if err != nil {
		return err
	}
	if len(gateways) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No gateways found")
		return nil
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	for _, gw := range gateways {
		fields := []ui.Field{
			{Key: "URL", Value: gw.URL()},
			{Key: "Host", Value: gw.Hostname},
			{Key: "Address", Value: gw.IP + ":" + strconv.Itoa(gw.Port)},
		}
		if build := version.ParseTXT(gw.Metadata); build.Version != "" {
			fields = append(fields, ui.Field{Key: "Version", Value: build.Short()})
			if build.Commit != "" {
				fields = append(fields, ui.Field{Key: "Commit", Value: build.Commit})
			}
		}
		p.PrintReport(gw.Name, fields)
	}
	return nil
}
