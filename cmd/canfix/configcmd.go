package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/canfix/internal/config"
	"github.com/muurk/canfix/internal/ui"
)

var (
	initForce     bool
	initAddress   uint8
	initDeviceID  uint8
	initModel     uint32
	initFirmware  uint8
	initBitrate   uint32
	initTransport transportFlags
	showFormat    string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the node configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a new configuration file",
	Example: `  # Node 0x42 on can0
  canfix config init --address 0x42 --interface can0

  # Overwrite an existing file
  canfix config init --force --url ws://gateway.local:8080/can`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	RunE:  runConfigShow,
}

func init() {
	f := configInitCmd.Flags()
	f.BoolVar(&initForce, "force", false, "Overwrite an existing file")
	f.Uint8Var(&initAddress, "address", 0x80, "Node address")
	f.Uint8Var(&initDeviceID, "device-id", 0x80, "Device type")
	f.Uint32Var(&initModel, "model", 0, "24-bit model number")
	f.Uint8Var(&initFirmware, "firmware", 0, "Firmware version")
	f.Uint32Var(&initBitrate, "bitrate", 250, "Bus bitrate in kbit/s (125, 250, 500, 1000)")
	f.StringVar(&initTransport.kind, "transport", "", "Transport kind (loopback, socketcan, websocket)")
	f.StringVar(&initTransport.iface, "interface", "", "SocketCAN interface")
	f.StringVar(&initTransport.url, "url", "", "Gateway websocket URL")

	configShowCmd.Flags().StringVar(&showFormat, "format", "detailed", "Output format (detailed, yaml)")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := config.NewNodeConfig()
	cfg.Node = config.NodeSection{
		Address:  initAddress,
		DeviceID: initDeviceID,
		Model:    initModel,
		Firmware: initFirmware,
	}
	cfg.Bitrate = initBitrate
	cfg.Transport = initTransport.apply(cfg.Transport)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	switch showFormat {
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	case "detailed":
		ui.NewPrinter(cmd.OutOrStdout()).PrintReport("Node configuration", configFields(cfg, path))
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected detailed or yaml)", showFormat)
	}
}

func configFields(cfg *config.NodeConfig, path string) []ui.Field {
	fields := []ui.Field{
		{Key: "File", Value: path},
		{Key: "Address", Value: fmt.Sprintf("%d (0x%02X)", cfg.Node.Address, cfg.Node.Address)},
		{Key: "Device ID", Value: fmt.Sprintf("0x%02X", cfg.Node.DeviceID)},
		{Key: "Model", Value: fmt.Sprintf("0x%06X", cfg.Node.Model)},
		{Key: "Firmware", Value: fmt.Sprintf("%d", cfg.Node.Firmware)},
		{Key: "Bitrate", Value: fmt.Sprintf("%d kbit/s", cfg.Bitrate)},
		{Key: "Transport", Value: describeTransport(cfg.Transport)},
		{Key: "Status", Value: fmt.Sprintf("every %ds", cfg.StatusInterval)},
	}
	disabled := 0
	for _, enabled := range cfg.Parameters {
		if !enabled {
			disabled++
		}
	}
	fields = append(fields, ui.Field{Key: "Disabled", Value: fmt.Sprintf("%d parameters", disabled)})
	for _, k := range cfg.ValueKeys() {
		fields = append(fields, ui.Field{Key: fmt.Sprintf("Value 0x%04X", k), Value: cfg.Values[k]})
	}
	return fields
}
