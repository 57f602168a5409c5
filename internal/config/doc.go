// Package config provides node configuration management.
//
// A node configuration is a YAML file holding the node identity, the bus
// transport, the bitrate and the state changed over the bus: enabled
// parameters and configuration values. The Store binds that state to the
// node hooks so CONFSET, CONFGET, DISABLE/ENABLE and NODE_SET survive a
// restart.
//
// # Configuration File Location
//
// The default configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/canfix/node.yaml or $HOME/.config/canfix/node.yaml
//   - macOS: $HOME/.config/canfix/node.yaml
//   - Windows: %LOCALAPPDATA%\canfix\node.yaml
//
// # Usage Example
//
//	store, err := config.OpenStore("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg := store.Config()
//	n := node.New(cfg.Node.DeviceID, sink,
//	    append(cfg.NodeOptions(), node.WithHooks(store.Hooks()))...)
//
// # Thread Safety
//
// Store methods are safe for concurrent use. File writes are serialized and
// atomic (temporary file plus rename).
package config
