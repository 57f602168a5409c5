package config

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/muurk/canfix/internal/node"
	"github.com/muurk/canfix/internal/protocol"
)

// CurrentVersion is the configuration file format version
const CurrentVersion = 1

// MaxValueSize is the largest configuration value a CONFSET request carries
const MaxValueSize = 4

// Transport kinds
const (
	TransportLoopback  = "loopback"
	TransportSocketCAN = "socketcan"
	TransportWebSocket = "websocket"
)

// NodeConfig is the persisted configuration of one node.
type NodeConfig struct {
	Version        int               `yaml:"version"`
	Node           NodeSection       `yaml:"node"`
	Bitrate        uint32            `yaml:"bitrate"`                   // kbit/s
	StatusInterval int               `yaml:"status_interval,omitempty"` // Seconds between status messages, 0 = off
	Transport      Transport         `yaml:"transport"`
	Parameters     map[uint16]bool   `yaml:"parameters,omitempty"` // Enabled state per parameter type
	Values         map[uint16]string `yaml:"values,omitempty"`     // Configuration values, hex encoded
}

// NodeSection is the node identity
type NodeSection struct {
	Address  byte   `yaml:"address"`
	DeviceID byte   `yaml:"device_id"`
	Model    uint32 `yaml:"model"`
	Firmware byte   `yaml:"firmware"`
}

// Transport selects how the node reaches the bus
type Transport struct {
	Kind      string `yaml:"kind"`                // loopback, socketcan or websocket
	Interface string `yaml:"interface,omitempty"` // SocketCAN interface, e.g. can0
	URL       string `yaml:"url,omitempty"`       // Gateway URL, e.g. ws://host:8080/can
}

// NewNodeConfig returns a configuration with default values.
func NewNodeConfig() *NodeConfig {
	return &NodeConfig{
		Version: CurrentVersion,
		Node: NodeSection{
			Address:  0x80,
			DeviceID: 0x80,
		},
		Bitrate:        250,
		StatusInterval: 1,
		Transport:      Transport{Kind: TransportLoopback},
		Parameters:     make(map[uint16]bool),
		Values:         make(map[uint16]string),
	}
}

// Validate checks the configuration for values the node cannot run with.
func (c *NodeConfig) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if c.Node.Address == 0 {
		return fmt.Errorf("node address must be non-zero")
	}
	if c.Node.Model > node.ModelMask {
		return fmt.Errorf("model 0x%x does not fit in 24 bits", c.Node.Model)
	}
	if _, err := protocol.SelectorForBitrate(c.Bitrate); err != nil {
		return err
	}
	if c.StatusInterval < 0 {
		return fmt.Errorf("status interval must not be negative")
	}

	switch c.Transport.Kind {
	case TransportLoopback:
	case TransportSocketCAN:
		if c.Transport.Interface == "" {
			return fmt.Errorf("socketcan transport requires an interface")
		}
	case TransportWebSocket:
		if c.Transport.URL == "" {
			return fmt.Errorf("websocket transport requires a url")
		}
	default:
		return fmt.Errorf("unknown transport kind %q", c.Transport.Kind)
	}

	for id := range c.Parameters {
		if !protocol.IsParameterID(id) {
			return fmt.Errorf("parameter 0x%03x outside parameter range", id)
		}
	}
	for key, v := range c.Values {
		b, err := hex.DecodeString(v)
		if err != nil {
			return fmt.Errorf("value 0x%04x: %w", key, err)
		}
		if len(b) > MaxValueSize {
			return fmt.Errorf("value 0x%04x: %d bytes exceeds %d", key, len(b), MaxValueSize)
		}
	}
	return nil
}

// NodeOptions returns node options applying the configured identity.
func (c *NodeConfig) NodeOptions() []node.Option {
	return []node.Option{
		node.WithAddress(c.Node.Address),
		node.WithModel(c.Node.Model),
		node.WithFirmware(c.Node.Firmware),
	}
}

// ValueKeys returns the configured value keys in ascending order
func (c *NodeConfig) ValueKeys() []uint16 {
	keys := make([]uint16, 0, len(c.Values))
	for k := range c.Values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (c *NodeConfig) clone() *NodeConfig {
	out := *c
	out.Parameters = make(map[uint16]bool, len(c.Parameters))
	for k, v := range c.Parameters {
		out.Parameters[k] = v
	}
	out.Values = make(map[uint16]string, len(c.Values))
	for k, v := range c.Values {
		out.Values[k] = v
	}
	return &out
}
