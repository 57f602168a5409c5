package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "node.yaml" {
		t.Errorf("GetConfigPath() should end with 'node.yaml', got: %v", configPath)
	}
	if !strings.Contains(configPath, "canfix") {
		t.Errorf("GetConfigPath() = %v, should contain 'canfix'", configPath)
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "node.yaml")

	cfg := NewNodeConfig()
	cfg.Node = NodeSection{Address: 0x21, DeviceID: 0x80, Model: 0x0A0B0C, Firmware: 2}
	cfg.Bitrate = 500
	cfg.Transport = Transport{Kind: TransportWebSocket, URL: "ws://gw.local:8080/can"}
	cfg.Parameters[0x183] = false
	cfg.Values[0x0010] = "01020304"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Node != cfg.Node {
		t.Errorf("Node = %+v, want %+v", got.Node, cfg.Node)
	}
	if got.Bitrate != 500 || got.Transport != cfg.Transport {
		t.Errorf("bitrate/transport = %d %+v", got.Bitrate, got.Transport)
	}
	if enabled, ok := got.Parameters[0x183]; !ok || enabled {
		t.Errorf("Parameters[0x183] = %v, %v, want false, true", enabled, ok)
	}
	if got.Values[0x0010] != "01020304" {
		t.Errorf("Values[0x10] = %q", got.Values[0x0010])
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad yaml", yaml: "version: [1"},
		{name: "wrong version", yaml: "version: 2\nnode: {address: 1}\nbitrate: 250\ntransport: {kind: loopback}\n"},
		{name: "address zero", yaml: "version: 1\nnode: {address: 0}\nbitrate: 250\ntransport: {kind: loopback}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "node.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *NodeConfig)
		wantErr bool
	}{
		{name: "defaults", modify: func(*NodeConfig) {}},
		{name: "bitrate", modify: func(c *NodeConfig) { c.Bitrate = 333 }, wantErr: true},
		{name: "model too wide", modify: func(c *NodeConfig) { c.Node.Model = 0x1000000 }, wantErr: true},
		{name: "negative interval", modify: func(c *NodeConfig) { c.StatusInterval = -1 }, wantErr: true},
		{name: "socketcan without interface", modify: func(c *NodeConfig) { c.Transport.Kind = TransportSocketCAN }, wantErr: true},
		{name: "socketcan", modify: func(c *NodeConfig) { c.Transport = Transport{Kind: TransportSocketCAN, Interface: "can0"} }},
		{name: "websocket without url", modify: func(c *NodeConfig) { c.Transport.Kind = TransportWebSocket }, wantErr: true},
		{name: "unknown transport", modify: func(c *NodeConfig) { c.Transport.Kind = "serial" }, wantErr: true},
		{name: "parameter out of range", modify: func(c *NodeConfig) { c.Parameters[0x50] = true }, wantErr: true},
		{name: "value not hex", modify: func(c *NodeConfig) { c.Values[1] = "zz" }, wantErr: true},
		{name: "value too long", modify: func(c *NodeConfig) { c.Values[1] = "0102030405" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewNodeConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValueKeysSorted(t *testing.T) {
	cfg := NewNodeConfig()
	cfg.Values[9] = "01"
	cfg.Values[2] = "02"
	cfg.Values[5] = "03"

	keys := cfg.ValueKeys()
	if len(keys) != 3 || keys[0] != 2 || keys[1] != 5 || keys[2] != 9 {
		t.Errorf("ValueKeys() = %v, want [2 5 9]", keys)
	}
}
