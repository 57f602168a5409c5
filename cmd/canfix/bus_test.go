package main

import (
	"context"
	"testing"
	"time"

	"github.com/muurk/canfix/internal/config"
	"github.com/muurk/canfix/internal/protocol"
)

func TestTransportFlagsApply(t *testing.T) {
	base := config.Transport{Kind: config.TransportLoopback}

	tests := []struct {
		name  string
		flags transportFlags
		want  config.Transport
	}{
		{name: "no flags", want: base},
		{name: "interface implies socketcan", flags: transportFlags{iface: "can0"},
			want: config.Transport{Kind: config.TransportSocketCAN, Interface: "can0"}},
		{name: "url implies websocket", flags: transportFlags{url: "ws://gw/can"},
			want: config.Transport{Kind: config.TransportWebSocket, URL: "ws://gw/can"}},
		{name: "explicit kind wins", flags: transportFlags{kind: config.TransportLoopback, iface: "can0"},
			want: config.Transport{Kind: config.TransportLoopback, Interface: "can0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.apply(base); got != tt.want {
				t.Errorf("apply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name    string
		list    string
		id      uint16
		want    bool
		wantErr bool
	}{
		{name: "empty accepts all", list: "", id: 0x7E0, want: true},
		{name: "parameter", list: "parameter", id: 0x183, want: true},
		{name: "parameter rejects alarm", list: "parameter", id: 0x005, want: false},
		{name: "list", list: "alarm, node_specific", id: 0x6E1, want: true},
		{name: "unknown", list: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := parseCategories(tt.list)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCategories() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got := filter == nil || filter(protocol.NewFrame(tt.id, nil))
			if got != tt.want {
				t.Errorf("filter(0x%03X) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestOpenLoopbackAndPump(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, segment, err := openBus(ctx, config.Transport{Kind: config.TransportLoopback})
	if err != nil {
		t.Fatalf("openBus() error = %v", err)
	}
	if segment == nil {
		t.Fatal("loopback transport should return its segment")
	}
	defer segment.Close()

	filter, _ := parseCategories("parameter")
	out := make(chan protocol.Frame, 4)
	go pump(ctx, bus, filter, out)

	peer := segment.Open()
	_ = peer.Send(ctx, protocol.NewFrame(0x005, []byte{1, 0}))
	want := protocol.NewFrame(0x183, []byte{1, 0, 0, 0x10})
	_ = peer.Send(ctx, want)

	select {
	case got := <-out:
		if got != want {
			t.Errorf("pumped frame = %v, want %v", got, want)
		}
	case <-ctx.Done():
		t.Fatal("no frame pumped")
	}

	segment.Close()
	select {
	case _, ok := <-out:
		if ok {
			t.Error("unexpected extra frame")
		}
	case <-ctx.Done():
		t.Fatal("pump did not close output after bus close")
	}
}

func TestOpenBusUnknownKind(t *testing.T) {
	if _, _, err := openBus(context.Background(), config.Transport{Kind: "serial"}); err == nil {
		t.Error("openBus() expected error")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := config.NewNodeConfig()
	cfg.Parameters[0x183] = false
	cfg.Values[0x10] = "0102"

	fields := configFields(cfg, "/tmp/node.yaml")
	found := map[string]string{}
	for _, f := range fields {
		found[f.Key] = f.Value
	}
	if found["Disabled"] != "1 parameters" {
		t.Errorf("Disabled = %q", found["Disabled"])
	}
	if found["Value 0x0010"] != "0102" {
		t.Errorf("Value 0x0010 = %q", found["Value 0x0010"])
	}
	if found["Transport"] != "loopback" {
		t.Errorf("Transport = %q", found["Transport"])
	}
}
