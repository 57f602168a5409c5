package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/muurk/canfix/internal/config"
	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/protocol"
	"github.com/muurk/canfix/internal/transport"
)

// transportFlags override the configured transport
type transportFlags struct {
	kind  string
	iface string
	url   string
}

func (f transportFlags) apply(t config.Transport) config.Transport {
	if f.kind != "" {
		t.Kind = f.kind
	}
	if f.iface != "" {
		t.Interface = f.iface
		if f.kind == "" {
			t.Kind = config.TransportSocketCAN
		}
	}
	if f.url != "" {
		t.URL = f.url
		if f.kind == "" {
			t.Kind = config.TransportWebSocket
		}
	}
	return t
}

// openBus connects to the bus described by t. A loopback transport returns
// one endpoint of a fresh segment along with the segment.
func openBus(ctx context.Context, t config.Transport) (transport.Bus, *transport.LoopbackBus, error) {
	var (
		bus transport.Bus
		err error
		seg *transport.LoopbackBus
	)
	switch t.Kind {
	case config.TransportLoopback, "":
		seg = transport.NewLoopbackBus()
		bus = seg.Open()
	case config.TransportSocketCAN:
		bus, err = transport.DialSocketCAN(t.Interface)
	case config.TransportWebSocket:
		bus, err = transport.DialWebSocket(ctx, t.URL)
	default:
		err = fmt.Errorf("unknown transport kind %q", t.Kind)
	}
	if err != nil {
		return nil, nil, err
	}

	logger := logging.GetLogger()
	if logger.Core().Enabled(zapcore.DebugLevel) {
		bus = transport.NewLoggedBus(bus, logger.Named("bus"), zapcore.DebugLevel, transport.LogAll)
	}
	logger.Info("Bus opened", zap.String("transport", describeTransport(t)))
	return bus, seg, nil
}

func describeTransport(t config.Transport) string {
	switch t.Kind {
	case config.TransportSocketCAN:
		return "socketcan " + t.Interface
	case config.TransportWebSocket:
		return "websocket " + t.URL
	default:
		return "loopback"
	}
}

// parseCategories maps comma separated category names to a frame filter.
// An empty list accepts every frame.
func parseCategories(list string) (transport.FrameFilter, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	names := map[string]protocol.Category{}
	for _, c := range []protocol.Category{
		protocol.CategoryIgnored,
		protocol.CategoryAlarm,
		protocol.CategoryParameter,
		protocol.CategoryNodeSpecific,
		protocol.CategoryChannel,
	} {
		names[c.String()] = c
	}

	var cats []protocol.Category
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		c, ok := names[name]
		if !ok {
			return nil, fmt.Errorf("unknown frame category %q", name)
		}
		cats = append(cats, c)
	}
	return transport.ByCategory(cats...), nil
}
