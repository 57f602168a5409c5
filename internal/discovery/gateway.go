package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultPath is the websocket path used when a gateway does not advertise one
const DefaultPath = "/can"

// Gateway is a CAN-FIX websocket gateway found on the network
type Gateway struct {
	// Name is the mDNS instance name (e.g., "hangar-bus")
	Name string

	// Hostname is the mDNS hostname (e.g., "pi-avionics.local.")
	Hostname string

	// IP is the gateway address, IPv4 preferred
	IP string

	// Port is the HTTP port the hub listens on
	Port int

	// Path is the websocket path from the "path" TXT record
	Path string

	// Metadata holds the remaining TXT records ("version", "bitrate")
	Metadata map[string]string

	// DiscoveredAt is when the gateway answered
	DiscoveredAt time.Time
}

func (g *Gateway) String() string {
	return fmt.Sprintf("CAN-FIX gateway %s (%s) at %s", g.Name, g.Hostname, g.URL())
}

// URL returns the websocket URL of the gateway
func (g *Gateway) URL() string {
	path := g.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + net.JoinHostPort(g.IP, strconv.Itoa(g.Port)) + path
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (g *Gateway) GetMetadata(key string) string {
	if g.Metadata == nil {
		return ""
	}
	return g.Metadata[key]
}
