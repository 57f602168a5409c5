package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
)

// Advertisement is a running mDNS registration. Shutdown withdraws it.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise announces a gateway hub listening on port under path. Extra TXT
// records are appended as given ("key=value").
func Advertise(name string, port int, path string, txt ...string) (*Advertisement, error) {
	if name == "" {
		return nil, fmt.Errorf("advertise: empty instance name")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("advertise: invalid port %d", port)
	}
	if path == "" {
		path = DefaultPath
	}

	records := append([]string{"path=" + path}, txt...)
	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, records, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the advertisement
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}
