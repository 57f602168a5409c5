//go:build !linux

package transport

import (
	"errors"
	"runtime"
)

// DialSocketCAN is only available on Linux.
func DialSocketCAN(iface string) (Bus, error) {
	return nil, errors.New("transport: SocketCAN is not supported on " + runtime.GOOS)
}
