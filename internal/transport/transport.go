// Package transport moves CAN-FIX frames between a node and the outside
// world. A Bus can be an in-memory loopback, a Linux SocketCAN interface or a
// WebSocket link to a gateway Hub.
package transport

import (
	"context"
	"errors"

	"github.com/muurk/canfix/internal/protocol"
)

// Bus sends and receives CAN frames. Implementations are safe for concurrent
// use by multiple goroutines.
type Bus interface {
	// Send transmits a frame. It may block until the frame is queued or sent.
	// Context cancellation aborts the operation and returns the context error.
	Send(ctx context.Context, frame protocol.Frame) error

	// Receive blocks until a frame is available or the context is cancelled.
	Receive(ctx context.Context) (protocol.Frame, error)

	// Close releases resources. Further Send/Receive return ErrClosed.
	Close() error
}

// ErrClosed indicates the bus or endpoint has been closed.
var ErrClosed = errors.New("transport: closed")
