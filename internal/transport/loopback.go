package transport

import (
	"context"
	"sync"

	"github.com/muurk/canfix/internal/protocol"
)

const loopbackQueue = 64

// LoopbackBus is an in-memory CAN segment for tests and simulations.
// Endpoints opened from the same bus see each other's frames; a sender never
// receives its own frame.
type LoopbackBus struct {
	mu        sync.RWMutex
	closed    bool
	endpoints map[*loopEndpoint]struct{}
}

// NewLoopbackBus creates a new loopback bus.
func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{endpoints: make(map[*loopEndpoint]struct{})}
}

// Open creates a new endpoint attached to the bus.
func (b *LoopbackBus) Open() Bus {
	ep := &loopEndpoint{
		bus:    b,
		ch:     make(chan protocol.Frame, loopbackQueue),
		closed: make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ep.shutdown()
		return ep
	}
	b.endpoints[ep] = struct{}{}
	return ep
}

// Close closes the bus and every endpoint on it.
func (b *LoopbackBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ep := range b.endpoints {
		ep.shutdown()
	}
	b.endpoints = nil
	return nil
}

type loopEndpoint struct {
	bus    *LoopbackBus
	ch     chan protocol.Frame
	once   sync.Once
	dead   bool // guarded by bus.mu
	closed chan struct{}
}

// Send delivers the frame to all other endpoints. It blocks while a receiver
// queue is full.
func (e *loopEndpoint) Send(ctx context.Context, frame protocol.Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}

	e.bus.mu.RLock()
	if e.bus.closed || e.dead {
		e.bus.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*loopEndpoint, 0, len(e.bus.endpoints))
	for ep := range e.bus.endpoints {
		if ep != e {
			targets = append(targets, ep)
		}
	}
	e.bus.mu.RUnlock()

	for _, t := range targets {
		select {
		case t.ch <- frame:
		case <-t.closed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Receive waits for the next frame.
func (e *loopEndpoint) Receive(ctx context.Context) (protocol.Frame, error) {
	select {
	case f := <-e.ch:
		return f, nil
	case <-e.closed:
		return protocol.Frame{}, ErrClosed
	case <-ctx.Done():
		return protocol.Frame{}, ctx.Err()
	}
}

// Close detaches the endpoint from the bus.
func (e *loopEndpoint) Close() error {
	e.bus.mu.Lock()
	defer e.bus.mu.Unlock()
	e.shutdown()
	if e.bus.endpoints != nil {
		delete(e.bus.endpoints, e)
	}
	return nil
}

// shutdown must be called with bus.mu held.
func (e *loopEndpoint) shutdown() {
	e.once.Do(func() {
		e.dead = true
		close(e.closed)
	})
}
