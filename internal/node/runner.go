package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/protocol"
	"github.com/muurk/canfix/internal/transport"
	"go.uber.org/zap"
)

// DefaultSendTimeout bounds a single BusSink send
const DefaultSendTimeout = time.Second

// BusSink adapts a transport.Bus to Sink.
type BusSink struct {
	Bus     transport.Bus
	Timeout time.Duration // DefaultSendTimeout when zero
}

func (s BusSink) Send(f protocol.Frame) error {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultSendTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Bus.Send(ctx, f)
}

// ErrRunnerStopped is returned by Do once Run has returned
var ErrRunnerStopped = errors.New("node: runner stopped")

type operation struct {
	fn   func(*Node) error
	done chan error
}

// Runner owns a Node on a single goroutine. Received frames and queued
// operations are handled one at a time, in arrival order.
type Runner struct {
	node    *Node
	bus     transport.Bus
	ops     chan operation
	stopped chan struct{}
	logger  *zap.Logger
	onError func(protocol.Frame, error)
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRunnerLogger sets the runner logger
func WithRunnerLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithProcessErrorHandler is called for every frame Process rejects. The
// default logs at debug level.
func WithProcessErrorHandler(fn func(protocol.Frame, error)) RunnerOption {
	return func(r *Runner) { r.onError = fn }
}

// NewRunner creates a runner reading frames for n from bus.
func NewRunner(n *Node, bus transport.Bus, opts ...RunnerOption) *Runner {
	r := &Runner{
		node:    n,
		bus:     bus,
		ops:     make(chan operation),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.GetLogger()
	}
	if r.onError == nil {
		r.onError = func(f protocol.Frame, err error) {
			r.logger.Debug("Frame rejected", zap.Stringer("frame", f), zap.Error(err))
		}
	}
	return r
}

// Run processes frames until ctx is done or the bus fails. It returns nil
// when the bus is closed.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.stopped)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan protocol.Frame)
	recvErr := make(chan error, 1)
	go func() {
		for {
			f, err := r.bus.Receive(ctx)
			if err != nil {
				recvErr <- err
				return
			}
			select {
			case frames <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	r.logger.Info("Node running", zap.Stringer("identity", r.node.Identity()))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-recvErr:
			if errors.Is(err, transport.ErrClosed) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive: %w", err)

		case f := <-frames:
			if ce := r.logger.Check(zap.DebugLevel, "rx"); ce != nil {
				ce.Write(logging.FrameFields(f)...)
			}
			if err := r.node.Process(f); err != nil {
				r.onError(f, err)
			}

		case op := <-r.ops:
			op.done <- op.fn(r.node)
		}
	}
}

// Do runs fn on the dispatch loop and returns its error.
func (r *Runner) Do(ctx context.Context, fn func(*Node) error) error {
	op := operation{fn: fn, done: make(chan error, 1)}
	select {
	case r.ops <- op:
	case <-r.stopped:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-op.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Every calls fn on the dispatch loop each interval until ctx is done or the
// runner stops. Errors from fn are logged and do not stop the schedule.
func (r *Runner) Every(ctx context.Context, interval time.Duration, fn func(*Node) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := r.Do(ctx, fn)
			if errors.Is(err, ErrRunnerStopped) || ctx.Err() != nil {
				return
			}
			if err != nil {
				r.logger.Warn("Scheduled operation failed", zap.Error(err))
			}
		case <-r.stopped:
			return
		case <-ctx.Done():
			return
		}
	}
}
