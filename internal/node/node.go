package node

import (
	"context"
	"errors"

	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/protocol"
	"github.com/muurk/canfix/internal/telemetry"
	"go.uber.org/zap"
)

// Sink transmits frames produced by a node.
type Sink interface {
	Send(f protocol.Frame) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(f protocol.Frame) error

func (fn SinkFunc) Send(f protocol.Frame) error { return fn(f) }

// ErrNoSink is returned when a node without a sink tries to transmit
var ErrNoSink = errors.New("node: no frame sink")

// Node is one CAN-FIX node. See the package documentation for the
// concurrency contract.
type Node struct {
	id      Identity
	hooks   Hooks
	sink    Sink
	logger  *zap.Logger
	metrics *telemetry.Counters
}

// Option configures a Node
type Option func(*Node)

// WithHooks installs the host hooks
func WithHooks(h Hooks) Option {
	return func(n *Node) { n.hooks = h }
}

// WithModel sets the 24-bit model number
func WithModel(model uint32) Option {
	return func(n *Node) { n.SetModel(model) }
}

// WithFirmware sets the firmware version
func WithFirmware(v byte) Option {
	return func(n *Node) { n.id.Firmware = v }
}

// WithAddress sets a node address different from the device id
func WithAddress(addr byte) Option {
	return func(n *Node) { n.id.Address = addr }
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(n *Node) { n.logger = l }
}

// WithCounters sets the metric counters. Defaults to counters on the global
// meter provider.
func WithCounters(c *telemetry.Counters) Option {
	return func(n *Node) { n.metrics = c }
}

// New creates a node of the given device type. The node address starts out
// equal to deviceID.
func New(deviceID byte, sink Sink, opts ...Option) *Node {
	n := &Node{
		id:   Identity{Address: deviceID, DeviceID: deviceID},
		sink: sink,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = logging.GetLogger()
	}
	if n.metrics == nil {
		n.metrics = telemetry.NewCounters()
	}
	return n
}

// Hooks returns the installed hooks
func (n *Node) Hooks() Hooks { return n.hooks }

// SetHooks replaces the installed hooks
func (n *Node) SetHooks(h Hooks) { n.hooks = h }

// Process handles one received frame to completion, including hook calls and
// the response, before returning.
//
// The returned error is non-nil only for frames failing Validate, malformed
// parameter frames and sink failures while responding. Requests the protocol
// rejects are answered with a status byte and return nil.
func (n *Node) Process(f protocol.Frame) error {
	ctx := context.Background()
	if err := f.Validate(); err != nil {
		n.metrics.FrameRejected(ctx, "invalid")
		return err
	}

	cat := protocol.Classify(f.ID)
	n.metrics.FrameReceived(ctx, cat.String())

	switch cat {
	case protocol.CategoryAlarm:
		if n.hooks.Alarm != nil {
			n.hooks.Alarm(protocol.ParseAlarm(f))
		}
		return nil

	case protocol.CategoryParameter:
		p, err := protocol.ParseParameter(f)
		if err != nil {
			n.metrics.FrameRejected(ctx, "malformed")
			n.logger.Debug("Malformed parameter frame",
				zap.Stringer("frame", f),
				zap.Error(err),
			)
			return err
		}
		if n.hooks.Parameter != nil {
			n.hooks.Parameter(p)
		}
		return nil

	case protocol.CategoryNodeSpecific:
		return n.dispatch(f)

	case protocol.CategoryChannel:
		n.logger.Debug("Ignoring communication channel frame", zap.Stringer("frame", f))
		return nil

	default:
		return nil
	}
}

// transmit hands a frame to the sink
func (n *Node) transmit(f protocol.Frame) error {
	if n.sink == nil {
		return ErrNoSink
	}
	if ce := n.logger.Check(zap.DebugLevel, "tx"); ce != nil {
		ce.Write(logging.FrameFields(f)...)
	}
	return n.sink.Send(f)
}
