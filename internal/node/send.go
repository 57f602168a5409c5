package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/muurk/canfix/internal/protocol"
	"go.uber.org/zap"
)

// ErrAlarmUnsupported is returned by SendAlarm when no AlarmEncoder hook is
// installed.
var ErrAlarmUnsupported = errors.New("node: alarm encoding not configured")

// SendStatus transmits a status message from this node.
func (n *Node) SendStatus(statusType uint16, data []byte) error {
	return n.transmit(protocol.BuildStatus(n.id.Address, statusType, data))
}

// SendParameter transmits p from this node. When the ParameterQuery hook
// reports the parameter disabled nothing is sent and nil is returned.
func (n *Node) SendParameter(p protocol.Parameter) error {
	if !protocol.IsParameterID(p.Type) {
		return protocol.NewOutOfRangeError(p.Type, "not a parameter identifier")
	}
	if n.hooks.ParameterQuery != nil && !n.hooks.ParameterQuery(p.Type) {
		n.metrics.ParameterSuppressed(context.Background(), p.Type)
		n.logger.Debug("Parameter send suppressed", zap.Uint16("parameter", p.Type))
		return nil
	}
	return n.transmit(protocol.BuildParameter(n.id.Address, p))
}

// SendAlarm transmits an alarm using the host AlarmEncoder.
func (n *Node) SendAlarm(alarmType uint16, data []byte) error {
	if n.hooks.AlarmEncoder == nil {
		return ErrAlarmUnsupported
	}
	f, err := n.hooks.AlarmEncoder(n.id.Address, alarmType, data)
	if err != nil {
		return fmt.Errorf("encode alarm 0x%04x: %w", alarmType, err)
	}
	return n.transmit(f)
}
