package node

import "github.com/muurk/canfix/internal/protocol"

// Hooks are the host callbacks a node invokes while processing frames. Every
// field is optional; a nil hook selects the documented fallback.
type Hooks struct {
	// Report is called for a REPORT request. No response is sent.
	Report func()

	// TwoWay handles a two-way request. Returning 0 sends a success
	// response, anything else sends nothing.
	TwoWay func(code byte, value uint16) byte

	// ConfigWrite stores a configuration value and returns the status
	// byte. Nil answers status 1.
	ConfigWrite func(key uint16, payload []byte) byte

	// ConfigRead looks up a configuration value. Only the first five bytes
	// of value fit the response. Nil answers status 1.
	ConfigRead func(key uint16) (status byte, value []byte)

	// Parameter receives every decoded parameter frame.
	Parameter func(p protocol.Parameter)

	// Alarm receives every decoded alarm frame.
	Alarm func(a protocol.Alarm)

	// Stream is reserved for communication channel data and is never
	// called by Node.
	Stream func(channel byte, payload []byte)

	// BitrateChanged is called after a valid BITRATE request, in kbit/s.
	BitrateChanged func(kbps uint32)

	// NodeChanged is called after the node address changed.
	NodeChanged func(addr byte)

	// ParameterEnable applies an enable or disable request and returns the
	// status byte. Nil answers status 1.
	ParameterEnable func(id uint16, enable bool) byte

	// ParameterQuery gates SendParameter. Returning false suppresses the
	// frame. Nil sends everything.
	ParameterQuery func(id uint16) bool

	// AlarmEncoder builds the frame for SendAlarm. Nil makes SendAlarm
	// return ErrAlarmUnsupported.
	AlarmEncoder func(node byte, alarmType uint16, data []byte) (protocol.Frame, error)
}

// Merge returns h with every nil hook taken from other.
func (h Hooks) Merge(other Hooks) Hooks {
	if h.Report == nil {
		h.Report = other.Report
	}
	if h.TwoWay == nil {
		h.TwoWay = other.TwoWay
	}
	if h.ConfigWrite == nil {
		h.ConfigWrite = other.ConfigWrite
	}
	if h.ConfigRead == nil {
		h.ConfigRead = other.ConfigRead
	}
	if h.Parameter == nil {
		h.Parameter = other.Parameter
	}
	if h.Alarm == nil {
		h.Alarm = other.Alarm
	}
	if h.Stream == nil {
		h.Stream = other.Stream
	}
	if h.BitrateChanged == nil {
		h.BitrateChanged = other.BitrateChanged
	}
	if h.NodeChanged == nil {
		h.NodeChanged = other.NodeChanged
	}
	if h.ParameterEnable == nil {
		h.ParameterEnable = other.ParameterEnable
	}
	if h.ParameterQuery == nil {
		h.ParameterQuery = other.ParameterQuery
	}
	if h.AlarmEncoder == nil {
		h.AlarmEncoder = other.AlarmEncoder
	}
	return h
}
