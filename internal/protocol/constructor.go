package protocol

import (
	"fmt"
)

// Frame builders for messages a node transmits.

// Response status bytes
const (
	StatusOK    byte = 0x00
	StatusError byte = 0x01
)

// IdentifyOK is byte 2 of an identify response
const IdentifyOK byte = 0x01

// MaxStatusData is the largest payload carried in a status frame
const MaxStatusData = 5

// NodeID returns the NSM identifier a node with the given address transmits on
func NodeID(node byte) uint16 {
	return NSMStart + uint16(node)
}

// BuildParameter encodes a parameter frame sent by node.
//
// Frame Structure:
//
//	ID      p.Type
//	[0]     node           Sending node address (p.Node is ignored)
//	[1]     p.Index
//	[2]     p.FCB
//	[3-7]   payload        Up to 5 bytes, longer payloads are truncated
//
// Length = payload length + 3.
func BuildParameter(node byte, p Parameter) Frame {
	f := Frame{ID: p.Type}
	f.Data[0] = node
	f.Data[1] = p.Index
	f.Data[2] = p.FCB
	n := copy(f.Data[3:], p.Payload())
	f.Length = uint8(n + 3)
	return f
}

// BuildStatus encodes a node status frame.
//
// Frame Structure:
//
//	ID      0x6E0 + node
//	[0]     0x06           NSMStatus
//	[1-2]   statusType     Little-endian status word
//	[3-7]   data           Up to 5 bytes, longer payloads are truncated
func BuildStatus(node byte, statusType uint16, data []byte) Frame {
	f := Frame{ID: NodeID(node)}
	f.Data[0] = byte(NSMStatus)
	f.PutUint16(1, statusType)
	n := copy(f.Data[3:], data)
	f.Length = uint8(n + 3)
	return f
}

// BuildAlarm encodes an alarm in the same layout ParseAlarm reads: the node
// address as identifier, type in bytes 0-1, up to 6 data bytes after it.
// Node 0 is not a valid alarm source.
func BuildAlarm(node byte, alarmType uint16, data []byte) (Frame, error) {
	if node == 0 {
		return Frame{}, NewOutOfRangeError(0, "alarm source node must be non-zero")
	}
	f := Frame{ID: uint16(node)}
	f.PutUint16(0, alarmType)
	n := copy(f.Data[2:], data)
	f.Length = uint8(n + 2)
	return f, nil
}

// NewResponse returns the response frame pre-seeded for req as sent by node:
//
//	ID      0x6E0 + node
//	[0]     request control code
//	[1]     request sub-address (request ID - 0x6E0)
//
// Length is left at 2; callers set status bytes and length.
func NewResponse(req NodeRequest, node byte) Frame {
	f := Frame{ID: NodeID(node), Length: 2}
	f.Data[0] = byte(req.Code)
	f.Data[1] = req.From
	return f
}

var bitrates = [...]uint32{1: 125, 2: 250, 3: 500, 4: 1000}

// BitrateForSelector maps a BITRATE selector to kbit/s. ok is false for
// selectors the protocol does not define.
func BitrateForSelector(sel byte) (kbps uint32, ok bool) {
	if sel == 0 || int(sel) >= len(bitrates) {
		return 0, false
	}
	return bitrates[sel], true
}

// SelectorForBitrate is the inverse of BitrateForSelector
func SelectorForBitrate(kbps uint32) (byte, error) {
	for sel, rate := range bitrates {
		if sel != 0 && rate == kbps {
			return byte(sel), nil
		}
	}
	return 0, &Error{Type: ErrTypeInvalidValue, Message: fmt.Sprintf("unsupported bitrate %d kbit/s", kbps)}
}
