// Package protocol implements the CAN-FIX wire format.
//
// This package handles classification, parsing and construction of CAN-FIX
// frames. It knows nothing about node state: decoding a node specific message
// yields a NodeRequest, and acting on it is the job of package node.
//
// # Identifier Space
//
// CAN-FIX uses classical CAN frames with 11-bit identifiers. The identifier
// alone decides how a frame is read:
//   - 0x000: ignored
//   - 0x001-0x0FF: node alarms, the identifier is the source node
//   - 0x100-0x6DF: parameters, the identifier is the parameter type
//   - 0x6E0-0x7DF: node specific messages, sub-address = ID - 0x6E0
//   - 0x7E0-0x7FF: communication channels (carried, not interpreted)
//
// All multi-byte fields are little-endian. Every read is bounded by the
// declared frame length; bytes past it read as zero.
//
// # Parameter Frames
//
//	[0]     source node
//	[1]     index
//	[2]     FCB: metadata (high nibble), flags (low nibble)
//	[3-7]   payload
//
// # Node Specific Messages
//
//	[0]     control code (NSMIdentify, NSMBitrate, ...)
//	[1]     target node, 0 = broadcast
//	[2-7]   code specific
//
// Responses are sent on 0x6E0 + responding node address and echo the request
// control code in byte 0 and the request sub-address in byte 1 (see
// NewResponse).
//
// # Usage Example - Parsing
//
//	msg, err := protocol.ParseMessage(frame)
//	if err != nil {
//	    return err
//	}
//	switch m := msg.(type) {
//	case *protocol.Parameter:
//	    fmt.Printf("param 0x%03x = % x\n", m.Type, m.Payload())
//	case *protocol.NodeRequest:
//	    fmt.Println(m.Code)
//	}
//
// # Usage Example - Construction
//
//	p := protocol.Parameter{Type: 0x183, Index: 0}
//	p.SetPayload([]byte{0x10, 0x27})
//	frame := protocol.BuildParameter(myAddress, p)
//
// # Error Handling
//
// Frames that cannot be decoded return a *Error with a type of
// ErrTypeMalformed; use IsMalformed and friends to inspect. Out-of-range
// frame fields are reported by Frame.Validate as ErrInvalidID or
// ErrInvalidLength.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package protocol
