package protocol

import (
	"bytes"
	"fmt"
)

// Identifier ranges of the 11-bit CAN-FIX address space
const (
	AlarmMin     = 0x001 // First node alarm identifier (alarm source node = ID)
	AlarmMax     = 0x0FF
	ParameterMin = 0x100 // 256
	ParameterMax = 0x6DF // 1759
	NSMStart     = 0x6E0 // Node specific messages, sub-address = ID - NSMStart
	NSMEnd       = 0x7DF
	ChannelStart = 0x7E0 // Communication channels
	ChannelEnd   = 0x7FF
)

// Category is the message class an identifier falls into
type Category uint8

const (
	CategoryIgnored Category = iota
	CategoryAlarm
	CategoryParameter
	CategoryNodeSpecific
	CategoryChannel
)

// String returns a stable name used in logs and metric attributes
func (c Category) String() string {
	switch c {
	case CategoryIgnored:
		return "ignored"
	case CategoryAlarm:
		return "alarm"
	case CategoryParameter:
		return "parameter"
	case CategoryNodeSpecific:
		return "node_specific"
	case CategoryChannel:
		return "channel"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Classify maps an identifier to its category. Identifier 0 and anything above
// the 11-bit range are ignored.
func Classify(id uint16) Category {
	switch {
	case id == 0:
		return CategoryIgnored
	case id <= AlarmMax:
		return CategoryAlarm
	case id <= ParameterMax:
		return CategoryParameter
	case id <= NSMEnd:
		return CategoryNodeSpecific
	case id <= ChannelEnd:
		return CategoryChannel
	default:
		return CategoryIgnored
	}
}

// IsParameterID reports whether id lies in the parameter range
func IsParameterID(id uint16) bool {
	return id >= ParameterMin && id <= ParameterMax
}

// SubAddress returns the node-specific sub-address of an NSM identifier
func SubAddress(id uint16) byte {
	return byte(id - NSMStart)
}

// FCB flag bits (low nibble)
const (
	FlagAnnunciate byte = 0x01
	FlagQuality    byte = 0x02
	FlagFail       byte = 0x04
)

// MaxParameterData is the largest payload a parameter frame carries
const MaxParameterData = 5

// Parameter is a decoded parameter frame.
//
// Wire layout:
//
//	ID      parameter type (0x100-0x6DF)
//	[0]     source node
//	[1]     index
//	[2]     FCB: metadata (high nibble) | flags (low nibble)
//	[3-7]   payload (Length bytes)
//
// Only Data[:Length] travels on the wire. Compare parameters with Equal;
// == also compares the unused tail of Data, which SetPayload and
// ParseParameter leave zeroed.
type Parameter struct {
	Type   uint16
	Node   byte
	Index  byte
	FCB    byte
	Data   [MaxParameterData]byte
	Length uint8
}

func (p *Parameter) Category() Category { return CategoryParameter }

func (p *Parameter) String() string {
	return fmt.Sprintf("Parameter{type=0x%03x, node=%d, index=%d, meta=%d, flags=0x%x, data=% x}",
		p.Type, p.Node, p.Index, p.Metadata(), p.Flags(), p.Payload())
}

// Metadata returns the high nibble of the FCB
func (p Parameter) Metadata() byte { return p.FCB >> 4 }

// Flags returns the low nibble of the FCB
func (p Parameter) Flags() byte { return p.FCB & 0x0F }

// SetMetadata replaces the high nibble of the FCB, keeping the flags
func (p *Parameter) SetMetadata(m byte) {
	p.FCB = (p.FCB & 0x0F) | (m&0x0F)<<4
}

// SetFlags replaces the low nibble of the FCB, keeping the metadata
func (p *Parameter) SetFlags(f byte) {
	p.FCB = (p.FCB & 0xF0) | (f & 0x0F)
}

func (p Parameter) Annunciate() bool { return p.FCB&FlagAnnunciate != 0 }
func (p Parameter) Quality() bool    { return p.FCB&FlagQuality != 0 }
func (p Parameter) Failed() bool     { return p.FCB&FlagFail != 0 }

// Payload returns the used part of Data
func (p Parameter) Payload() []byte {
	n := int(p.Length)
	if n > MaxParameterData {
		n = MaxParameterData
	}
	return p.Data[:n]
}

// SetPayload copies up to five bytes into Data and sets Length
func (p *Parameter) SetPayload(b []byte) {
	p.Data = [MaxParameterData]byte{}
	p.Length = uint8(copy(p.Data[:], b))
}

// Equal reports whether p and o encode to the same frame body: bytes of
// Data past Length are ignored.
func (p Parameter) Equal(o Parameter) bool {
	return p.Type == o.Type && p.Node == o.Node && p.Index == o.Index &&
		p.FCB == o.FCB && bytes.Equal(p.Payload(), o.Payload())
}

// ParseParameter decodes a parameter-category frame
func ParseParameter(f Frame) (Parameter, error) {
	if !IsParameterID(f.ID) {
		return Parameter{}, NewMalformedError(f, "identifier outside parameter range")
	}
	if f.Length < 3 {
		return Parameter{}, NewMalformedError(f, fmt.Sprintf("parameter frame too short: %d bytes", f.Length))
	}

	p := Parameter{
		Type:  f.ID,
		Node:  f.Byte(0),
		Index: f.Byte(1),
		FCB:   f.Byte(2),
	}
	p.Length = uint8(copy(p.Data[:], f.Tail(3)))
	return p, nil
}

// Alarm is a decoded node alarm.
//
//	ID      source node (1-255)
//	[0-1]   alarm type (little-endian)
//	[2-7]   alarm data
type Alarm struct {
	Node byte
	Type uint16
	Data []byte
}

func (a *Alarm) Category() Category { return CategoryAlarm }

func (a *Alarm) String() string {
	return fmt.Sprintf("Alarm{node=%d, type=0x%04x, data=% x}", a.Node, a.Type, a.Data)
}

// ParseAlarm decodes an alarm-category frame. A frame shorter than two bytes
// yields type 0 with no data.
func ParseAlarm(f Frame) Alarm {
	return Alarm{
		Node: byte(f.ID),
		Type: f.Uint16(0),
		Data: f.Tail(2),
	}
}

// ControlCode is byte 0 of a node specific message
type ControlCode byte

const (
	NSMIdentify     ControlCode = 0
	NSMBitrate      ControlCode = 1
	NSMNodeSet      ControlCode = 2
	NSMDisable      ControlCode = 3
	NSMEnable       ControlCode = 4
	NSMReport       ControlCode = 5
	NSMStatus       ControlCode = 6
	NSMFirmware     ControlCode = 7
	NSMTwoWay       ControlCode = 8
	NSMConfigSet    ControlCode = 9
	NSMConfigGet    ControlCode = 10
	NSMDescription  ControlCode = 11
	NSMParameterSet ControlCode = 12 // 12-19
	nsmParameterEnd ControlCode = 19
)

var controlCodeNames = map[ControlCode]string{
	NSMIdentify:    "identify",
	NSMBitrate:     "bitrate",
	NSMNodeSet:     "node_set",
	NSMDisable:     "disable",
	NSMEnable:      "enable",
	NSMReport:      "report",
	NSMStatus:      "status",
	NSMFirmware:    "firmware",
	NSMTwoWay:      "two_way",
	NSMConfigSet:   "config_set",
	NSMConfigGet:   "config_get",
	NSMDescription: "description",
}

func (c ControlCode) String() string {
	if name, ok := controlCodeNames[c]; ok {
		return name
	}
	if c >= NSMParameterSet && c <= nsmParameterEnd {
		return fmt.Sprintf("parameter_set_%d", c-NSMParameterSet)
	}
	return fmt.Sprintf("code(%d)", byte(c))
}

// NodeRequest is an inbound node specific message
type NodeRequest struct {
	Code   ControlCode
	Target byte // byte 1: addressed node, 0 = broadcast
	From   byte // SubAddress of the frame identifier
	Frame  Frame
}

func (r *NodeRequest) Category() Category { return CategoryNodeSpecific }

func (r *NodeRequest) String() string {
	return fmt.Sprintf("NodeRequest{code=%s, target=%d, from=%d, data=% x}",
		r.Code, r.Target, r.From, r.Frame.Tail(2))
}

// Broadcast reports whether the request is addressed to every node
func (r NodeRequest) Broadcast() bool { return r.Target == 0 }

// ParseNodeRequest decodes a node specific message header
func ParseNodeRequest(f Frame) (NodeRequest, error) {
	if Classify(f.ID) != CategoryNodeSpecific {
		return NodeRequest{}, NewMalformedError(f, "identifier outside node specific range")
	}
	if f.Length < 2 {
		return NodeRequest{}, NewMalformedError(f, fmt.Sprintf("node request too short: %d bytes", f.Length))
	}
	return NodeRequest{
		Code:   ControlCode(f.Byte(0)),
		Target: f.Byte(1),
		From:   SubAddress(f.ID),
		Frame:  f,
	}, nil
}

// ChannelMessage wraps a communication channel frame. Channels are carried
// but not interpreted.
type ChannelMessage struct {
	Channel byte // ID - ChannelStart
	Frame   Frame
}

func (c *ChannelMessage) Category() Category { return CategoryChannel }

func (c *ChannelMessage) String() string {
	return fmt.Sprintf("Channel{channel=%d, data=% x}", c.Channel, c.Frame.Payload())
}

// Message is any decoded CAN-FIX frame
type Message interface {
	Category() Category
	String() string
}

// ParseMessage classifies and decodes a frame. Ignored identifiers return a
// nil message and nil error.
func ParseMessage(f Frame) (Message, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	switch Classify(f.ID) {
	case CategoryAlarm:
		a := ParseAlarm(f)
		return &a, nil
	case CategoryParameter:
		p, err := ParseParameter(f)
		if err != nil {
			return nil, err
		}
		return &p, nil
	case CategoryNodeSpecific:
		r, err := ParseNodeRequest(f)
		if err != nil {
			return nil, err
		}
		return &r, nil
	case CategoryChannel:
		return &ChannelMessage{Channel: byte(f.ID - ChannelStart), Frame: f}, nil
	default:
		return nil, nil
	}
}
