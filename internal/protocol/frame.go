package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Frame limits
const (
	MaxID      = 0x7FF // Highest 11-bit standard identifier
	MaxDataLen = 8     // Classical CAN payload
	WireSize   = 16    // Size of a SocketCAN struct can_frame
)

var (
	ErrInvalidID     = errors.New("canfix: invalid frame identifier")
	ErrInvalidLength = errors.New("canfix: invalid frame length")
)

// Frame is a classical CAN frame with an 11-bit identifier as used by CAN-FIX.
type Frame struct {
	ID     uint16 // 0..0x7FF
	Length uint8  // 0..8
	Data   [8]byte
}

// NewFrame builds a frame with the given identifier and up to 8 data bytes.
// Extra bytes are dropped.
func NewFrame(id uint16, data []byte) Frame {
	f := Frame{ID: id}
	n := copy(f.Data[:], data)
	f.Length = uint8(n)
	return f
}

// Validate returns an error if the identifier or length is out of range.
func (f Frame) Validate() error {
	if f.ID > MaxID {
		return ErrInvalidID
	}
	if f.Length > MaxDataLen {
		return ErrInvalidLength
	}
	return nil
}

// size returns the declared length clamped to the data array.
func (f Frame) size() int {
	if f.Length > MaxDataLen {
		return MaxDataLen
	}
	return int(f.Length)
}

// Payload returns the data bytes covered by the declared length.
func (f Frame) Payload() []byte {
	return f.Data[:f.size()]
}

// Byte returns data byte i, or 0 when i lies beyond the declared length.
func (f Frame) Byte(i int) byte {
	if i < 0 || i >= f.size() {
		return 0
	}
	return f.Data[i]
}

// Uint16 reads a little-endian word starting at off. Bytes beyond the
// declared length read as zero.
func (f Frame) Uint16(off int) uint16 {
	return uint16(f.Byte(off)) | uint16(f.Byte(off+1))<<8
}

// PutUint16 writes a little-endian word at off. It does not touch Length.
func (f *Frame) PutUint16(off int, v uint16) {
	if off < 0 || off+2 > MaxDataLen {
		return
	}
	binary.LittleEndian.PutUint16(f.Data[off:off+2], v)
}

// Tail returns the payload bytes from off up to the declared length.
func (f Frame) Tail(off int) []byte {
	n := f.size()
	if off >= n {
		return nil
	}
	out := make([]byte, n-off)
	copy(out, f.Data[off:n])
	return out
}

// MarshalBinary encodes the frame in the Linux SocketCAN struct can_frame
// layout:
//
//	[0-3]   can_id (little-endian, standard identifier only)
//	[4]     can_dlc
//	[5-7]   padding
//	[8-15]  data
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, WireSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(f.ID))
	buf[4] = f.Length
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a SocketCAN struct can_frame. Extended, RTR and
// error frames are rejected since CAN-FIX only uses standard data frames.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < WireSize {
		return fmt.Errorf("canfix: need %d bytes, got %d", WireSize, len(data))
	}
	const (
		canEffFlag = 0x80000000
		canRtrFlag = 0x40000000
		canErrFlag = 0x20000000
	)
	raw := binary.LittleEndian.Uint32(data[0:4])
	if raw&(canEffFlag|canRtrFlag|canErrFlag) != 0 {
		return fmt.Errorf("canfix: unsupported frame flags 0x%08x: %w", raw&0xE0000000, ErrInvalidID)
	}
	if raw > MaxID {
		return ErrInvalidID
	}
	f.ID = uint16(raw)
	f.Length = data[4]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}

// String renders the frame as "6E2 [3] 02 05 00".
func (f Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%03X [%d]", f.ID, f.Length)
	for _, d := range f.Payload() {
		fmt.Fprintf(&b, " %02X", d)
	}
	return b.String()
}
