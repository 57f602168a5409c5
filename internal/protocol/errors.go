package protocol

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a protocol error
type ErrorType int

const (
	// ErrTypeMalformed indicates a frame too short or otherwise unusable for its category
	ErrTypeMalformed ErrorType = iota
	// ErrTypeOutOfRange indicates an identifier outside the range required by an operation
	ErrTypeOutOfRange
	// ErrTypeUnsupported indicates an operation the node has no implementation for
	ErrTypeUnsupported
	// ErrTypeInvalidValue indicates a field value the protocol does not define
	ErrTypeInvalidValue
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeMalformed:
		return "Malformed Frame"
	case ErrTypeOutOfRange:
		return "Out Of Range"
	case ErrTypeUnsupported:
		return "Unsupported"
	case ErrTypeInvalidValue:
		return "Invalid Value"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error describes a frame that could not be decoded or an operation that
// could not be carried out.
type Error struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	FrameID uint16    // Identifier of the frame involved (if any)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (id=0x%03X): %v", e.Type, e.Message, e.FrameID, e.Err)
	}
	return fmt.Sprintf("%s: %s (id=0x%03X)", e.Type, e.Message, e.FrameID)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewMalformedError creates an error for a frame that cannot be decoded
func NewMalformedError(f Frame, message string) *Error {
	return &Error{Type: ErrTypeMalformed, Message: message, FrameID: f.ID}
}

// NewOutOfRangeError creates an error for an identifier outside an allowed range
func NewOutOfRangeError(id uint16, message string) *Error {
	return &Error{Type: ErrTypeOutOfRange, Message: message, FrameID: id}
}

// NewUnsupportedError creates an error for an operation with no implementation
func NewUnsupportedError(message string, err error) *Error {
	return &Error{Type: ErrTypeUnsupported, Message: message, Err: err}
}

func isType(err error, t ErrorType) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}

// IsMalformed checks if an error is a malformed frame error
func IsMalformed(err error) bool { return isType(err, ErrTypeMalformed) }

// IsOutOfRange checks if an error is an out-of-range error
func IsOutOfRange(err error) bool { return isType(err, ErrTypeOutOfRange) }

// IsUnsupported checks if an error is an unsupported operation error
func IsUnsupported(err error) bool { return isType(err, ErrTypeUnsupported) }
