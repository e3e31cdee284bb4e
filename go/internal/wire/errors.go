package wire

import (
	"errors"
	"fmt"
)

// ErrFrameLength is returned when a frame is not exactly FrameLen bytes
var ErrFrameLength = errors.New("wrong frame length")

// ErrUnencodable is returned by Encode for records the layout cannot carry
var ErrUnencodable = errors.New("record cannot be encoded")

// DecodeError describes a malformed field inside a correctly sized frame
type DecodeError struct {
	Offset int
	Field  string
	Value  uint64
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: invalid value %d", e.Field, e.Offset, e.Value)
}
