package wire

import (
	"errors"
	"fmt"
)

// DecodeErrType ...
type DecodeErrType uint32

const (
	// EmptyFrame ...
	EmptyFrame DecodeErrType = iota
	// UnknownTag ...
	UnknownTag
	// ShortFrame means the frame ends before the fields required by its tag.
	ShortFrame
	// OversizedFrame ...
	OversizedFrame
	// BadAddress means the address byte does not match the message kind.
	BadAddress
	// BadState means a coordinator frame carries a gate state.
	BadState
)

// DecodeErr is returned by Decode. Receivers drop the frame.
type DecodeErr struct {
	errType DecodeErrType
	tag     byte
	length  int
}

// NewDecodeErr ...
func NewDecodeErr(errType DecodeErrType, tag byte, length int) DecodeErr {
	return DecodeErr{
		errType: errType,
		tag:     tag,
		length:  length,
	}
}

// Type ...
func (e DecodeErr) Type() DecodeErrType {
	return e.errType
}

// Error ...
func (e DecodeErr) Error() string {
	m := ""
	switch e.errType {
	case EmptyFrame:
		m = "Empty Frame"
	case UnknownTag:
		m = "Unknown Tag"
	case ShortFrame:
		m = "Short Frame"
	case OversizedFrame:
		m = "Oversized Frame"
	case BadAddress:
		m = "Bad Address"
	case BadState:
		m = "Bad State"
	}

	return fmt.Sprintf("decode frame: tag %d, %d bytes, %s", e.tag, e.length, m)
}

// IsDecode checks that err is, or wraps, a DecodeErr of type t.
func IsDecode(err error, t DecodeErrType) bool {
	var de DecodeErr
	return errors.As(err, &de) && de.errType == t
}
