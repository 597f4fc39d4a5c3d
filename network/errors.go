package network

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrUnknownType    = errors.New("unknown message type")
	ErrTruncated      = errors.New("truncated payload")
	ErrNegativeLength = errors.New("negative length prefix")
	ErrInvalidUTF8    = errors.New("string is not valid utf-8")
	ErrTrailingBytes  = errors.New("trailing bytes after payload")
)

// ProtocolError reports bytes that could not be decoded into a message.
type ProtocolError struct {
	Type MessageType
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Type == 0 {
		return fmt.Sprintf("protocol error: %v", e.Err)
	}
	return fmt.Sprintf("protocol error: %s (tag %d): %v", e.Type, uint8(e.Type), e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
