package protocol

import "errors"

var (
	// ErrMissingType is returned when a message has no type.
	ErrMissingType = errors.New("protocol: message type missing")

	// ErrUnknownType is returned when a message type is not handled.
	ErrUnknownType = errors.New("protocol: unknown message type")
)
