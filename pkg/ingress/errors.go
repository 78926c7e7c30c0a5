package ingress

import "errors"

var (
	// ErrAdapterNotConnected is returned when sending to an unknown adapter.
	ErrAdapterNotConnected = errors.New("ingress: adapter not connected")

	// ErrInvalidPayload is returned when a message's data does not decode.
	ErrInvalidPayload = errors.New("ingress: invalid payload")

	// ErrBusy is returned when the engine loop queue is full.
	ErrBusy = errors.New("ingress: engine queue full")
)
