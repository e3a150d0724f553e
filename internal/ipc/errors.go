package ipc

import "errors"

var (
	// ErrPayloadTooLarge is returned when a client writes more than the
	// configured maximum before closing.
	ErrPayloadTooLarge = errors.New("ipc: payload too large")

	// ErrReadTimeout is returned when a client does not finish writing
	// within the read timeout.
	ErrReadTimeout = errors.New("ipc: read timed out")
)
