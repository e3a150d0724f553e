package server

import (
	"errors"
	"fmt"
)

// Errors surfaced by the loops. Codec and cache failures use the light
// package sentinels (ErrMalformedCommand, ErrMalformedState,
// ErrStateNotYetKnown).
var (
	// ErrPublishFailed is returned when a delta could not be published.
	ErrPublishFailed = errors.New("publish failed")

	// ErrSubscriptionEnded is returned when the state subscription ends cleanly.
	ErrSubscriptionEnded = errors.New("subscription ended")

	// ErrConnectionLost is returned when the bus connection or the local
	// listener goes away.
	ErrConnectionLost = errors.New("connection lost")

	// ErrTimeout is returned when a client does not finish its command in time.
	ErrTimeout = errors.New("timed out")
)

// Loop names carried by LoopError.
const (
	LoopSubscription = "subscription"
	LoopCommands     = "commands"
)

// LoopError records which loop ended and why.
type LoopError struct {
	Loop string
	Err  error
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("%s loop: %v", e.Loop, e.Err)
}

func (e *LoopError) Unwrap() error {
	return e.Err
}
