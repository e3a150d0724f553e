package light

import "errors"

// Domain errors for the light package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedCommand is returned when a local command payload is
	// truncated, has trailing bytes, or names an unknown command.
	ErrMalformedCommand = errors.New("light: malformed command")

	// ErrMalformedState is returned when a device report does not match
	// the expected state document.
	ErrMalformedState = errors.New("light: malformed device state")

	// ErrStateNotYetKnown is returned when a relative command arrives
	// before the light has reported its state.
	ErrStateNotYetKnown = errors.New("light: device state not yet known")
)
