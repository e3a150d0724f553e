package light

import "fmt"

// Kind identifies one of the five command variants.
// The numeric values are part of the local wire format.
type Kind uint8

const (
	KindTurnOn Kind = iota
	KindTurnOff
	KindDim
	KindBrighten
	KindSetBrightness
)

// String returns the command name as used by the lights CLI.
func (k Kind) String() string {
	switch k {
	case KindTurnOn:
		return "on"
	case KindTurnOff:
		return "off"
	case KindDim:
		return "dim"
	case KindBrighten:
		return "brighten"
	case KindSetBrightness:
		return "set-brightness"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// valid reports whether k is one of the known variants.
func (k Kind) valid() bool {
	return k <= KindSetBrightness
}

// Command is a single user request received on the local socket.
//
// Value is the amount for Dim and Brighten, the target for
// SetBrightness, and always zero for TurnOn and TurnOff.
type Command struct {
	Kind  Kind
	Value uint64
}

// TurnOn returns a command switching the light on.
func TurnOn() Command { return Command{Kind: KindTurnOn} }

// TurnOff returns a command switching the light off.
func TurnOff() Command { return Command{Kind: KindTurnOff} }

// Dim returns a command lowering brightness by amount.
func Dim(amount uint64) Command { return Command{Kind: KindDim, Value: amount} }

// Brighten returns a command raising brightness by amount.
func Brighten(amount uint64) Command { return Command{Kind: KindBrighten, Value: amount} }

// SetBrightness returns a command setting brightness to an absolute value.
func SetBrightness(value uint64) Command { return Command{Kind: KindSetBrightness, Value: value} }

// Relative reports whether the command needs the current brightness
// to compute its result.
func (c Command) Relative() bool {
	return c.Kind == KindDim || c.Kind == KindBrighten
}

// String renders the command for logs, e.g. "dim(10)" or "on".
func (c Command) String() string {
	switch c.Kind {
	case KindTurnOn, KindTurnOff:
		return c.Kind.String()
	default:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Value)
	}
}
