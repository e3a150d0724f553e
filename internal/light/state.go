package light

// Power is the on/off state as reported on the bus.
type Power string

const (
	PowerOn  Power = "ON"
	PowerOff Power = "OFF"
)

// valid reports whether p is ON or OFF.
func (p Power) valid() bool {
	return p == PowerOn || p == PowerOff
}

// DeviceState is the last full state reported by the light.
//
// It is replaced wholesale by each report and never merged.
type DeviceState struct {
	Power      Power  `json:"state"`
	Brightness uint64 `json:"brightness"`
	ColorTemp  int64  `json:"color_temp"`
}

// StateDelta is a sparse update published to the light.
// Nil fields are left out of the encoded document.
type StateDelta struct {
	Power      *Power  `json:"state,omitempty"`
	Brightness *uint64 `json:"brightness,omitempty"`
	ColorTemp  *int64  `json:"color_temp,omitempty"`
}

// PowerDelta returns a delta changing only the power state.
func PowerDelta(p Power) StateDelta {
	return StateDelta{Power: &p}
}

// BrightnessDelta returns a delta changing only the brightness.
func BrightnessDelta(b uint64) StateDelta {
	return StateDelta{Brightness: &b}
}

// IsEmpty reports whether the delta changes nothing.
func (d StateDelta) IsEmpty() bool {
	return d.Power == nil && d.Brightness == nil && d.ColorTemp == nil
}

// Policy holds the limits applied when computing deltas.
type Policy struct {
	// MaxBrightness is the ceiling for Brighten and SetBrightness.
	MaxBrightness uint64
}

// DefaultMaxBrightness matches the 0-254 brightness range zigbee2mqtt
// exposes for most lights.
const DefaultMaxBrightness = 254

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{MaxBrightness: DefaultMaxBrightness}
}

// Compute applies cmd to the optional current state.
//
// It returns the delta to publish and the state the light should end up
// in. When current is nil, absolute commands still produce a delta but
// next is nil, since a partial state cannot be cached; relative commands
// fail with ErrStateNotYetKnown.
func Compute(current *DeviceState, cmd Command, p Policy) (StateDelta, *DeviceState, error) {
	if cmd.Relative() && current == nil {
		return StateDelta{}, nil, ErrStateNotYetKnown
	}

	var next *DeviceState
	if current != nil {
		copied := *current
		next = &copied
	}

	var delta StateDelta
	switch cmd.Kind {
	case KindTurnOn:
		delta = PowerDelta(PowerOn)
		if next != nil {
			next.Power = PowerOn
		}
	case KindTurnOff:
		delta = PowerDelta(PowerOff)
		if next != nil {
			next.Power = PowerOff
		}
	case KindDim:
		next.Brightness = saturatingSub(next.Brightness, cmd.Value)
		delta = BrightnessDelta(next.Brightness)
	case KindBrighten:
		next.Brightness = saturatingAdd(next.Brightness, cmd.Value, p.MaxBrightness)
		delta = BrightnessDelta(next.Brightness)
	case KindSetBrightness:
		target := min(cmd.Value, p.MaxBrightness)
		delta = BrightnessDelta(target)
		if next != nil {
			next.Brightness = target
		}
	default:
		return StateDelta{}, nil, ErrMalformedCommand
	}

	return delta, next, nil
}

// saturatingSub returns max(b-n, 0).
func saturatingSub(b, n uint64) uint64 {
	if n >= b {
		return 0
	}
	return b - n
}

// saturatingAdd returns min(b+n, ceiling) without overflowing.
func saturatingAdd(b, n, ceiling uint64) uint64 {
	if b >= ceiling || n >= ceiling-b {
		return ceiling
	}
	return b + n
}
