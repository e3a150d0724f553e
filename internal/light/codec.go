package light

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// wireCommand is the CBOR layout of a Command: a two-element array.
type wireCommand struct {
	_     struct{} `cbor:",toarray"`
	Kind  uint8
	Value uint64
}

// encMode uses core deterministic encoding so that the same command
// always produces the same bytes.
var encMode cbor.EncMode

// decMode rejects indefinite-length items, which the encoder never emits.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("light: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		IndefLength:      cbor.IndefLengthForbidden,
		MaxArrayElements: 16,
	}.DecMode()
	if err != nil {
		panic("light: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeCommand returns the local wire form of cmd.
func EncodeCommand(cmd Command) ([]byte, error) {
	if !cmd.Kind.valid() {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedCommand, cmd.Kind)
	}
	value := cmd.Value
	if !cmd.Relative() && cmd.Kind != KindSetBrightness {
		value = 0
	}
	return encMode.Marshal(wireCommand{Kind: uint8(cmd.Kind), Value: value})
}

// DecodeCommand parses one command from its local wire form.
//
// Any input that EncodeCommand would not have produced is rejected with
// ErrMalformedCommand.
func DecodeCommand(data []byte) (Command, error) {
	if len(data) == 0 {
		return Command{}, fmt.Errorf("%w: empty payload", ErrMalformedCommand)
	}

	var w wireCommand
	if err := decMode.Unmarshal(data, &w); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
	}

	kind := Kind(w.Kind)
	if !kind.valid() {
		return Command{}, fmt.Errorf("%w: unknown kind %d", ErrMalformedCommand, w.Kind)
	}
	if (kind == KindTurnOn || kind == KindTurnOff) && w.Value != 0 {
		return Command{}, fmt.Errorf("%w: %s takes no value", ErrMalformedCommand, kind)
	}

	cmd := Command{Kind: kind, Value: w.Value}

	// Only the canonical encoding is accepted: non-shortest integers
	// decode fine but would not survive a re-encode.
	canonical, err := EncodeCommand(cmd)
	if err != nil {
		return Command{}, err
	}
	if !bytes.Equal(canonical, data) {
		return Command{}, fmt.Errorf("%w: non-canonical encoding", ErrMalformedCommand)
	}

	return cmd, nil
}

// wireState mirrors DeviceState with pointer fields so missing keys can
// be told apart from zero values.
type wireState struct {
	Power      *Power  `json:"state"`
	Brightness *uint64 `json:"brightness"`
	ColorTemp  *int64  `json:"color_temp"`
}

// DecodeState parses a device report.
//
// All of state, brightness and color_temp must be present; other keys
// are ignored.
func DecodeState(data []byte) (DeviceState, error) {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return DeviceState{}, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}

	switch {
	case w.Power == nil:
		return DeviceState{}, fmt.Errorf("%w: missing field \"state\"", ErrMalformedState)
	case w.Brightness == nil:
		return DeviceState{}, fmt.Errorf("%w: missing field \"brightness\"", ErrMalformedState)
	case w.ColorTemp == nil:
		return DeviceState{}, fmt.Errorf("%w: missing field \"color_temp\"", ErrMalformedState)
	case !w.Power.valid():
		return DeviceState{}, fmt.Errorf("%w: unknown state %q", ErrMalformedState, *w.Power)
	}

	return DeviceState{
		Power:      *w.Power,
		Brightness: *w.Brightness,
		ColorTemp:  *w.ColorTemp,
	}, nil
}

// EncodeState returns the JSON form of a device state.
func EncodeState(s DeviceState) []byte {
	// Marshal cannot fail for a struct of strings and integers.
	data, _ := json.Marshal(s)
	return data
}

// EncodeDelta returns the JSON form of a delta, omitting absent fields.
func EncodeDelta(d StateDelta) []byte {
	data, _ := json.Marshal(d)
	return data
}

// DecodeDelta parses a delta document. Unknown keys are rejected.
func DecodeDelta(data []byte) (StateDelta, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var d StateDelta
	if err := dec.Decode(&d); err != nil {
		return StateDelta{}, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	if dec.More() {
		return StateDelta{}, fmt.Errorf("%w: trailing data", ErrMalformedState)
	}
	if d.Power != nil && !d.Power.valid() {
		return StateDelta{}, fmt.Errorf("%w: unknown state %q", ErrMalformedState, *d.Power)
	}

	return d, nil
}
