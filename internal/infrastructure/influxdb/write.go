package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-lights/internal/light"
)

// Measurement names.
const (
	measurementState   = "light_state"
	measurementCommand = "light_command"
)

// RecordReport writes a light_state point for an accepted device report.
//
// The write is non-blocking; failures arrive through the SetOnError
// callback, so the returned error is nil unless the client is closed.
func (c *Client) RecordReport(_ context.Context, state light.DeviceState) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.writeAPI.WritePoint(statePoint(c.device, state, time.Now()))
	return nil
}

// RecordCommand writes a light_command point for a published delta.
func (c *Client) RecordCommand(_ context.Context, id string, cmd light.Command, delta light.StateDelta) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.writeAPI.WritePoint(commandPoint(c.device, id, cmd, delta, time.Now()))
	return nil
}

func statePoint(device string, state light.DeviceState, ts time.Time) *write.Point {
	on := 0
	if state.Power == light.PowerOn {
		on = 1
	}

	return write.NewPoint(
		measurementState,
		map[string]string{
			"device": device,
		},
		map[string]interface{}{
			"on":         on,
			"brightness": state.Brightness,
			"color_temp": state.ColorTemp,
		},
		ts,
	)
}

// commandPoint tags by command kind. The correlation id is a field so it
// doesn't blow up series cardinality.
func commandPoint(device, id string, cmd light.Command, delta light.StateDelta, ts time.Time) *write.Point {
	fields := map[string]interface{}{
		"value":      cmd.Value,
		"command_id": id,
	}
	if delta.Brightness != nil {
		fields["brightness"] = *delta.Brightness
	}
	if delta.Power != nil {
		fields["power"] = string(*delta.Power)
	}

	return write.NewPoint(
		measurementCommand,
		map[string]string{
			"device": device,
			"kind":   cmd.Kind.String(),
		},
		fields,
		ts,
	)
}
