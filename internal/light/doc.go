// Package light holds the state model for a single MQTT-controlled light.
//
// It defines:
//   - Command, the five discrete user commands sent over the local socket
//   - DeviceState, the full state the light reports on the bus
//   - StateDelta, the sparse update published back to the light
//   - Cache, the last reported state shared by the subscription and
//     command loops
//
// # Wire Formats
//
// Commands travel over the local socket as a two-element CBOR array
// [kind, value] using core deterministic encoding:
//
//	TurnOn            82 00 00
//	Dim(10)           82 02 0a
//	Brighten(700)     82 03 19 02 bc
//
// DeviceState and StateDelta travel over MQTT as JSON, in the shape
// zigbee2mqtt uses for lights:
//
//	{"state":"ON","brightness":180,"color_temp":300}
//	{"brightness":190}
//
// # Cache Policy
//
// Cache.Apply is optimistic: the computed change is written into the
// cache before the delta is published, so two quick relative commands
// compose against each other rather than against the last report. The
// cost is drift if the publish fails or the light ignores the update;
// the next report from the light overwrites the cache and corrects it.
package light
