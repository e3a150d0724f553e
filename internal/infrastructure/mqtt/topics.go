package mqtt

import "fmt"

// TopicPrefix is the base for topics lightsd owns itself.
const TopicPrefix = "lightsd"

// setSuffix is appended to a device state topic to address updates to it.
const setSuffix = "/set"

// Topics provides builders for the MQTT topics lightsd uses.
//
//	topics := mqtt.Topics{}
//	setTopic := topics.DeviceSet("zigbee2mqtt/lamp")
//	// Returns: "zigbee2mqtt/lamp/set"
type Topics struct{}

// DeviceSet returns the topic that accepts state updates for a device.
//
// Example: zigbee2mqtt/lamp/set
func (Topics) DeviceSet(stateTopic string) string {
	return stateTopic + setSuffix
}

// Status returns the retained availability topic for a daemon instance.
//
// Example: lightsd/lightsd-1a2b3c4d/status
func (Topics) Status(clientID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefix, clientID)
}
