package server

import (
	"github.com/nerrad567/gray-logic-lights/internal/infrastructure/mqtt"
)

// streamBuffer is the number of reports held between the MQTT router and
// the subscription loop.
const streamBuffer = 16

// Subscription is an ordered feed of device reports.
type Subscription interface {
	Payloads() <-chan []byte

	// Done is closed when the feed ends. Err then reports nil for a
	// clean end and non-nil when the connection was lost.
	Done() <-chan struct{}
	Err() error
}

// Bus is the pub/sub connection the server talks to.
type Bus interface {
	// Subscribe returns once the broker has confirmed the subscription.
	Subscribe(topic string, qos byte) (Subscription, error)
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// mqttBus adapts *mqtt.Client to Bus.
type mqttBus struct {
	client *mqtt.Client
}

// NewMQTTBus returns a Bus backed by a connected MQTT client.
func NewMQTTBus(client *mqtt.Client) Bus {
	return &mqttBus{client: client}
}

func (b *mqttBus) Subscribe(topic string, qos byte) (Subscription, error) {
	stream, err := b.client.SubscribeStream(topic, qos, streamBuffer)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (b *mqttBus) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return b.client.Publish(topic, payload, qos, retained)
}
