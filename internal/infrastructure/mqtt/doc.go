// Package mqtt provides MQTT client connectivity for lightsd.
//
// This package manages:
//   - Connection to the broker with optional auto-reconnect
//   - Message publishing with a bounded acknowledgement wait
//   - Callback and stream subscriptions
//   - Last Will and Testament (LWT) on the daemon's availability topic
//
// # Streams
//
// SubscribeStream turns a subscription into a Stream: an ordered channel
// of payloads plus a Done signal. A stream ends when the client is closed
// (Err returns nil) or when the connection drops while auto-reconnect is
// disabled (Err wraps ErrConnectionLost). With auto-reconnect enabled a
// dropped connection is invisible to stream consumers; the subscription
// is restored once the client reconnects.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	stream, err := client.SubscribeStream("zigbee2mqtt/lamp", 1, 16)
//	if err != nil {
//	    return err
//	}
//	for {
//	    select {
//	    case payload := <-stream.Payloads():
//	        handle(payload)
//	    case <-stream.Done():
//	        return stream.Err()
//	    }
//	}
package mqtt
