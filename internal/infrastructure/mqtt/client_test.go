package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-lights/internal/infrastructure/config"
)

// These tests need no broker. Broker-backed tests live in
// integration_test.go behind the integration build tag.

// offlineClient returns a client that was never connected.
func offlineClient(cfg config.MQTTConfig) *Client {
	return &Client{
		cfg:           cfg,
		subscriptions: make(map[string]subscription),
		streams:       make(map[*Stream]struct{}),
	}
}

// =============================================================================
// Connection State Tests
// =============================================================================

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}

	if err := client.Close(); err != nil {
		t.Errorf("Close() on uninitialised client error = %v", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := offlineClient(config.MQTTConfig{})

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := offlineClient(config.MQTTConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.HealthCheck(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestPublishValidation(t *testing.T) {
	client := offlineClient(config.MQTTConfig{})

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "zigbee2mqtt/lamp/set", []byte("x"), 3, ErrInvalidQoS},
		{"payload too large", "zigbee2mqtt/lamp/set", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"disconnected", "zigbee2mqtt/lamp/set", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := offlineClient(config.MQTTConfig{})
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 1, handler, ErrInvalidTopic},
		{"invalid qos", "zigbee2mqtt/lamp", 3, handler, ErrInvalidQoS},
		{"nil handler", "zigbee2mqtt/lamp", 1, nil, ErrSubscribeFailed},
		{"disconnected", "zigbee2mqtt/lamp", 1, handler, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0 after failed subscribes", client.SubscriptionCount())
	}
}

func TestSubscribeStreamDisconnected(t *testing.T) {
	client := offlineClient(config.MQTTConfig{})

	stream, err := client.SubscribeStream("zigbee2mqtt/lamp", 1, 4)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("SubscribeStream() error = %v, want ErrNotConnected", err)
	}
	if stream != nil {
		t.Error("SubscribeStream() returned a stream on failure")
	}
	if len(client.streams) != 0 {
		t.Errorf("failed stream still registered: %d", len(client.streams))
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := offlineClient(config.MQTTConfig{})

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Unsubscribe("zigbee2mqtt/lamp"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Stream Lifecycle Tests
// =============================================================================

func TestDisconnectEndsStreamsWithoutReconnect(t *testing.T) {
	client := offlineClient(config.MQTTConfig{})
	s := newStream("zigbee2mqtt/lamp", 1)
	client.streams[s] = struct{}{}

	var callbackErr error
	client.SetOnDisconnect(func(err error) { callbackErr = err })

	cause := errors.New("EOF")
	client.handleDisconnect(cause)

	select {
	case <-s.Done():
	default:
		t.Fatal("stream not closed after connection lost")
	}
	if !errors.Is(s.Err(), ErrConnectionLost) {
		t.Errorf("Err() = %v, want ErrConnectionLost", s.Err())
	}
	if !errors.Is(s.Err(), cause) {
		t.Errorf("Err() = %v, want it to wrap the cause", s.Err())
	}
	if callbackErr != cause {
		t.Errorf("onDisconnect got %v, want %v", callbackErr, cause)
	}
}

func TestDisconnectKeepsStreamsWithReconnect(t *testing.T) {
	cfg := config.MQTTConfig{Reconnect: config.MQTTReconnectConfig{Enabled: true}}
	client := offlineClient(cfg)
	s := newStream("zigbee2mqtt/lamp", 1)
	client.streams[s] = struct{}{}

	client.handleDisconnect(errors.New("EOF"))

	select {
	case <-s.Done():
		t.Fatal("stream closed although reconnect is enabled")
	default:
	}
}

func TestCloseStreamsClean(t *testing.T) {
	client := offlineClient(config.MQTTConfig{})
	a := newStream("a", 0)
	b := newStream("b", 0)
	client.streams[a] = struct{}{}
	client.streams[b] = struct{}{}

	client.closeStreams(nil)

	for _, s := range []*Stream{a, b} {
		select {
		case <-s.Done():
		default:
			t.Fatalf("stream %s not closed", s.Topic())
		}
		if s.Err() != nil {
			t.Errorf("stream %s Err() = %v, want nil", s.Topic(), s.Err())
		}
	}
	if len(client.streams) != 0 {
		t.Errorf("streams still registered: %d", len(client.streams))
	}
}

// =============================================================================
// Options Tests
// =============================================================================

func TestPublishTimeout(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"configured", 2, 2 * time.Second},
		{"unset", 0, defaultPublishTimeout},
		{"negative", -1, defaultPublishTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := offlineClient(config.MQTTConfig{PublishTimeout: tt.seconds})
			if got := client.publishTimeout(); got != tt.want {
				t.Errorf("publishTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "broker.local", Port: 8883, TLS: true, ClientID: "lightsd-test"},
		Auth:   config.MQTTAuthConfig{Username: "lights", Password: "secret"},
		Reconnect: config.MQTTReconnectConfig{
			Enabled:      true,
			InitialDelay: 1,
			MaxDelay:     30,
		},
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://broker.local:8883" {
		t.Errorf("Servers = %v, want [ssl://broker.local:8883]", opts.Servers)
	}
	if opts.ClientID != "lightsd-test" {
		t.Errorf("ClientID = %q, want lightsd-test", opts.ClientID)
	}
	if opts.Username != "lights" {
		t.Errorf("Username = %q, want lights", opts.Username)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if opts.MaxReconnectInterval != 30*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 30s", opts.MaxReconnectInterval)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config missing or below minimum version")
	}
	if !opts.WillEnabled || opts.WillTopic != "lightsd/lightsd-test/status" || !opts.WillRetained {
		t.Errorf("LWT = enabled:%v topic:%q retained:%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	if !strings.Contains(string(opts.WillPayload), `"status":"offline"`) {
		t.Errorf("WillPayload = %s", opts.WillPayload)
	}
}

func TestBuildClientOptionsNoReconnect(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1883, ClientID: "lightsd-test"},
	}

	opts := buildClientOptions(cfg)

	if opts.AutoReconnect {
		t.Error("AutoReconnect = true, want false")
	}
	if opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Server = %s, want tcp://127.0.0.1:1883", opts.Servers[0])
	}
	if opts.Username != "" {
		t.Errorf("Username = %q, want empty", opts.Username)
	}
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DeviceSet", topics.DeviceSet("zigbee2mqtt/lamp"), "zigbee2mqtt/lamp/set"},
		{"DeviceSet nested", topics.DeviceSet("home/kitchen/ceiling"), "home/kitchen/ceiling/set"},
		{"Status", topics.Status("lightsd-1a2b3c4d"), "lightsd/lightsd-1a2b3c4d/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("lightsd-x")
	offline := buildOfflinePayload("lightsd-x")

	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, `"client_id":"lightsd-x"`) {
		t.Errorf("online payload = %s", online)
	}
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", offline)
	}
}
