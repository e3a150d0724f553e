package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-lights/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-lights/internal/light"
)

// Logger interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder receives every accepted report and every published delta.
// Recorder failures are logged and never stop the server.
type Recorder interface {
	RecordReport(ctx context.Context, state light.DeviceState) error
	RecordCommand(ctx context.Context, id string, cmd light.Command, delta light.StateDelta) error
}

// Options configures a Server.
type Options struct {
	// Topic is the device state topic. Deltas go to Topic + "/set".
	Topic string

	SubscribeQoS byte
	PublishQoS   byte

	// Policy bounds brightness changes. Zero value means light.DefaultPolicy.
	Policy light.Policy

	// ReadTimeout bounds a single client read. Zero disables it.
	ReadTimeout time.Duration

	// MaxCommandSize caps a client payload. Zero means ipc.DefaultMaxPayload.
	MaxCommandSize int64

	// Bus is the broker connection. Required.
	Bus Bus

	// Listener accepts local client connections. Required.
	// It is closed when Start's context is cancelled.
	Listener net.Listener

	// Logger is optional.
	Logger Logger

	// Recorders are optional audit sinks.
	Recorders []Recorder
}

// Server bridges the local socket and the bus around one state cache.
type Server struct {
	opts      Options
	setTopic  string
	cache     *light.Cache
	logger    Logger
	recorders []Recorder
}

// New validates opts and returns a Server ready to Start.
func New(opts Options) (*Server, error) {
	if opts.Topic == "" {
		return nil, errors.New("server: topic is required")
	}
	if opts.Bus == nil {
		return nil, errors.New("server: bus is required")
	}
	if opts.Listener == nil {
		return nil, errors.New("server: listener is required")
	}
	if opts.SubscribeQoS > 2 || opts.PublishQoS > 2 {
		return nil, fmt.Errorf("server: qos must be 0, 1 or 2 (subscribe %d, publish %d)", opts.SubscribeQoS, opts.PublishQoS)
	}
	if opts.Policy.MaxBrightness == 0 {
		opts.Policy = light.DefaultPolicy()
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Server{
		opts:      opts,
		setTopic:  mqtt.Topics{}.DeviceSet(opts.Topic),
		cache:     light.NewCache(),
		logger:    logger,
		recorders: opts.Recorders,
	}, nil
}

// Cache returns the server's state cache.
func (s *Server) Cache() *light.Cache {
	return s.cache
}

// SetTopic returns the topic deltas are published to.
func (s *Server) SetTopic() string {
	return s.setTopic
}

// Start subscribes to the device topic and runs both loops until one of
// them ends.
//
// The first loop to end cancels the other, which is joined before Start
// returns. The result is the *LoopError of the loop that failed, or nil
// when the only reason both loops ended is that ctx was cancelled by the
// caller. A loop failure that races with cancellation is still returned.
func (s *Server) Start(ctx context.Context) error {
	sub, err := s.opts.Bus.Subscribe(s.opts.Topic, s.opts.SubscribeQoS)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.opts.Topic, err)
	}

	s.logger.Info("server started",
		"topic", s.opts.Topic,
		"set_topic", s.setTopic,
		"socket", s.opts.Listener.Addr().String(),
		"max_brightness", s.opts.Policy.MaxBrightness,
	)

	var results [2]error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results[0] = s.runSubscription(gctx, sub)
		return results[0]
	})
	g.Go(func() error {
		results[1] = s.runCommands(gctx)
		return results[1]
	})

	first := g.Wait()
	if err := loopFailure(first, results[:]); err != nil {
		s.logger.Error("server stopped", "error", err)
		return err
	}
	if ctx.Err() != nil {
		s.logger.Info("server stopped")
		return nil
	}

	s.logger.Error("server stopped", "error", first)
	return first
}

// loopFailure returns the first loop error that is not a plain
// cancellation, preferring the one errgroup saw first.
func loopFailure(first error, results []error) error {
	if first != nil && !cancelled(first) {
		return first
	}
	for _, err := range results {
		if err != nil && !cancelled(err) {
			return err
		}
	}
	return nil
}

// cancelled reports whether a loop ended only because its context did.
func cancelled(err error) bool {
	var le *LoopError
	if !errors.As(err, &le) {
		return false
	}
	return le.Err == context.Canceled || le.Err == context.DeadlineExceeded
}

// recordReport hands an accepted report to every recorder.
func (s *Server) recordReport(ctx context.Context, state light.DeviceState) {
	for _, r := range s.recorders {
		if err := r.RecordReport(ctx, state); err != nil {
			s.logger.Warn("recording report failed", "error", err)
		}
	}
}

// recordCommand hands a published delta to every recorder.
func (s *Server) recordCommand(ctx context.Context, id string, cmd light.Command, delta light.StateDelta) {
	for _, r := range s.recorders {
		if err := r.RecordCommand(ctx, id, cmd, delta); err != nil {
			s.logger.Warn("recording command failed", "command_id", id, "error", err)
		}
	}
}
