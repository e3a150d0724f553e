package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-lights/internal/ipc"
	"github.com/nerrad567/gray-logic-lights/internal/light"
)

// runCommands accepts one client at a time and turns its command into a
// published delta. It always returns a non-nil *LoopError.
func (s *Server) runCommands(ctx context.Context) error {
	fail := func(err error) error {
		return &LoopError{Loop: LoopCommands, Err: err}
	}

	// Unblock Accept on shutdown.
	stop := context.AfterFunc(ctx, func() {
		s.opts.Listener.Close() //nolint:errcheck // Accept reports the result
	})
	defer stop()

	for {
		conn, err := s.opts.Listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return fail(ctx.Err())
			}
			return fail(fmt.Errorf("%w: accepting client: %w", ErrConnectionLost, err))
		}

		if err := s.handleConn(ctx, conn); err != nil {
			return fail(err)
		}
	}
}

// handleConn reads, applies and publishes a single command.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	// Force an in-flight read to return on shutdown.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now()) //nolint:errcheck // read reports the result
	})
	defer stop()

	data, err := ipc.ReadPayload(conn, s.opts.MaxCommandSize, s.opts.ReadTimeout)
	if err != nil {
		// The forced deadline is not a client fault.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ipc.ErrReadTimeout) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", light.ErrMalformedCommand, err)
	}

	cmd, err := light.DecodeCommand(data)
	if err != nil {
		return err
	}

	delta, err := s.cache.Apply(cmd, s.opts.Policy)
	if err != nil {
		return fmt.Errorf("applying %s: %w", cmd, err)
	}

	payload := light.EncodeDelta(delta)
	if err := s.opts.Bus.Publish(s.setTopic, payload, s.opts.PublishQoS, false); err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrPublishFailed, cmd, s.setTopic, err)
	}

	id := uuid.NewString()
	s.logger.Info("command applied",
		"command_id", id,
		"command", cmd.String(),
		"delta", string(payload),
	)
	s.recordCommand(ctx, id, cmd, delta)

	return nil
}
