package server

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-lights/internal/light"
)

// runSubscription replaces the cached state with every report until the
// feed ends, a report fails to decode, or ctx is cancelled.
// It always returns a non-nil *LoopError.
func (s *Server) runSubscription(ctx context.Context, sub Subscription) error {
	fail := func(err error) error {
		return &LoopError{Loop: LoopSubscription, Err: err}
	}

	for {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())

		case payload := <-sub.Payloads():
			if err := s.handleReport(ctx, payload); err != nil {
				return fail(err)
			}

		case <-sub.Done():
			// Reports queued before the end still count.
			if err := s.drain(ctx, sub); err != nil {
				return fail(err)
			}
			if cause := sub.Err(); cause != nil {
				return fail(fmt.Errorf("%w: %w", ErrConnectionLost, cause))
			}
			return fail(ErrSubscriptionEnded)
		}
	}
}

func (s *Server) drain(ctx context.Context, sub Subscription) error {
	for {
		select {
		case payload := <-sub.Payloads():
			if err := s.handleReport(ctx, payload); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Server) handleReport(ctx context.Context, payload []byte) error {
	state, err := light.DecodeState(payload)
	if err != nil {
		return fmt.Errorf("report on %s: %w", s.opts.Topic, err)
	}

	s.cache.Replace(state)
	s.logger.Debug("state report",
		"state", string(state.Power),
		"brightness", state.Brightness,
		"color_temp", state.ColorTemp,
	)

	s.recordReport(ctx, state)
	return nil
}
