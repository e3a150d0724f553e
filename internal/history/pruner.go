package history

import (
	"context"
	"sync"
	"time"
)

// Logger is the subset of the daemon logger the pruner uses.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// RunPruner deletes entries older than retention once immediately and
// then every interval, until ctx is cancelled.
func (s *Store) RunPruner(ctx context.Context, retention, interval time.Duration, logger Logger) {
	prune := func() {
		n, err := s.Prune(ctx, retention)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("pruning history failed", "error", err)
			}
			return
		}
		if n > 0 {
			logger.Info("pruned history", "rows", n, "retention", retention.String())
		}
	}

	prune()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

// StartPruner runs RunPruner in the background. The returned stop
// function cancels it and blocks until it has exited, so the database
// can be closed safely afterwards.
func (s *Store) StartPruner(ctx context.Context, retention, interval time.Duration, logger Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.RunPruner(ctx, retention, interval, logger)
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
