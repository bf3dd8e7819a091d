// Package cleanup periodically drops expired upstream payloads so raw,
// unmasked data does not outlive its cache TTL in memory.
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Purger removes expired entries and reports how many it removed.
// datasource.Service implements it.
type Purger interface {
	PurgeCache() int
}

// Service runs Purger on a fixed interval.
type Service struct {
	purger   Purger
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(purger Purger, interval time.Duration) *Service {
	return &Service{
		purger:   purger,
		interval: interval,
	}
}

// Start launches the background cleanup loop. A non-positive interval
// disables it.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil || s.interval <= 0 {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cache cleanup service started", "interval", s.interval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cache cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Service) runOnce() {
	if count := s.purger.PurgeCache(); count > 0 {
		slog.Debug("Purged expired upstream cache entries", "count", count)
	}
}
