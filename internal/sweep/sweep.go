package sweep

import (
	"context"
	"log/slog"
	"time"

	"zvonok/internal/call"
	"zvonok/internal/session"
)

// Sweeper evicts stale sessions and calls on a fixed interval, independent
// of any request. Request-time sweeps already keep results fresh; this
// bounds how long garbage sits on disk when nobody polls.
type Sweeper struct {
	sessions *session.Registry
	calls    *call.Relay
	interval time.Duration
}

func New(sessions *session.Registry, calls *call.Relay, interval time.Duration) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		calls:    calls,
		interval: interval,
	}
}

// Run blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Sweeper) sweepOnce() {
	if _, err := s.sessions.ListActive(); err != nil {
		slog.Error("session sweep failed", "error", err)
	}
	if err := s.calls.Sweep(); err != nil {
		slog.Error("call sweep failed", "error", err)
	}
}
