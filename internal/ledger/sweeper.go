package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"nunc/internal/config"
	"nunc/internal/core"
)

// Sweeper deletes expired posts on a fixed interval. Reads never depend on it:
// the ledger filters expired posts on every call.
type Sweeper struct {
	Logger *slog.Logger
	Config *config.Config
	Ledger core.Ledger

	clock clockwork.Clock
}

func NewSweeper(logger *slog.Logger, l core.Ledger, interval time.Duration, clock clockwork.Clock) *Sweeper {
	return &Sweeper{
		Logger: logger,
		Config: &config.Config{SweepInterval: interval},
		Ledger: l,
		clock:  clock,
	}
}

func (s *Sweeper) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "ledger.Sweeper")
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	return nil
}

func (s *Sweeper) Run(ctx context.Context) error {
	interval := s.Config.SweepInterval
	if interval <= 0 {
		s.Logger.Info("Sweeper disabled")
		return nil
	}

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			n, err := s.Ledger.Sweep(ctx)
			if err != nil {
				s.Logger.Error("failed to sweep expired posts", "error", err)
				continue
			}
			if n > 0 {
				s.Logger.Info("expired posts swept", "count", n)
			}
		}
	}
}
