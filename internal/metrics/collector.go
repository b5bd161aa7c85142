package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"

	"nunc/internal/core"
)

const collectInterval = 15 * time.Second

// Collector periodically refreshes the live posts gauges.
type Collector struct {
	Logger *slog.Logger
	Ledger core.Ledger

	clock clockwork.Clock
}

func NewCollector(logger *slog.Logger, ledger core.Ledger, clock clockwork.Clock) *Collector {
	return &Collector{
		Logger: logger,
		Ledger: ledger,
		clock:  clock,
	}
}

func (c *Collector) Init(_ context.Context) error {
	c.Logger = c.Logger.With("component", "metrics.Collector")
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	return nil
}

func (c *Collector) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(collectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			c.Logger.Debug("Collecting metrics")
			if err := c.collect(ctx); err != nil {
				c.Logger.Error("failed to collect metrics", "error", err)
			}
		}
	}
}

func (c *Collector) collect(ctx context.Context) error {
	posts, err := c.Ledger.List(ctx, 0)
	if err != nil {
		return err
	}

	livePosts.Set(float64(len(posts)))
	liveBoosts.Set(float64(lo.SumBy(posts, func(p core.Post) int64 {
		return p.Boosts
	})))
	return nil
}
