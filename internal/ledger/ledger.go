package ledger

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"

	"nunc/internal/core"
	"nunc/internal/metrics"
)

// Ledger owns the set of live posts. It validates input, stamps creation and
// expiry, and ranks the feed; the store only persists what it is given.
type Ledger struct {
	Logger *slog.Logger
	Store  core.PostStore

	clock clockwork.Clock
	newID func() string
}

func New(logger *slog.Logger, store core.PostStore, clock clockwork.Clock) *Ledger {
	l := &Ledger{
		Logger: logger,
		Store:  store,
		clock:  clock,
	}
	l.setDefaults()
	return l
}

func (l *Ledger) Init(_ context.Context) error {
	l.Logger = l.Logger.With("component", "ledger.Ledger")
	l.setDefaults()
	return nil
}

func (l *Ledger) setDefaults() {
	if l.clock == nil {
		l.clock = clockwork.NewRealClock()
	}
	if l.newID == nil {
		l.newID = uuid.NewString
	}
}

func (l *Ledger) HealthCheck(ctx context.Context) error {
	return l.Store.HealthCheck(ctx)
}

// Create validates the draft and stores a new post with zero or the given
// non-negative boosts.
func (l *Ledger) Create(ctx context.Context, draft core.Draft) (core.Post, error) {
	text, err := ValidateText(draft.Text)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			metrics.PostRejections.WithLabelValues(verr.Code).Inc()
		}
		return core.Post{}, err
	}

	now := core.Millis(l.clock.Now())
	post := core.Post{
		ID:        l.newID(),
		Text:      text,
		Country:   NormalizeCountry(draft.Country),
		Boosts:    min(max(draft.Boosts, 0), MaxCount),
		CreatedAt: now,
		ExpiresAt: now.Add(core.PostTTL),
	}

	if err := l.Store.Save(ctx, post); err != nil {
		return core.Post{}, storageError("save", err)
	}

	metrics.PostsCreated.Inc()
	l.Logger.Debug("post created", "id", post.ID, "country", post.Country, "boosts", post.Boosts)

	return post, nil
}

// Boost adds delta to a live post. Negative deltas are clamped to zero; a zero
// delta changes nothing but still reports the live post or ErrNotFound.
func (l *Ledger) Boost(ctx context.Context, id string, delta int64) (core.Post, error) {
	if id == "" {
		return core.Post{}, core.ErrNotFound
	}
	delta = min(max(delta, 0), MaxCount)
	now := l.clock.Now()

	var (
		post core.Post
		err  error
	)
	if delta == 0 {
		post, err = l.Store.FindLive(ctx, id, now)
	} else {
		post, err = l.Store.ApplyBoost(ctx, id, delta, now)
	}
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Post{}, core.ErrNotFound
		}
		return core.Post{}, storageError("boost", err)
	}

	metrics.Boosts.Add(float64(delta))
	l.Logger.Debug("post boosted", "id", id, "delta", delta, "boosts", post.Boosts)

	return post, nil
}

// List returns the ranked feed of live posts. A limit <= 0 returns all of them.
func (l *Ledger) List(ctx context.Context, limit int) ([]core.Post, error) {
	limit = max(limit, 0)
	now := l.clock.Now()

	posts, err := l.Store.ListLive(ctx, now, limit)
	if err != nil {
		return nil, storageError("list", err)
	}

	posts = lo.Filter(posts, func(p core.Post, _ int) bool {
		return p.Live(now)
	})
	core.SortPosts(posts)

	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// CountryTotals sums live boosts per country. Every known country is listed,
// unknown ones only when they hold live posts.
func (l *Ledger) CountryTotals(ctx context.Context) ([]core.CountryTotal, error) {
	posts, err := l.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(core.Countries))
	for _, country := range core.Countries {
		totals[country] = 0
	}
	for _, p := range posts {
		totals[p.Country] += p.Boosts
	}

	result := lo.MapToSlice(totals, func(country string, boosts int64) core.CountryTotal {
		return core.CountryTotal{Country: country, Boosts: boosts}
	})
	slices.SortFunc(result, core.CompareCountryTotals)

	return result, nil
}

// Sweep deletes posts expired at the current time.
func (l *Ledger) Sweep(ctx context.Context) (int64, error) {
	n, err := l.Store.DeleteExpired(ctx, l.clock.Now())
	if err != nil {
		return 0, storageError("delete expired", err)
	}
	metrics.PostsExpired.Add(float64(n))
	return n, nil
}

func storageError(op string, err error) error {
	var serr *core.StorageError
	if errors.As(err, &serr) {
		return err
	}
	return &core.StorageError{Op: op, Err: err}
}
