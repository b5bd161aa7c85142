package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"nunc/internal/core"
	"nunc/pkg/async"
)

const readConcurrency = 8

// Post ids double as keys, anything else cannot name a stored post.
var validKey = regexp.MustCompile(`^[-_=a-zA-Z0-9]+$`)

type record struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Country   string `json:"country"`
	Boosts    int64  `json:"boosts"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

func toRecord(p core.Post) record {
	return record{
		ID:        p.ID,
		Text:      p.Text,
		Country:   p.Country,
		Boosts:    p.Boosts,
		CreatedAt: p.CreatedAt.UnixMilli(),
		ExpiresAt: p.ExpiresAt.UnixMilli(),
	}
}

func (r record) toPost() core.Post {
	return core.Post{
		ID:        r.ID,
		Text:      r.Text,
		Country:   r.Country,
		Boosts:    r.Boosts,
		CreatedAt: time.UnixMilli(r.CreatedAt),
		ExpiresAt: time.UnixMilli(r.ExpiresAt),
	}
}

// Store keeps one key per post in a JetStream key-value bucket. Boosts are a
// compare-and-set loop on the key revision.
type Store struct {
	Logger *slog.Logger
	NATS   *NATS
}

func (s *Store) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "nats.Store")
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.NATS.HealthCheck(ctx)
}

func (s *Store) Save(ctx context.Context, post core.Post) error {
	if !validKey.MatchString(post.ID) {
		return fmt.Errorf("invalid post id %q", post.ID)
	}

	data, err := json.Marshal(toRecord(post))
	if err != nil {
		return err
	}

	_, err = s.NATS.KV.Create(ctx, post.ID, data)
	if errors.Is(err, jetstream.ErrKeyExists) {
		return core.ErrConflict
	}
	return err
}

func (s *Store) FindLive(ctx context.Context, id string, now time.Time) (core.Post, error) {
	post, _, err := s.get(ctx, id)
	if err != nil {
		return core.Post{}, err
	}
	if !post.Live(now) {
		return core.Post{}, core.ErrNotFound
	}
	return post, nil
}

func (s *Store) ListLive(ctx context.Context, now time.Time, limit int) ([]core.Post, error) {
	var (
		mu    sync.Mutex
		posts []core.Post
	)

	err := s.each(ctx, func(post core.Post, _ uint64) error {
		if post.Live(now) {
			mu.Lock()
			posts = append(posts, post)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	core.SortPosts(posts)
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *Store) ApplyBoost(ctx context.Context, id string, delta int64, now time.Time) (core.Post, error) {
	for {
		if err := ctx.Err(); err != nil {
			return core.Post{}, err
		}

		post, revision, err := s.get(ctx, id)
		if err != nil {
			return core.Post{}, err
		}
		if !post.Live(now) {
			return core.Post{}, core.ErrNotFound
		}

		post.Boosts += delta
		data, err := json.Marshal(toRecord(post))
		if err != nil {
			return core.Post{}, err
		}

		_, err = s.NATS.KV.Update(ctx, id, data, revision)
		if err == nil {
			return post, nil
		}
		if !errors.Is(err, jetstream.ErrKeyExists) {
			return core.Post{}, err
		}
		s.Logger.Debug("boost lost a revision race, retrying", "id", id, "revision", revision)
	}
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n atomic.Int64

	err := s.each(ctx, func(post core.Post, revision uint64) error {
		if post.Live(now) {
			return nil
		}
		err := s.NATS.KV.Delete(ctx, post.ID, jetstream.LastRevision(revision))
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyExists) {
				return nil
			}
			return err
		}
		n.Add(1)
		return nil
	})

	return n.Load(), err
}

func (s *Store) get(ctx context.Context, id string) (core.Post, uint64, error) {
	if !validKey.MatchString(id) {
		return core.Post{}, 0, core.ErrNotFound
	}

	entry, err := s.NATS.KV.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return core.Post{}, 0, core.ErrNotFound
		}
		return core.Post{}, 0, err
	}

	var r record
	if err := json.Unmarshal(entry.Value(), &r); err != nil {
		return core.Post{}, 0, fmt.Errorf("decode post %s: %w", id, err)
	}
	return r.toPost(), entry.Revision(), nil
}

// each reads every stored post concurrently and calls fn for it. fn must be
// safe for concurrent use.
func (s *Store) each(ctx context.Context, fn func(post core.Post, revision uint64) error) error {
	lister, err := s.NATS.KV.ListKeys(ctx)
	if err != nil {
		return err
	}
	defer lister.Stop() //nolint:errcheck

	return async.WorkerPool(ctx, readConcurrency, lister.Keys(), func(ctx context.Context, key string) error {
		post, revision, err := s.get(ctx, key)
		if err != nil {
			// Deleted between listing and reading.
			if errors.Is(err, core.ErrNotFound) {
				return nil
			}
			return err
		}
		return fn(post, revision)
	})
}
