package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"

	"nunc/internal/core"
)

// Store keeps posts in a map guarded by a single lock. Boosts mutate under the
// write lock, so concurrent boosts on one post never lose updates.
type Store struct {
	mu    sync.RWMutex
	posts map[string]core.Post
}

func NewStore() *Store {
	return &Store{
		posts: map[string]core.Post{},
	}
}

func (s *Store) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.posts == nil {
		s.posts = map[string]core.Post{}
	}
	return nil
}

func (s *Store) HealthCheck(context.Context) error {
	return nil
}

func (s *Store) Save(_ context.Context, post core.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; ok {
		return core.ErrConflict
	}
	s.posts[post.ID] = post
	return nil
}

func (s *Store) FindLive(_ context.Context, id string, now time.Time) (core.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found, ok := s.posts[id]
	if !ok || !found.Live(now) {
		return core.Post{}, core.ErrNotFound
	}
	return found, nil
}

func (s *Store) ListLive(_ context.Context, now time.Time, limit int) ([]core.Post, error) {
	s.mu.RLock()
	posts := lo.Filter(lo.Values(s.posts), func(p core.Post, _ int) bool {
		return p.Live(now)
	})
	s.mu.RUnlock()

	core.SortPosts(posts)
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *Store) ApplyBoost(_ context.Context, id string, delta int64, now time.Time) (core.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.posts[id]
	if !ok || !found.Live(now) {
		return core.Post{}, core.ErrNotFound
	}

	updated := found
	updated.Boosts += delta
	s.posts[id] = updated

	return updated, nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.posts {
		if !p.Live(now) {
			delete(s.posts, id)
			n++
		}
	}
	return n, nil
}
