package ledgerclient

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
)

// FeedCache is a read-through cache of the ranked feed. The server stays the
// only authority: the cache never ranks or validates, it only hides posts whose
// server assigned expiry has passed and forgets everything after a mutation.
type FeedCache struct {
	client *Client
	ttl    time.Duration
	clock  clockwork.Clock

	mu        sync.Mutex
	posts     []Post
	fetchedAt time.Time
	valid     bool
}

func NewFeedCache(client *Client, ttl time.Duration, clock clockwork.Clock) *FeedCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FeedCache{
		client: client,
		ttl:    ttl,
		clock:  clock,
	}
}

// Feed returns the cached feed while it is younger than the TTL and fetches a
// fresh one otherwise.
func (c *FeedCache) Feed(ctx context.Context) ([]Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	if !c.valid || now.Sub(c.fetchedAt) >= c.ttl {
		posts, err := c.client.ListPosts(ctx, 0)
		if err != nil {
			return nil, err
		}
		c.posts = posts
		c.fetchedAt = now
		c.valid = true
	}

	c.posts = lo.Filter(c.posts, func(p Post, _ int) bool {
		return p.Live(now)
	})

	return slices.Clone(c.posts), nil
}

func (c *FeedCache) CreatePost(ctx context.Context, post NewPost) (Post, error) {
	defer c.Invalidate()
	return c.client.CreatePost(ctx, post)
}

func (c *FeedCache) Boost(ctx context.Context, id string, add int64) (Post, error) {
	defer c.Invalidate()
	return c.client.Boost(ctx, id, add)
}

func (c *FeedCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.posts = nil
	c.valid = false
}
