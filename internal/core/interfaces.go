package core

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// PostStore is the storage port of the ledger. Stores persist and retrieve
// posts; validation, clamping and ranking stay in the ledger.
type PostStore interface {
	// Save inserts a new post. It fails with ErrConflict if the id is taken.
	Save(ctx context.Context, post Post) error

	// FindLive returns the post with the given id if it is live at now,
	// ErrNotFound otherwise.
	FindLive(ctx context.Context, id string, now time.Time) (Post, error)

	// ListLive returns posts live at now. With limit > 0 the result holds
	// the first limit posts in ranking order.
	ListLive(ctx context.Context, now time.Time, limit int) ([]Post, error)

	// ApplyBoost atomically adds delta (>= 0) to the boosts of the post with
	// the given id if it is live at now and returns the updated post.
	ApplyBoost(ctx context.Context, id string, delta int64, now time.Time) (Post, error)

	// DeleteExpired removes posts with ExpiresAt <= now and reports how many
	// were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	HealthCheck(ctx context.Context) error
}

// DB is the gorm backed connection shared by the ORM stores.
type DB interface {
	WithContext(ctx context.Context) *gorm.DB
	Dialect() string
	SQLDB
}

// SQLDB exposes the underlying database/sql handle, used by migrations.
type SQLDB interface {
	DB() (*sql.DB, error)
}

type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
}

// Draft is the caller input for a new post, before validation.
type Draft struct {
	Text    string
	Country string
	Boosts  int64
}

// Ledger is the sole authority on validation, ranking and expiry of posts.
type Ledger interface {
	Create(ctx context.Context, draft Draft) (Post, error)
	Boost(ctx context.Context, id string, delta int64) (Post, error)
	List(ctx context.Context, limit int) ([]Post, error)
	CountryTotals(ctx context.Context) ([]CountryTotal, error)
	Sweep(ctx context.Context) (int64, error)
	HealthCheck(ctx context.Context) error
}
