// Package pgstore keeps posts in Postgres using plain SQL over a pgx pool.
package pgstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"nunc/internal/core"
	"nunc/internal/persistence"
)

const uniqueViolation = "23505"

const (
	insertPost = `
	INSERT INTO posts (id, text, country, boosts, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	selectLivePost = `
	SELECT id, text, country, boosts, created_at, expires_at
	FROM posts
	WHERE id = $1 AND expires_at > $2`

	// LIMIT NULL means no limit.
	selectLivePosts = `
	SELECT id, text, country, boosts, created_at, expires_at
	FROM posts
	WHERE expires_at > $1
	ORDER BY boosts DESC, created_at DESC, id ASC
	LIMIT NULLIF($2::bigint, 0)`

	// The row lock taken by UPDATE serializes concurrent boosts of one post.
	boostPost = `
	UPDATE posts SET boosts = boosts + $3
	WHERE id = $1 AND expires_at > $2
	RETURNING id, text, country, boosts, created_at, expires_at`

	deleteExpired = `DELETE FROM posts WHERE expires_at <= $1`
)

type postRow struct {
	ID        string `db:"id"`
	Text      string `db:"text"`
	Country   string `db:"country"`
	Boosts    int64  `db:"boosts"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

func (r postRow) toPost() core.Post {
	return core.Post{
		ID:        r.ID,
		Text:      r.Text,
		Country:   r.Country,
		Boosts:    r.Boosts,
		CreatedAt: time.UnixMilli(r.CreatedAt),
		ExpiresAt: time.UnixMilli(r.ExpiresAt),
	}
}

type Store struct {
	Logger *slog.Logger
	Pool   *persistence.Pool
}

func (s *Store) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "pgstore.Store")
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) Save(ctx context.Context, post core.Post) error {
	_, err := s.Pool.Exec(ctx, insertPost,
		post.ID, post.Text, post.Country, post.Boosts,
		post.CreatedAt.UnixMilli(), post.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) FindLive(ctx context.Context, id string, now time.Time) (core.Post, error) {
	rows, err := s.Pool.Query(ctx, selectLivePost, id, now.UnixMilli())
	if err != nil {
		return core.Post{}, err
	}
	return collectOne(rows)
}

func (s *Store) ListLive(ctx context.Context, now time.Time, limit int) ([]core.Post, error) {
	rows, err := s.Pool.Query(ctx, selectLivePosts, now.UnixMilli(), int64(limit))
	if err != nil {
		return nil, err
	}

	posts, err := pgx.CollectRows(rows, pgx.RowToStructByName[postRow])
	if err != nil {
		return nil, err
	}

	res := make([]core.Post, 0, len(posts))
	for _, p := range posts {
		res = append(res, p.toPost())
	}
	return res, nil
}

func (s *Store) ApplyBoost(ctx context.Context, id string, delta int64, now time.Time) (core.Post, error) {
	rows, err := s.Pool.Query(ctx, boostPost, id, now.UnixMilli(), delta)
	if err != nil {
		return core.Post{}, err
	}
	return collectOne(rows)
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, deleteExpired, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectOne(rows pgx.Rows) (core.Post, error) {
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[postRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Post{}, core.ErrNotFound
		}
		return core.Post{}, err
	}
	return row.toPost(), nil
}
