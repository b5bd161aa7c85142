package posts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"nunc/internal/core"
)

// Repository stores posts through gorm, on SQLite or Postgres.
type Repository struct {
	Logger *slog.Logger
	DB     core.DB
}

func (r *Repository) Init(ctx context.Context) error {
	r.Logger = r.Logger.With("component", "posts.Repository")

	// Postgres schemas are owned by the migrations.
	if r.DB.Dialect() == "sqlite" {
		return r.DB.WithContext(ctx).AutoMigrate(&postModel{})
	}
	return nil
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	db, err := r.DB.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (r *Repository) Save(ctx context.Context, post core.Post) error {
	m := fromPost(post)

	err := r.DB.WithContext(ctx).Create(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return core.ErrConflict
	}
	return err
}

func (r *Repository) FindLive(ctx context.Context, id string, now time.Time) (core.Post, error) {
	var m postModel
	err := r.DB.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, now.UnixMilli()).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Post{}, core.ErrNotFound
		}
		return core.Post{}, err
	}
	return m.toPost(), nil
}

func (r *Repository) ListLive(ctx context.Context, now time.Time, limit int) ([]core.Post, error) {
	query := r.DB.WithContext(ctx).
		Where("expires_at > ?", now.UnixMilli()).
		Order("boosts DESC, created_at DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []postModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	return lo.Map(models, func(m postModel, _ int) core.Post {
		return m.toPost()
	}), nil
}

// ApplyBoost increments in a single UPDATE so concurrent boosts serialize on the row.
func (r *Repository) ApplyBoost(ctx context.Context, id string, delta int64, now time.Time) (core.Post, error) {
	var m postModel

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&postModel{}).
			Where("id = ? AND expires_at > ?", id, now.UnixMilli()).
			Update("boosts", gorm.Expr("boosts + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return core.ErrNotFound
		}

		return tx.Where("id = ?", id).Take(&m).Error
	})
	if err != nil {
		return core.Post{}, err
	}

	return m.toPost(), nil
}

func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at <= ?", now.UnixMilli()).
		Delete(&postModel{})
	return res.RowsAffected, res.Error
}
