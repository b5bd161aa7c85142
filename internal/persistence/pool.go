package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"nunc/internal/config"
	"nunc/pkg/retry"
)

// Pool is a pgx connection pool to Postgres.
type Pool struct {
	Logger *slog.Logger
	Config *config.Config

	*pgxpool.Pool

	sqlOnce sync.Once
	sqlDB   *sql.DB
}

func (p *Pool) Init(ctx context.Context) error {
	p.Logger = p.Logger.With("component", "persistence.Pool")

	cfg, err := pgxpool.ParseConfig(p.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 25
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.ConnConfig.StatementCacheCapacity = 256

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	err = retry.Do(ctx, p.Config.ConnectAttempts, time.Second, retry.Always, func(ctx context.Context) error {
		err := pool.Ping(ctx)
		if err != nil {
			p.Logger.Warn("Waiting for Postgres", "error", err)
		}
		return err
	})
	if err != nil {
		pool.Close()
		return fmt.Errorf("connect: %w", err)
	}
	p.Pool = pool

	if p.Config.AutoMigrate {
		return Migrate(ctx, p.Logger, p)
	}
	return nil
}

// DB returns a database/sql view of the pool.
func (p *Pool) DB() (*sql.DB, error) {
	p.sqlOnce.Do(func() {
		p.sqlDB = stdlib.OpenDBFromPool(p.Pool)
	})
	return p.sqlDB, nil
}

func (p *Pool) HealthCheck(ctx context.Context) error {
	return p.Ping(ctx)
}

func (p *Pool) Shutdown(_ context.Context) error {
	p.Close()
	return nil
}
