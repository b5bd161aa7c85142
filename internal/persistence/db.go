package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nunc/internal/config"
	"nunc/pkg/retry"
)

// DB is the gorm connection used by the ORM backed stores. The dialect follows
// the configured store: SQLite file or Postgres.
type DB struct {
	Logger *slog.Logger
	Config *config.Config

	db *gorm.DB
}

func (db *DB) WithContext(ctx context.Context) *gorm.DB {
	return db.db.WithContext(ctx)
}

func (db *DB) Dialect() string {
	return db.db.Name()
}

func (db *DB) Init(ctx context.Context) error {
	db.Logger = db.Logger.With("component", "persistence.DB")

	dialector, err := db.dialector()
	if err != nil {
		return err
	}

	err = retry.Do(ctx, db.Config.ConnectAttempts, time.Second, retry.Always, func(context.Context) error {
		gormDB, err := gorm.Open(dialector, &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err != nil {
			db.Logger.Warn("Waiting for the database", "error", err)
			return err
		}
		db.db = gormDB
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect %s: %w", db.Config.Store, err)
	}

	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}

	if db.Dialect() == "sqlite" {
		// A single connection serializes writers, SQLite allows only one anyway.
		sqlDB.SetMaxOpenConns(1)
		return nil
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if db.Config.AutoMigrate {
		return Migrate(ctx, db.Logger, db)
	}
	return nil
}

func (db *DB) dialector() (gorm.Dialector, error) {
	switch db.Config.Store {
	case config.StoreSQLite:
		return sqlite.Open(db.Config.SQLitePath + "?_busy_timeout=5000&_journal_mode=WAL"), nil
	case config.StorePostgres:
		return postgres.Open(db.Config.DatabaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %s is not backed by gorm", ErrUnsupportedStore, db.Config.Store)
	}
}

func (db *DB) DB() (*sql.DB, error) {
	return db.db.DB()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) Shutdown(_ context.Context) error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}
