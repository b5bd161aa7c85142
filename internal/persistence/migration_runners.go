package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"nunc/internal/core"
)

type Direction string

const (
	MigrateUp   Direction = "up"
	MigrateDown Direction = "down"
)

// MigrationRunner moves the schema one way and returns, which ends the
// migrate command.
type MigrationRunner struct {
	Logger   *slog.Logger
	Migrator core.Migrator

	direction Direction
}

func NewMigrationRunner(direction Direction) *MigrationRunner {
	return &MigrationRunner{direction: direction}
}

func (m *MigrationRunner) Init(_ context.Context) error {
	m.Logger = m.Logger.With("component", "persistence.MigrationRunner", "direction", m.direction)
	return nil
}

func (m *MigrationRunner) Run(ctx context.Context) error {
	switch m.direction {
	case MigrateUp:
		return m.Migrator.Up(ctx)
	case MigrateDown:
		return m.Migrator.Down(ctx)
	default:
		return fmt.Errorf("unknown migration direction %q", m.direction)
	}
}
