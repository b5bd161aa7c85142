package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"nunc/internal/cmd/flags"
	"nunc/internal/core"
	"nunc/internal/persistence"
)

var migrateFlags = []cli.Flag{
	flags.DatabaseURL,
	flags.ConnectAttempts,
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Manage the Postgres schema",
	Commands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Apply all pending migrations",
			Flags: migrateFlags,
			Action: func(ctx context.Context, c *cli.Command) error {
				return runMigrations(ctx, c, pal.Provide(persistence.NewMigrationRunner(persistence.MigrateUp)))
			},
		},
		{
			Name:  "down",
			Usage: "Roll back the latest migration",
			Flags: migrateFlags,
			Action: func(ctx context.Context, c *cli.Command) error {
				return runMigrations(ctx, c, pal.Provide(persistence.NewMigrationRunner(persistence.MigrateDown)))
			},
		},
	},
}

func runMigrations(ctx context.Context, c *cli.Command, runner pal.ServiceDef) error {
	return run(ctx, c,
		pal.Provide[core.SQLDB](&persistence.Pool{}),
		pal.Provide[core.Migrator](&persistence.Migrator{}),
		runner,
	)
}
