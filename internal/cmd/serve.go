package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"nunc/internal/api"
	"nunc/internal/cmd/flags"
	"nunc/internal/config"
	"nunc/internal/core"
	"nunc/internal/ledger"
	"nunc/internal/metrics"
	"nunc/internal/nats"
	"nunc/internal/persistence"
	"nunc/internal/persistence/memory"
	"nunc/internal/persistence/pgstore"
	"nunc/internal/persistence/posts"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Run the HTTP API, the expiry sweeper and the metrics server",
	Flags: []cli.Flag{
		flags.Listen,
		flags.MetricsListen,
		flags.CORSOrigins,
		flags.SweepInterval,
		flags.Store,
		flags.DatabaseURL,
		flags.SQLitePath,
		flags.AutoMigrate,
		flags.ConnectAttempts,
		flags.NATSUrl,
		flags.InitNATS,
		flags.NATSBucket,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		store, err := storeServices(c.String(flags.Store.Name))
		if err != nil {
			return err
		}

		return run(ctx, c,
			store,
			pal.Provide[core.Ledger](&ledger.Ledger{}),
			pal.Provide(&ledger.Sweeper{}),
			pal.Provide(&api.Server{}),
			pal.Provide(&metrics.HTTPServer{}),
			pal.Provide(&metrics.Collector{}),
		)
	},
}

func storeServices(store string) (pal.ServiceDef, error) {
	switch store {
	case config.StoreMemory:
		return pal.Provide[core.PostStore](&memory.Store{}), nil
	case config.StoreSQLite, config.StorePostgres:
		return pal.ProvideList(
			pal.Provide[core.DB](&persistence.DB{}),
			pal.Provide[core.PostStore](&posts.Repository{}),
		), nil
	case config.StorePGX:
		return pal.ProvideList(
			pal.Provide(&persistence.Pool{}),
			pal.Provide[core.PostStore](&pgstore.Store{}),
		), nil
	case config.StoreNATS:
		return nats.Provide(), nil
	default:
		return nil, fmt.Errorf("%w: %s", persistence.ErrUnsupportedStore, store)
	}
}
