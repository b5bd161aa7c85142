package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/k0kubun/pp"
	"github.com/urfave/cli/v3"

	"nunc/internal/cmd/flags"
	"nunc/pkg/ledgerclient"
)

var ErrMissingArgument = errors.New("missing argument")

var clientFlags = []cli.Flag{
	flags.Server,
	flags.Pretty,
}

var postCmd = &cli.Command{
	Name:      "post",
	Usage:     "Create a post",
	ArgsUsage: "<text>",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "country", Usage: "The country of the post"},
		&cli.IntFlag{Name: "boosts", Usage: "Initial boosts"},
	}, clientFlags...),
	Action: func(ctx context.Context, c *cli.Command) error {
		text := c.Args().First()
		if text == "" {
			return errors.Join(ErrMissingArgument, errors.New("text"))
		}

		return withClient(c, func(client *ledgerclient.Client) (any, error) {
			return client.CreatePost(ctx, ledgerclient.NewPost{
				Text:    text,
				Country: c.String("country"),
				Boosts:  int64(c.Int("boosts")),
			})
		})
	},
}

var boostCmd = &cli.Command{
	Name:      "boost",
	Usage:     "Boost a live post",
	ArgsUsage: "<id>",
	Flags: append([]cli.Flag{
		&cli.IntFlag{Name: "add", Usage: "How many boosts to add", Value: 1},
	}, clientFlags...),
	Action: func(ctx context.Context, c *cli.Command) error {
		id := c.Args().First()
		if id == "" {
			return errors.Join(ErrMissingArgument, errors.New("id"))
		}

		return withClient(c, func(client *ledgerclient.Client) (any, error) {
			return client.Boost(ctx, id, int64(c.Int("add")))
		})
	},
}

var feedCmd = &cli.Command{
	Name:  "feed",
	Usage: "Show the ranked feed of live posts",
	Flags: append([]cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "Show at most this many posts, 0 shows all"},
		&cli.DurationFlag{Name: "watch", Usage: "Print the feed again on this interval until interrupted"},
	}, clientFlags...),
	Action: func(ctx context.Context, c *cli.Command) error {
		limit := int(c.Int("limit"))

		if interval := c.Duration("watch"); interval > 0 {
			return watchFeed(ctx, c, interval, limit)
		}

		return withClient(c, func(client *ledgerclient.Client) (any, error) {
			return client.ListPosts(ctx, limit)
		})
	},
}

// watchFeed reprints the feed every interval until interrupted.
func watchFeed(ctx context.Context, c *cli.Command, interval time.Duration, limit int) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := newClient(c)
	defer client.Close() //nolint:errcheck

	clock := clockwork.NewRealClock()
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	cache := ledgerclient.NewFeedCache(client, interval, clock)

	return watchLoop(ctx, cache, ticker.Chan(), limit, func(posts []ledgerclient.Post) error {
		return printResult(c, posts)
	})
}

// watchLoop prints the cached feed now and on every tick. Reads go through the
// cache, so expired posts drop out between refreshes.
func watchLoop(ctx context.Context, cache *ledgerclient.FeedCache, tick <-chan time.Time, limit int,
	show func([]ledgerclient.Post) error,
) error {
	for {
		posts, err := cache.Feed(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if limit > 0 && len(posts) > limit {
			posts = posts[:limit]
		}
		if err := show(posts); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}
	}
}

var countriesCmd = &cli.Command{
	Name:  "countries",
	Usage: "Show live boosts per country",
	Flags: clientFlags,
	Action: func(ctx context.Context, c *cli.Command) error {
		return withClient(c, func(client *ledgerclient.Client) (any, error) {
			return client.CountryTotals(ctx)
		})
	},
}

func newClient(c *cli.Command) *ledgerclient.Client {
	return ledgerclient.NewClient(&ledgerclient.ClientConfig{
		BaseURL:           c.String(flags.Server.Name),
		TransportSettings: ledgerclient.DefaultConfig.TransportSettings,
	})
}

func withClient(c *cli.Command, f func(client *ledgerclient.Client) (any, error)) error {
	client := newClient(c)
	defer client.Close() //nolint:errcheck

	result, err := f(client)
	if err != nil {
		return err
	}
	return printResult(c, result)
}

func printResult(c *cli.Command, result any) error {
	if c.Bool(flags.Pretty.Name) {
		_, err := pp.Println(result)
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
