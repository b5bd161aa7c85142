package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	libnats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"nunc/internal/config"
	"nunc/pkg/retry"
)

const (
	appName = "nunc"
)

type NATS struct {
	Logger *slog.Logger
	Config *config.Config

	JS jetstream.JetStream
	KV jetstream.KeyValue

	conn *libnats.Conn
}

func (n *NATS) Init(ctx context.Context) error {
	n.Logger = n.Logger.With("component", "nats.NATS")

	var nc *libnats.Conn
	err := retry.Do(ctx, n.Config.ConnectAttempts, time.Second, retry.Always, func(context.Context) error {
		var err error
		nc, err = libnats.Connect(n.Config.NATSURL, libnats.Name(appName))
		if err != nil {
			n.Logger.Warn("Waiting for NATS to be ready", "error", err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	n.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		return err
	}

	n.JS = js

	if n.Config.NATSInit {
		if err := n.initNATS(ctx); err != nil {
			return err
		}
	}

	kv, err := js.KeyValue(ctx, n.Config.NATSBucket)
	if err != nil {
		return fmt.Errorf("open bucket %s: %w", n.Config.NATSBucket, err)
	}
	n.KV = kv

	return nil
}

func (n *NATS) HealthCheck(context.Context) error {
	_, err := n.conn.RTT()
	return err
}

func (n *NATS) Shutdown(context.Context) error {
	return n.conn.Drain()
}

func (n *NATS) initNATS(ctx context.Context) error {
	n.Logger.Info("Initializing NATS")

	_, err := n.JS.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      n.Config.NATSBucket,
		Description: "nunc posts",
		History:     1,
	})
	if err != nil {
		return err
	}
	n.Logger.Info("KeyValue created or updated", "name", n.Config.NATSBucket)

	return nil
}
