package config

import "time"

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StorePGX      = "pgx"
	StoreNATS     = "nats"
)

var Stores = []string{StoreMemory, StoreSQLite, StorePostgres, StorePGX, StoreNATS}

type Config struct {
	LogLevel string `flag:"log-level"`

	Listen        string        `flag:"listen"`
	MetricsListen string        `flag:"metrics-listen"`
	CORSOrigins   []string      `flag:"cors-origins"`
	SweepInterval time.Duration `flag:"sweep-interval"`

	Store           string `flag:"store"`
	DatabaseURL     string `flag:"database-url"`
	SQLitePath      string `flag:"sqlite-path"`
	AutoMigrate     bool   `flag:"auto-migrate"`
	ConnectAttempts int    `flag:"connect-attempts"`

	NATSURL    string `flag:"nats-url"`
	NATSInit   bool   `flag:"nats-init"`
	NATSBucket string `flag:"nats-bucket"`
}
