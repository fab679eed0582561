// Package pg provides the PostgreSQL backend for session storage: connection
// management with retry logic, goose-driven schema migrations, health
// checking, and a store implementing both session.Store and
// session.VariableStore.
//
// # Connection Management
//
// Connect creates a pgx connection pool, verifies it with a ping, and retries
// with a growing backoff so simultaneous service restarts do not hammer a
// recovering database. Configuration comes from environment variables via the
// Config struct:
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL,required"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		MigrationsTable   string        `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
//	}
//
// # Usage Example
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"log/slog"
//		"os"
//		"time"
//
//		"github.com/dmitrymomot/sessionkit/core/config"
//		"github.com/dmitrymomot/sessionkit/core/session"
//		"github.com/dmitrymomot/sessionkit/integration/database/pg"
//	)
//
//	func main() {
//		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//		defer cancel()
//
//		var cfg pg.Config
//		config.MustLoad(&cfg)
//
//		pool, err := pg.Connect(ctx, cfg)
//		if err != nil {
//			log.Fatal("failed to connect to postgres:", err)
//		}
//		defer pool.Close()
//
//		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
//		if err := pg.Migrate(ctx, pool, cfg, logger); err != nil {
//			log.Fatal("migration failed:", err)
//		}
//
//		store := pg.NewStore(pool)
//		mgr, err := session.NewManager(store, session.WithVariableStore(store))
//		if err != nil {
//			log.Fatal(err)
//		}
//		_ = mgr
//	}
//
// # Transactions
//
// Every store method joins a caller-provided transaction when one is present
// on the context:
//
//	tx, _ := pool.Begin(ctx)
//	ctx = pg.WithTx(ctx, tx)
//	// store calls on ctx now run inside tx
//
// # Schema
//
// Migrate applies the embedded schema: a sessions table keyed by the store
// identifier, and a session_variables table keyed by (session_id, name) that
// references sessions. Variables carry no user column; per-user deletes join
// through the sessions table, which is why variables are always removed
// before their owning rows.
package pg
