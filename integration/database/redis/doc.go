// Package redis provides the Redis backend for session storage: client
// initialization with retry logic, health checking, and a store implementing
// both session.Store and session.VariableStore.
//
// # Connection Management
//
// Connect validates the Redis URL, creates a client, and verifies
// connectivity with a ping, retrying with a growing backoff. Configuration
// comes from environment variables via the Config struct:
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//	}
//
// Both redis:// and rediss:// (TLS) URL schemes are supported.
//
// # Data Layout
//
// Each session is a hash under "session:<id>", its variables a hash under
// "session:vars:<id>", and every user gets a "session:user:<id>" set indexing
// their live sessions. All keys carry a TTL refreshed on writes, so abandoned
// sessions age out of Redis without a reaper; set it to the manager's
// hard-expiry horizon via WithTTL.
//
// # Usage Example
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"time"
//
//		"github.com/dmitrymomot/sessionkit/core/config"
//		"github.com/dmitrymomot/sessionkit/core/session"
//		"github.com/dmitrymomot/sessionkit/integration/database/redis"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		var cfg redis.Config
//		config.MustLoad(&cfg)
//
//		client, err := redis.Connect(ctx, cfg)
//		if err != nil {
//			log.Fatal("failed to connect to redis:", err)
//		}
//		defer client.Close()
//
//		store := redis.NewStore(client, redis.WithTTL(48*time.Hour))
//		mgr, err := session.NewManager(store, session.WithVariableStore(store))
//		if err != nil {
//			log.Fatal(err)
//		}
//		_ = mgr
//	}
package redis
