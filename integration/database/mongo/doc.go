// Package mongo provides the MongoDB backend for session storage: client
// initialization with retry logic, health checking, and a store implementing
// both session.Store and session.VariableStore.
//
// New and NewWithDatabase retry connection establishment with a growing
// backoff to ride out MongoDB Atlas cold starts (5-8 seconds) and brief
// network interruptions that could otherwise fail application startup.
//
// Basic usage:
//
//	import (
//		"context"
//		"log"
//
//		"github.com/dmitrymomot/sessionkit/core/config"
//		"github.com/dmitrymomot/sessionkit/core/session"
//		"github.com/dmitrymomot/sessionkit/integration/database/mongo"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		var cfg mongo.Config
//		config.MustLoad(&cfg)
//
//		db, err := mongo.NewWithDatabase(ctx, cfg, "myapp")
//		if err != nil {
//			log.Fatal("failed to connect to mongodb:", err)
//		}
//
//		store := mongo.NewStore(db)
//		if err := store.EnsureIndexes(ctx); err != nil {
//			log.Fatal(err)
//		}
//
//		mgr, err := session.NewManager(store, session.WithVariableStore(store))
//		if err != nil {
//			log.Fatal(err)
//		}
//		_ = mgr
//	}
//
// # Configuration
//
// Configuration is handled through environment variables via the Config
// struct. The defaults are tuned for MongoDB Atlas:
//
//	MONGODB_URL                 (required)
//	MONGODB_CONNECT_TIMEOUT     (default: 10s)
//	MONGODB_MAX_POOL_SIZE       (default: 100)
//	MONGODB_MIN_POOL_SIZE       (default: 1)
//	MONGODB_MAX_CONN_IDLE_TIME  (default: 300s)
//	MONGODB_RETRY_WRITES        (default: true)
//	MONGODB_RETRY_READS         (default: true)
//	MONGODB_RETRY_ATTEMPTS      (default: 3)
//	MONGODB_RETRY_INTERVAL      (default: 5s)
//
// # Data Layout
//
// Sessions live in a "sessions" collection keyed by the store identifier,
// variables in "session_variables" keyed by the unique (session_id, name)
// pair. Variables carry no user field; per-user deletes resolve the user's
// session ids first, which is why variables are always removed before their
// owning documents.
//
// # Health Checking
//
// Healthcheck returns a probe function for Kubernetes probes or HTTP
// endpoints:
//
//	healthCheck := mongo.Healthcheck(client)
//
//	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
//		if err := healthCheck(r.Context()); err != nil {
//			http.Error(w, "database unhealthy", http.StatusServiceUnavailable)
//			return
//		}
//		w.WriteHeader(http.StatusOK)
//	})
package mongo
