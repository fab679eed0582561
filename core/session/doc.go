// Package session implements the session validation and cache-consistency
// engine: it turns a raw session identifier and a client address into a
// trusted, time-bounded, optionally token-secured session record, while
// keeping a fast in-memory cache coherent with a backing relational store
// under concurrent request load.
//
// # Core Components
//
//   - Record: immutable-by-replacement session snapshot with typed
//     validity flags and an Error diagnostic when invalid
//   - Manager: lifecycle orchestrator (Create, Process, Prolong, Delete,
//     DeleteAll, and per-session variables)
//   - Store / VariableStore: narrow interfaces to the backing store
//   - Source: closed set of candidate-session providers for Process
//   - State: the pure, ordered validation state machine
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/sessionkit/core/session"
//
//	mgr, err := session.NewManager(store,
//		session.WithVariableStore(store),
//		session.WithConfig(
//			session.WithExpires(30*time.Minute),
//			session.WithCacheTTL(2*time.Minute),
//			session.WithSecured(true),
//		),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Login
//	rec := mgr.Create(ctx, userID, email, clientAddr)
//	if !rec.Valid {
//		// rec.Err carries a typed, severity-tagged diagnostic
//	}
//
//	// On each request
//	rec = mgr.Process(ctx, session.FromRequest(r, nil))
//	if rec.Valid {
//		// rec.UserID, rec.UserEmail identify the subject
//	}
//
// # Failures Are Data
//
// Every expected failure mode (expired, address mismatch, malformed or
// unknown identifier, storage problem, ...) is recovered locally and
// surfaced as rec.Err on an invalid record. An invalid session never aborts
// the request; the surrounding layer translates the diagnostic into a
// user-facing message or a re-authentication redirect.
//
// # Cache Coherence
//
// Store lookups are memoized per (store key, remote address) with a
// configured TTL. Because a cached entry can be served for up to the TTL
// after it was read, a margin derived from the expiry window and the TTL
// decides when a cached record must be revalidated against the store before
// being trusted; see Config.CacheMargin. Revalidation re-reads only the
// last-active column and patches the cached entry in place when possible,
// avoiding an invalidate/refetch storm across nodes.
//
// # Concurrency
//
// The engine assumes a goroutine-per-request model. The cache is the only
// shared mutable state: concurrent reads do not block each other, concurrent
// misses for one key share a single store round-trip, and callers always
// receive value copies they exclusively own. There are no background tasks;
// cache maintenance happens inline during request processing.
package session
