// Package cache provides a thread-safe, generic TTL cache with stampede
// protection and atomic partial updates.
//
// TTLCache memoizes expensive computations (typically blocking store reads)
// under a fixed time-to-live. Eviction is lazy: an expired entry is dropped
// when its key is next touched, there is no background sweeper goroutine.
//
// # Features
//
//   - Generic key/value parameters for compile-time type safety
//   - At-most-one in-flight computation per key under concurrent misses
//   - Atomic Patch of an existing entry without invalidating it
//   - Injectable clock so TTL behavior is testable without sleeps
//   - Concurrent reads do not block each other
//
// # Usage
//
//	import "github.com/dmitrymomot/sessionkit/core/cache"
//
//	c := cache.NewTTLCache[string, Row](2 * time.Minute)
//
//	row, storedAt, err := c.GetOrCompute("row:42", func() (Row, error) {
//		return fetchRow(42) // runs once even under concurrent misses
//	})
//
// The stored-at timestamp returned alongside each value lets callers reason
// about entry age, e.g. to force revalidation before the TTL elapses.
//
// # Partial Updates
//
// Patch applies a function to the cached value in place, preserving the
// entry's stored-at time. It exists so a single stale field can be corrected
// from a cheap store read without discarding the whole entry:
//
//	c.Patch("row:42", func(r Row) Row {
//		r.ActiveAt = freshActive
//		return r
//	})
//
// Errors returned by a compute function are never cached; the next caller
// for that key computes again.
package cache
