package cache

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fake clock to drive TTL
// expiry deterministically.
type Clock func() time.Time

// Option configures a TTLCache.
type Option func(*config)

type config struct {
	clock Clock
}

// WithClock overrides the time source used for entry timestamps and expiry.
func WithClock(clock Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// entry is immutable once its done channel is closed. Updates replace the
// entry pointer in the map instead of mutating fields, so readers that
// obtained the pointer before the swap still see a consistent snapshot.
type entry[V any] struct {
	done     chan struct{}
	val      V
	err      error
	storedAt time.Time
}

// TTLCache is a concurrency-safe memoization cache with a fixed TTL.
// The zero value is not usable; construct with NewTTLCache.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[V]
	ttl     time.Duration
	clock   Clock
}

// NewTTLCache creates a cache whose entries expire ttl after being stored.
func NewTTLCache[K comparable, V any](ttl time.Duration, opts ...Option) *TTLCache[K, V] {
	cfg := config{clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TTLCache[K, V]{
		entries: make(map[K]*entry[V]),
		ttl:     ttl,
		clock:   cfg.clock,
	}
}

// Get returns the cached value and the time it was stored. In-flight and
// expired entries count as misses. Get never blocks on a pending computation.
func (c *TTLCache[K, V]) Get(key K) (V, time.Time, bool) {
	var zero V

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, time.Time{}, false
	}

	select {
	case <-e.done:
	default:
		return zero, time.Time{}, false
	}

	if e.err != nil || c.clock().Sub(e.storedAt) > c.ttl {
		return zero, time.Time{}, false
	}
	return e.val, e.storedAt, true
}

// GetOrCompute returns the cached value for key, computing it with fn on a
// miss. Concurrent callers for the same key share a single computation: one
// runs fn, the rest block until it finishes. A failed computation is not
// cached and its error is returned to every waiter.
func (c *TTLCache[K, V]) GetOrCompute(key K, fn func() (V, error)) (V, time.Time, error) {
	var zero V

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		select {
		case <-e.done:
			if e.err == nil && c.clock().Sub(e.storedAt) <= c.ttl {
				c.mu.Unlock()
				return e.val, e.storedAt, nil
			}
			// Expired or failed entry: fall through and recompute.
		default:
			c.mu.Unlock()
			<-e.done
			if e.err != nil {
				return zero, time.Time{}, e.err
			}
			return e.val, e.storedAt, nil
		}
	}

	e := &entry[V]{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.val, e.err = fn()
	e.storedAt = c.clock()
	close(e.done)

	if e.err != nil {
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, time.Time{}, e.err
	}
	return e.val, e.storedAt, nil
}

// Put stores a value, replacing any existing entry for the key.
func (c *TTLCache[K, V]) Put(key K, val V) {
	done := make(chan struct{})
	close(done)
	e := &entry[V]{done: done, val: val, storedAt: c.clock()}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Patch atomically applies fn to the cached value, keeping the entry's
// stored-at time. It reports whether an entry was patched; in-flight,
// expired, and absent entries are left untouched. The caller performs any
// related store read before calling Patch, no lock is held across it.
func (c *TTLCache[K, V]) Patch(key K, fn func(V) V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	select {
	case <-e.done:
	default:
		return false
	}
	if e.err != nil || c.clock().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return false
	}

	c.entries[key] = &entry[V]{done: e.done, val: fn(e.val), storedAt: e.storedAt}
	return true
}

// Invalidate evicts the entry for key, if any.
func (c *TTLCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush drops every entry.
func (c *TTLCache[K, V]) Flush() {
	c.mu.Lock()
	c.entries = make(map[K]*entry[V])
	c.mu.Unlock()
}

// Len returns the number of live (completed, unexpired) entries.
func (c *TTLCache[K, V]) Len() int {
	now := c.clock()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		select {
		case <-e.done:
			if e.err == nil && now.Sub(e.storedAt) <= c.ttl {
				n++
			}
		default:
		}
	}
	return n
}
