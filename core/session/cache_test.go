package session_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/session"
	"github.com/dmitrymomot/sessionkit/core/sessionid"
)

// seedRow plants a session row directly in the store, simulating state left
// behind by another node, and returns its public identifier.
func seedRow(t *testing.T, mem *session.MemoryStore, activeAt time.Time) string {
	t.Helper()

	gen, err := sessionid.Generate(false)
	require.NoError(t, err)

	n, err := mem.UpsertSession(context.Background(), session.Row{
		ID:        gen.DBID,
		UserID:    42,
		UserEmail: "a@b.com",
		IP:        testAddr.String(),
		CreatedAt: activeAt,
		ActiveAt:  activeAt,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	return gen.Public
}

func TestCache_ServesRepeatLookups(t *testing.T) {
	t.Parallel()

	mem := session.NewMemoryStore()
	clk := newFakeClock()
	spy := newSpyStore(mem)
	mgr := newTestManager(t, spy, nil, clk,
		session.WithExpires(10*time.Minute), session.WithCacheTTL(2*time.Minute))
	ctx := context.Background()

	id := seedRow(t, mem, clk.Now())

	for range 5 {
		clk.Advance(10 * time.Second)
		rec := mgr.Process(ctx, session.FromID(id, testAddr))
		require.True(t, rec.Valid)
	}

	assert.Equal(t, int64(1), spy.fetches.Load(), "repeat lookups inside the TTL share one fetch")
	assert.Zero(t, spy.lastActives.Load(), "fresh activity never crosses the margin")
}

func TestCache_KeyedByRemoteAddress(t *testing.T) {
	t.Parallel()

	mem := session.NewMemoryStore()
	clk := newFakeClock()
	spy := newSpyStore(mem)
	mgr := newTestManager(t, spy, nil, clk,
		session.WithExpires(10*time.Minute), session.WithCacheTTL(2*time.Minute))
	ctx := context.Background()

	id := seedRow(t, mem, clk.Now())

	require.True(t, mgr.Process(ctx, session.FromID(id, testAddr)).Valid)
	require.False(t, mgr.Process(ctx, session.FromID(id, otherAddr)).Valid)

	assert.Equal(t, int64(2), spy.fetches.Load(), "each address revalidates against the store")
}

func TestCache_ErrorsNotCached(t *testing.T) {
	t.Parallel()

	mem := session.NewMemoryStore()
	clk := newFakeClock()
	spy := newSpyStore(mem)
	mgr := newTestManager(t, spy, nil, clk,
		session.WithExpires(10*time.Minute), session.WithCacheTTL(2*time.Minute))
	ctx := context.Background()

	unknown := strings.Repeat("e", 64)
	for range 2 {
		rec := mgr.Process(ctx, session.FromID(unknown, testAddr))
		require.False(t, rec.Valid)
		assert.Equal(t, session.CauseUnknownID, rec.Err.Cause)
	}

	assert.Equal(t, int64(2), spy.fetches.Load(), "failed lookups are retried, never memoized")
}

// Margin revalidation. With Expires=10m and CacheTTL=2m the margin is 8m:
// a cached record whose last activity is older than that gets its last-active
// column re-read before the cached copy is trusted.

func TestCache_RefreshNoOpWhenUnchanged(t *testing.T) {
	t.Parallel()

	mem := session.NewMemoryStore()
	clk := newFakeClock()
	spy := newSpyStore(mem)
	mgr := newTestManager(t, spy, nil, clk,
		session.WithExpires(10*time.Minute), session.WithCacheTTL(2*time.Minute))
	ctx := context.Background()

	// Idle past the margin but not yet expired.
	id := seedRow(t, mem, clk.Now().Add(-8*time.Minute-30*time.Second))

	rec := mgr.Process(ctx, session.FromID(id, testAddr))

	require.True(t, rec.Valid)
	assert.Equal(t, int64(1), spy.fetches.Load())
	assert.Equal(t, int64(1), spy.lastActives.Load(), "stale activity triggers exactly one column re-read")
}

func TestCache_RefreshPatchesChangedActivity(t *testing.T) {
	t.Parallel()

	mem := session.NewMemoryStore()
	clk := newFakeClock()
	spy := newSpyStore(mem)
	mgr := newTestManager(t, spy, nil, clk,
		session.WithExpires(10*time.Minute), session.WithCacheTTL(2*time.Minute))
	ctx := context.Background()

	id := seedRow(t, mem, clk.Now().Add(-8*time.Minute-30*time.Second))

	// First pass caches the stale activity, then stamps now into the store.
	require.True(t, mgr.Process(ctx, session.FromID(id, testAddr)).Valid)
	require.Equal(t, int64(1), spy.lastActives.Load())

	// Second pass: the cached activity still trips the margin, the store
	// disagrees, and the entry gets patched in place.
	clk.Advance(10 * time.Second)
	require.True(t, mgr.Process(ctx, session.FromID(id, testAddr)).Valid)
	require.Equal(t, int64(2), spy.lastActives.Load())

	// After the patch the cached activity is fresh, so no further re-reads.
	clk.Advance(10 * time.Second)
	require.True(t, mgr.Process(ctx, session.FromID(id, testAddr)).Valid)

	assert.Equal(t, int64(2), spy.lastActives.Load(), "patched entry is trusted again")
	assert.Equal(t, int64(1), spy.fetches.Load(), "no full re-fetch at any point")
}

func TestCache_RefreshDemotesToExpired(t *testing.T) {
	t.Parallel()

	mem := session.NewMemoryStore()
	clk := newFakeClock()
	spy := newSpyStore(mem)
	mgr := newTestManager(t, spy, nil, clk,
		session.WithExpires(10*time.Minute), session.WithCacheTTL(2*time.Minute))
	ctx := context.Background()

	t0 := clk.Now()
	id := seedRow(t, mem, t0.Add(-8*time.Minute-30*time.Second))
	dbID, _ := sessionid.Split(id)

	require.True(t, mgr.Process(ctx, session.FromID(id, testAddr)).Valid)

	// Another node's view: the row's real activity is already past expiry.
	_, err := mem.UpdateLastActive(ctx, dbID, t0.Add(-10*time.Minute-30*time.Second))
	require.NoError(t, err)

	clk.Advance(30 * time.Second)
	rec := mgr.Process(ctx, session.FromID(id, testAddr))

	require.False(t, rec.Valid)
	assert.Equal(t, session.CauseExpired, rec.Err.Cause)
	assert.True(t, rec.Expired)
	assert.Equal(t, int64(1), spy.fetches.Load(), "demotion needs no full re-fetch")
}

func TestCache_RefreshRescuesProlongedSession(t *testing.T) {
	t.Parallel()

	// Expires shorter than the TTL: margin collapses to Expires (1m), so a
	// cached expired record older than that is re-checked while the cache
	// entry itself is still live.
	mem := session.NewMemoryStore()
	clk := newFakeClock()
	spy := newSpyStore(mem)
	mgr := newTestManager(t, spy, nil, clk,
		session.WithExpires(time.Minute), session.WithHardExpires(time.Hour),
		session.WithCacheTTL(10*time.Minute))
	ctx := context.Background()

	t0 := clk.Now()
	id := seedRow(t, mem, t0.Add(-90*time.Second))
	dbID, _ := sessionid.Split(id)

	rec := mgr.Process(ctx, session.FromID(id, testAddr))
	require.False(t, rec.Valid)
	require.Equal(t, session.CauseExpired, rec.Err.Cause)

	// Another node prolongs the session behind our back.
	_, err := mem.UpdateLastActive(ctx, dbID, t0.Add(30*time.Second))
	require.NoError(t, err)

	clk.Advance(70 * time.Second)
	rec = mgr.Process(ctx, session.FromID(id, testAddr))

	require.True(t, rec.Valid, "cross-node prolongation rescues the cached-expired session")
	assert.Equal(t, int64(2), spy.fetches.Load(), "rescue drops the entry and re-handles from scratch")
}

func TestCache_RefreshVanishedRow(t *testing.T) {
	t.Parallel()

	mem := session.NewMemoryStore()
	clk := newFakeClock()
	spy := newSpyStore(mem)
	mgr := newTestManager(t, spy, nil, clk,
		session.WithExpires(10*time.Minute), session.WithCacheTTL(2*time.Minute))
	ctx := context.Background()

	id := seedRow(t, mem, clk.Now().Add(-8*time.Minute-30*time.Second))
	dbID, _ := sessionid.Split(id)

	require.True(t, mgr.Process(ctx, session.FromID(id, testAddr)).Valid)

	_, err := mem.DeleteSession(ctx, dbID)
	require.NoError(t, err)

	clk.Advance(30 * time.Second)
	rec := mgr.Process(ctx, session.FromID(id, testAddr))

	require.False(t, rec.Valid)
	assert.Equal(t, session.CauseUnknownID, rec.Err.Cause)

	// The entry was dropped along the way, so the next pass goes to the store.
	rec = mgr.Process(ctx, session.FromID(id, testAddr))
	assert.Equal(t, session.CauseUnknownID, rec.Err.Cause)
	assert.Equal(t, int64(2), spy.fetches.Load())
}

func TestCache_DisabledFallsThrough(t *testing.T) {
	t.Parallel()

	mem := session.NewMemoryStore()
	clk := newFakeClock()
	spy := newSpyStore(mem)
	mgr := newTestManager(t, spy, nil, clk,
		session.WithExpires(10*time.Minute), session.WithCacheTTL(0))
	ctx := context.Background()

	id := seedRow(t, mem, clk.Now())

	for range 3 {
		require.True(t, mgr.Process(ctx, session.FromID(id, testAddr)).Valid)
	}

	assert.Equal(t, int64(3), spy.fetches.Load(), "zero TTL disables memoization entirely")
}
