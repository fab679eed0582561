package redis_test

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/session"
	"github.com/dmitrymomot/sessionkit/integration/database/redis"
)

func newTestStore(t *testing.T, opts ...redis.StoreOption) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewStore(client, opts...), mr
}

func testRow(id string, userID int64, at time.Time) session.Row {
	return session.Row{
		ID:        id,
		UserID:    userID,
		UserEmail: "a@b.com",
		IP:        "1.2.3.4",
		CreatedAt: at,
		ActiveAt:  at,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	n, err := store.UpsertSession(ctx, testRow("abc123", 42, now))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	row, err := store.FetchByID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", row.ID)
	assert.Equal(t, int64(42), row.UserID)
	assert.Equal(t, "a@b.com", row.UserEmail)
	assert.Equal(t, "1.2.3.4", row.IP)
	assert.True(t, row.CreatedAt.Equal(now))
	assert.True(t, row.ActiveAt.Equal(now))
}

func TestStore_FetchMissing(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	_, err := store.FetchByID(context.Background(), "nope")
	assert.ErrorIs(t, err, session.ErrRowNotFound)

	_, err = store.GetLastActive(context.Background(), "nope")
	assert.ErrorIs(t, err, session.ErrRowNotFound)
}

func TestStore_UpdateLastActive(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := store.UpsertSession(ctx, testRow("abc123", 42, now))
	require.NoError(t, err)

	later := now.Add(5 * time.Minute)
	n, err := store.UpdateLastActive(ctx, "abc123", later)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ts, err := store.GetLastActive(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, ts.Equal(later))

	t.Run("missing row touches nothing", func(t *testing.T) {
		n, err := store.UpdateLastActive(ctx, "ghost", later)
		require.NoError(t, err)
		assert.Zero(t, n, "a concurrent delete must not be resurrected")
	})
}

func TestStore_DeleteSession(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.UpsertSession(ctx, testRow("abc123", 42, now))
	require.NoError(t, err)
	require.NoError(t, store.SetVariable(ctx, "abc123", "k", "v"))

	row, err := store.DeleteSession(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(42), row.UserID)

	_, err = store.FetchByID(ctx, "abc123")
	assert.ErrorIs(t, err, session.ErrRowNotFound)

	_, err = store.GetVariable(ctx, "abc123", "k")
	assert.ErrorIs(t, err, session.ErrVariableNotFound)

	_, err = store.DeleteSession(ctx, "abc123")
	assert.ErrorIs(t, err, session.ErrRowNotFound)
}

func TestStore_DeleteSessionsByUser(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"s1", "s2"} {
		_, err := store.UpsertSession(ctx, testRow(id, 42, now))
		require.NoError(t, err)
	}
	_, err := store.UpsertSession(ctx, testRow("other", 7, now))
	require.NoError(t, err)

	deleted, err := store.DeleteSessionsByUser(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	for _, id := range []string{"s1", "s2"} {
		_, err := store.FetchByID(ctx, id)
		assert.ErrorIs(t, err, session.ErrRowNotFound)
	}

	// Unrelated user untouched.
	_, err = store.FetchByID(ctx, "other")
	assert.NoError(t, err)
}

func TestStore_Variables(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.UpsertSession(ctx, testRow("abc123", 42, now))
	require.NoError(t, err)

	require.NoError(t, store.SetVariable(ctx, "abc123", "theme", "dark"))

	val, err := store.GetVariable(ctx, "abc123", "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", val)

	require.NoError(t, store.DeleteVariable(ctx, "abc123", "theme"))
	_, err = store.GetVariable(ctx, "abc123", "theme")
	assert.ErrorIs(t, err, session.ErrVariableNotFound)

	t.Run("by user", func(t *testing.T) {
		require.NoError(t, store.SetVariable(ctx, "abc123", "k", "v"))
		require.NoError(t, store.DeleteVariablesByUser(ctx, 42))

		_, err := store.GetVariable(ctx, "abc123", "k")
		assert.ErrorIs(t, err, session.ErrVariableNotFound)
	})
}

func TestStore_KeysExpire(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	_, err := store.UpsertSession(ctx, testRow("abc123", 42, time.Now().UTC()))
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.FetchByID(ctx, "abc123")
	assert.ErrorIs(t, err, session.ErrRowNotFound, "abandoned sessions age out on their own")
}

func TestStore_WorksAsManagerBackend(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	mgr, err := session.NewManager(store,
		session.WithVariableStore(store),
		session.WithConfig(session.WithExpires(30*time.Minute)))
	require.NoError(t, err)
	ctx := context.Background()

	addr := netip.MustParseAddr("1.2.3.4")
	created := mgr.Create(ctx, 42, "a@b.com", addr)
	require.True(t, created.Valid)

	rec := mgr.Process(ctx, session.FromID(created.ID, addr))
	assert.True(t, rec.Valid)

	require.NoError(t, mgr.Delete(ctx, created))
	rec = mgr.Process(ctx, session.FromID(created.ID, addr))
	assert.Equal(t, session.CauseUnknownID, rec.Err.Cause)
}
