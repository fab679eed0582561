package session

import (
	"context"
	"errors"
	"net/netip"
	"time"
)

// cacheKey identifies a memoized lookup: the store key plus the remote
// address it was handled for. A request from a different address always
// misses and re-validates against the store.
type cacheKey struct {
	dbID string
	ip   string
}

func keyFor(dbID string, ip netip.Addr) cacheKey {
	return cacheKey{dbID: dbID, ip: ip.String()}
}

// lookup resolves the hydrated (unvalidated) record for a store key,
// memoized under the configured TTL. Concurrent misses for the same key
// share one store round-trip. The returned time is when the cache entry was
// stored; without a cache it is simply now.
func (m *Manager) lookup(ctx context.Context, dbID string, ip netip.Addr) (Record, time.Time, error) {
	fetch := func() (Record, error) {
		row, err := m.store.FetchByID(ctx, dbID)
		if err != nil {
			return Record{}, err
		}
		return m.recordFromRow(row), nil
	}

	if m.cache == nil {
		rec, err := fetch()
		return rec, m.cfg.now(), err
	}
	return m.cache.GetOrCompute(keyFor(dbID, ip), fetch)
}

// invalidate evicts the cache entry for the key. Safe to call
// unconditionally: without a cache it is a no-op.
func (m *Manager) invalidate(dbID string, ip netip.Addr) {
	if m.cache == nil {
		return
	}
	m.cache.Invalidate(keyFor(dbID, ip))
}

// needsRefresh decides whether a cached record may still be trusted or must
// be revalidated against the store: (a) an unexpired record whose last
// activity is older than the margin, or (b) a cache entry older than the
// smaller of the expiry window and the margin.
func (m *Manager) needsRefresh(storedAt, lastActive time.Time, alreadyExpired bool) bool {
	now := m.cfg.now()

	if !alreadyExpired && now.Sub(lastActive) > m.margin {
		return true
	}

	limit := m.margin
	if m.cfg.Expires < limit {
		limit = m.cfg.Expires
	}
	return now.Sub(storedAt) > limit
}

// refresh applies the cache-margin revalidation to a just-handled record.
// When the cached last-active timestamp can no longer be trusted it re-reads
// only that column from the store and reconciles:
//
//   - unchanged value: nothing to do (avoids a write/invalidate storm)
//   - changed, expiry status unchanged: patch the cached entry's active
//     field in place and return the patched record
//   - went expired -> not-expired (cross-node skew): drop the entry and
//     re-handle from scratch
//   - went not-expired -> expired: patch, drop the entry, and return the
//     record marked expired
func (m *Manager) refresh(ctx context.Context, rec Record, publicID string, ip netip.Addr) Record {
	if m.cache == nil {
		return rec
	}
	// Only a valid record or one that failed purely on expiry can be
	// rescued or demoted by a fresher last-active value.
	if !rec.Valid && (rec.Err == nil || rec.Err.Cause != CauseExpired) {
		return rec
	}

	key := keyFor(rec.DBID, ip)
	cached, storedAt, ok := m.cache.Get(key)
	if !ok {
		return rec
	}

	if !m.needsRefresh(storedAt, cached.ActiveAt, rec.Expired) {
		return rec
	}

	fresh, err := m.store.GetLastActive(ctx, rec.DBID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			m.cache.Invalidate(key)
			return rec.MarkBad(newError(SeverityInfo, CauseUnknownID, "session row disappeared"), m.cfg)
		}
		return rec.MarkBad(newError(SeverityError, CauseDBProblem, "failed to refresh last-active time"), m.cfg)
	}

	if fresh.Equal(cached.ActiveAt) {
		return rec
	}

	now := m.cfg.now()
	wasExpired := now.Sub(cached.ActiveAt) > m.cfg.Expires
	isExpired := now.Sub(fresh) > m.cfg.Expires

	switch {
	case wasExpired == isExpired:
		m.cache.Patch(key, func(r Record) Record {
			r.ActiveAt = fresh
			return r
		})
		rec.ActiveAt = fresh
		return rec

	case wasExpired && !isExpired:
		// Another node prolonged the session after our entry went stale.
		m.cache.Invalidate(key)
		return m.handle(ctx, publicID, ip)

	default: // !wasExpired && isExpired
		m.cache.Patch(key, func(r Record) Record {
			r.ActiveAt = fresh
			return r
		})
		m.cache.Invalidate(key)
		rec.ActiveAt = fresh
		return rec.MarkBad(newError(SeverityInfo, CauseExpired, "session has expired"), m.cfg)
	}
}
