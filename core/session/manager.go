package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionkit/core/cache"
	"github.com/dmitrymomot/sessionkit/core/securetoken"
	"github.com/dmitrymomot/sessionkit/core/sessionid"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Manager orchestrates the session lifecycle: create, per-request process,
// prolong, and delete. The memoizing cache it owns is the only shared
// mutable state; every Record it returns is an exclusively-owned value copy.
type Manager struct {
	store  Store
	vars   VariableStore
	cfg    Config
	cache  *cache.TTLCache[cacheKey, Record]
	margin time.Duration
	log    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConfig applies session configuration options.
func WithConfig(opts ...Option) ManagerOption {
	return func(m *Manager) {
		for _, opt := range opts {
			opt(&m.cfg)
		}
	}
}

// WithVariableStore attaches a per-session variable store.
func WithVariableStore(vars VariableStore) ManagerOption {
	return func(m *Manager) { m.vars = vars }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// NewManager builds a Manager over the given store. CacheTTL of zero turns
// the memoization layer off; invalidation then degrades to a no-op so
// callers may invoke lifecycle operations unconditionally.
func NewManager(store Store, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	m := &Manager{
		store: store,
		cfg:   defaultConfig(),
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.cfg.Expires <= 0 {
		return nil, fmt.Errorf("%w: expires must be positive", ErrInvalidConfig)
	}
	if m.cfg.HardExpires == 0 {
		m.cfg.HardExpires = 2 * m.cfg.Expires
	}
	if m.cfg.HardExpires < m.cfg.Expires {
		return nil, fmt.Errorf("%w: hard expiry must not undercut expiry", ErrInvalidConfig)
	}

	if m.cfg.CacheTTL > 0 {
		m.cache = cache.NewTTLCache[cacheKey, Record](m.cfg.CacheTTL, cache.WithClock(m.cfg.now))
		m.margin = m.cfg.CacheMargin()
	}

	return m, nil
}

// Config returns the manager's effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Create starts a fresh session for the given identity. Bad caller input is
// reported as data on the returned record, never as a panic or error: the
// record comes back invalid with the matching diagnostic.
func (m *Manager) Create(ctx context.Context, userID int64, email string, ip netip.Addr) Record {
	now := m.cfg.now()
	rec := Record{
		UserID:     userID,
		UserEmail:  email,
		IP:         ip,
		CreatedAt:  now,
		ActiveAt:   now,
		SessionKey: m.cfg.SessionKey,
		IDField:    m.cfg.IDField,
	}

	if userID <= 0 {
		m.log.WarnContext(ctx, "session creation rejected", logger.Cause(string(CauseMalformedUserID)))
		return rec.MarkBad(newError(SeverityInfo, CauseMalformedUserID, "user id is missing or invalid"), m.cfg)
	}
	if email == "" || !strings.Contains(email, "@") {
		m.log.WarnContext(ctx, "session creation rejected", logger.Cause(string(CauseMalformedUserEmail)), logger.UserID(userID))
		return rec.MarkBad(newError(SeverityInfo, CauseMalformedUserEmail, "user email is missing or invalid"), m.cfg)
	}
	if !ip.IsValid() {
		m.log.WarnContext(ctx, "session creation rejected", logger.Cause(string(CauseBadIP)), logger.UserID(userID))
		return rec.MarkBad(newError(SeverityWarn, CauseBadIP, "remote address is missing or invalid"), m.cfg)
	}

	gen, err := sessionid.Generate(m.cfg.Secured)
	if err != nil {
		m.log.ErrorContext(ctx, "session identifier generation failed", logger.Error(err))
		return rec.MarkBad(unknownError("identifier generation failed"), m.cfg)
	}

	rec.ID = gen.Public
	rec.DBID = gen.DBID
	rec.Secure = m.cfg.Secured
	rec.SecurityPassed = m.cfg.Secured

	// Sanity check on the freshly built record before touching the store.
	if e := State(&rec, ip, m.cfg); e != nil {
		m.log.ErrorContext(ctx, "fresh session failed validation", logger.Cause(string(e.Cause)), logger.UserID(userID))
		return rec.MarkBad(e, m.cfg)
	}

	row := Row{
		ID:          gen.DBID,
		UserID:      userID,
		UserEmail:   email,
		SecureToken: gen.TokenHash,
		IP:          ip.String(),
		CreatedAt:   now,
		ActiveAt:    now,
	}
	n, err := m.store.UpsertSession(ctx, row)
	if err != nil || n == 0 {
		m.log.ErrorContext(ctx, "failed to persist session", logger.Error(err), logger.UserID(userID))
		return rec.MarkBad(newError(SeverityError, CauseDBProblem, "failed to persist session"), m.cfg)
	}

	m.invalidate(gen.DBID, ip)

	if m.vars != nil {
		var verr error
		if m.cfg.SingleSession {
			verr = m.vars.DeleteVariablesByUser(ctx, userID)
		} else {
			verr = m.vars.DeleteVariablesBySession(ctx, gen.DBID)
		}
		if verr != nil {
			m.log.WarnContext(ctx, "failed to clear stale session variables", logger.Error(verr), logger.UserID(userID))
		}
	}

	return rec.MarkGood()
}

// Process validates the candidate session carried by src for the current
// request. It never touches the store for identifiers that fail the format
// guard, serves lookups through the cache layer, applies the margin
// revalidation, and stamps a fresh last-active time on success. A vanished
// row (zero rows updated) degrades the result to a db-problem record.
func (m *Manager) Process(ctx context.Context, src Source) Record {
	empty := Record{SessionKey: m.cfg.SessionKey, IDField: m.cfg.IDField}

	if src == nil {
		return empty.MarkBad(newError(SeverityInfo, CauseMissing, "no session"), m.cfg)
	}

	ip := src.remoteIP()
	id, ok := src.sessionID(m.cfg)
	if !ok || id == "" {
		empty.IP = ip
		return empty.MarkBad(newError(SeverityInfo, CauseNoID, "no session identifier present"), m.cfg)
	}

	// Cheap fast-path guard: garbage never reaches the store.
	if !sessionid.Valid(id) {
		rec := empty
		rec.ErrID = id
		rec.IP = ip
		return rec.MarkBad(newError(SeverityInfo, CauseMalformedSessionID, "identifier fails format check"), m.cfg)
	}

	rec := m.handle(ctx, id, ip)
	rec = m.refresh(ctx, rec, id, ip)
	if !rec.Valid {
		return rec
	}

	now := m.cfg.now()
	n, err := m.store.UpdateLastActive(ctx, rec.DBID, now)
	if err != nil || n == 0 {
		m.log.ErrorContext(ctx, "failed to update last-active time",
			logger.Error(err), logger.SessionID(rec.DBID))
		return rec.MarkBad(newError(SeverityError, CauseDBProblem, "failed to update last-active time"), m.cfg)
	}
	rec.ActiveAt = now

	return rec
}

// Prolong re-stamps the session's activity to now, validating the
// hypothetical future state first so prolongation can never silently extend
// an otherwise-invalid session. On success the cache entries for both the
// old and the presented address are dropped and the session is re-handled
// from scratch for a consistent, freshly cached record.
func (m *Manager) Prolong(ctx context.Context, rec Record, ip netip.Addr) Record {
	now := m.cfg.now()

	future := rec
	future.ActiveAt = now
	if e := State(&future, ip, m.cfg); e != nil {
		return rec.MarkBad(e, m.cfg)
	}

	n, err := m.store.UpdateLastActive(ctx, rec.DBID, now)
	if err != nil || n == 0 {
		m.log.ErrorContext(ctx, "failed to prolong session",
			logger.Error(err), logger.SessionID(rec.DBID))
		return rec.MarkBad(newError(SeverityError, CauseDBProblem, "failed to prolong session"), m.cfg)
	}

	m.invalidate(rec.DBID, rec.IP)
	if ip != rec.IP {
		m.invalidate(rec.DBID, ip)
	}

	fresh := m.handle(ctx, rec.ID, ip)
	if fresh.Valid {
		fresh.Prolonged = true
	}
	return fresh
}

// Delete removes the session row, its variables, and the matching cache
// entries. Deleting an already-absent session is not an error.
func (m *Manager) Delete(ctx context.Context, rec Record) error {
	dbID := rec.DBID
	if dbID == "" {
		dbID, _ = sessionid.Split(rec.Identifier())
	}
	if dbID == "" {
		return nil
	}

	// Variables join through the sessions table, so they go first.
	if m.vars != nil {
		if err := m.vars.DeleteVariablesBySession(ctx, dbID); err != nil {
			return errors.Join(ErrDeleteSession, err)
		}
	}

	row, err := m.store.DeleteSession(ctx, dbID)
	if err != nil && !errors.Is(err, ErrRowNotFound) {
		return errors.Join(ErrDeleteSession, err)
	}

	m.invalidate(dbID, rec.IP)
	if addr, perr := netip.ParseAddr(row.IP); perr == nil && addr != rec.IP {
		m.invalidate(dbID, addr)
	}
	return nil
}

// DeleteAll removes every session and session variable belonging to the
// user, then evicts the matching cache entries.
func (m *Manager) DeleteAll(ctx context.Context, userID int64) error {
	if m.vars != nil {
		if err := m.vars.DeleteVariablesByUser(ctx, userID); err != nil {
			return errors.Join(ErrDeleteSession, err)
		}
	}

	rows, err := m.store.DeleteSessionsByUser(ctx, userID)
	if err != nil {
		return errors.Join(ErrDeleteSession, err)
	}

	for _, row := range rows {
		if addr, perr := netip.ParseAddr(row.IP); perr == nil {
			m.invalidate(row.ID, addr)
		}
	}
	return nil
}

// Variable reads a session variable for a valid session.
func (m *Manager) Variable(ctx context.Context, rec Record, name string) (string, error) {
	if m.vars == nil {
		return "", ErrNoVariableStore
	}
	if !rec.Valid {
		return "", ErrInvalidSession
	}
	return m.vars.GetVariable(ctx, rec.DBID, name)
}

// SetVariable writes a session variable for a valid session.
func (m *Manager) SetVariable(ctx context.Context, rec Record, name, value string) error {
	if m.vars == nil {
		return ErrNoVariableStore
	}
	if !rec.Valid {
		return ErrInvalidSession
	}
	return m.vars.SetVariable(ctx, rec.DBID, name, value)
}

// DeleteVariable removes a session variable for a valid session.
func (m *Manager) DeleteVariable(ctx context.Context, rec Record, name string) error {
	if m.vars == nil {
		return ErrNoVariableStore
	}
	if !rec.Valid {
		return ErrInvalidSession
	}
	return m.vars.DeleteVariable(ctx, rec.DBID, name)
}

// handle resolves a well-formed public identifier into a validated record:
// cache-aware row hydration, security-token verification, then the ordered
// validation sequence with good/bad marking.
func (m *Manager) handle(ctx context.Context, publicID string, ip netip.Addr) Record {
	dbID, token := sessionid.Split(publicID)

	base, _, err := m.lookup(ctx, dbID, ip)
	if err != nil {
		rec := Record{
			ErrID:      publicID,
			SessionKey: m.cfg.SessionKey,
			IDField:    m.cfg.IDField,
		}
		if errors.Is(err, ErrRowNotFound) {
			return rec.MarkBad(newError(SeverityInfo, CauseUnknownID, "unknown session identifier"), m.cfg)
		}
		m.log.ErrorContext(ctx, "session lookup failed", logger.Error(err), logger.SessionID(dbID))
		return rec.MarkBad(newError(SeverityError, CauseDBProblem, "failed to fetch session"), m.cfg)
	}

	rec := base
	rec.ID = publicID
	if rec.Secure {
		rec.SecurityPassed = token != "" && securetoken.Verify(token, rec.dbToken)
	}
	rec.dbToken = "" // used once, never retained on the outgoing record

	if e := State(&rec, ip, m.cfg); e != nil {
		return rec.MarkBad(e, m.cfg)
	}
	return rec.MarkGood()
}

// recordFromRow hydrates an unvalidated record from a store row. The
// resulting value is what the cache retains, including the stored token
// hash, which stays private to the cache's copies.
func (m *Manager) recordFromRow(row Row) Record {
	rec := Record{
		DBID:       row.ID,
		UserID:     row.UserID,
		UserEmail:  row.UserEmail,
		CreatedAt:  row.CreatedAt,
		ActiveAt:   row.ActiveAt,
		Secure:     row.SecureToken != "",
		dbToken:    row.SecureToken,
		SessionKey: m.cfg.SessionKey,
		IDField:    m.cfg.IDField,
	}
	if addr, err := netip.ParseAddr(row.IP); err == nil {
		rec.IP = addr
	}
	return rec
}
