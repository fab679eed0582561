package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionkit/core/session"
)

// querier is the subset of pgx shared by a pool and a transaction, so every
// store method transparently joins a caller-provided transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists session rows and variables in PostgreSQL. It implements
// both session.Store and session.VariableStore.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps the connection pool in a session store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) db(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

const sessionColumns = "id, user_id, user_email, secure_token, ip, created_at, active_at"

func scanRow(row pgx.Row) (session.Row, error) {
	var r session.Row
	err := row.Scan(&r.ID, &r.UserID, &r.UserEmail, &r.SecureToken, &r.IP, &r.CreatedAt, &r.ActiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.Row{}, session.ErrRowNotFound
	}
	return r, err
}

func (s *Store) FetchByID(ctx context.Context, id string) (session.Row, error) {
	return scanRow(s.db(ctx).QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = $1", id))
}

func (s *Store) GetLastActive(ctx context.Context, id string) (time.Time, error) {
	var ts time.Time
	err := s.db(ctx).QueryRow(ctx,
		"SELECT active_at FROM sessions WHERE id = $1", id).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, session.ErrRowNotFound
	}
	return ts, err
}

func (s *Store) UpdateLastActive(ctx context.Context, id string, ts time.Time) (int64, error) {
	tag, err := s.db(ctx).Exec(ctx,
		"UPDATE sessions SET active_at = $2 WHERE id = $1", id, ts)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) UpsertSession(ctx context.Context, row session.Row) (int64, error) {
	tag, err := s.db(ctx).Exec(ctx, `
		INSERT INTO sessions (id, user_id, user_email, secure_token, ip, created_at, active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			user_email = EXCLUDED.user_email,
			secure_token = EXCLUDED.secure_token,
			ip = EXCLUDED.ip,
			created_at = EXCLUDED.created_at,
			active_at = EXCLUDED.active_at`,
		row.ID, row.UserID, row.UserEmail, row.SecureToken, row.IP, row.CreatedAt, row.ActiveAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) (session.Row, error) {
	return scanRow(s.db(ctx).QueryRow(ctx,
		"DELETE FROM sessions WHERE id = $1 RETURNING "+sessionColumns, id))
}

func (s *Store) DeleteSessionsByUser(ctx context.Context, userID int64) ([]session.Row, error) {
	rows, err := s.db(ctx).Query(ctx,
		"DELETE FROM sessions WHERE user_id = $1 RETURNING "+sessionColumns, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deleted []session.Row
	for rows.Next() {
		var r session.Row
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserEmail, &r.SecureToken, &r.IP, &r.CreatedAt, &r.ActiveAt); err != nil {
			return nil, err
		}
		deleted = append(deleted, r)
	}
	return deleted, rows.Err()
}

func (s *Store) GetVariable(ctx context.Context, sessionID, name string) (string, error) {
	var value string
	err := s.db(ctx).QueryRow(ctx,
		"SELECT value FROM session_variables WHERE session_id = $1 AND name = $2",
		sessionID, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", session.ErrVariableNotFound
	}
	return value, err
}

func (s *Store) SetVariable(ctx context.Context, sessionID, name, value string) error {
	_, err := s.db(ctx).Exec(ctx, `
		INSERT INTO session_variables (session_id, name, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, name) DO UPDATE SET value = EXCLUDED.value`,
		sessionID, name, value)
	return err
}

func (s *Store) DeleteVariable(ctx context.Context, sessionID, name string) error {
	_, err := s.db(ctx).Exec(ctx,
		"DELETE FROM session_variables WHERE session_id = $1 AND name = $2",
		sessionID, name)
	return err
}

func (s *Store) DeleteVariablesBySession(ctx context.Context, sessionID string) error {
	_, err := s.db(ctx).Exec(ctx,
		"DELETE FROM session_variables WHERE session_id = $1", sessionID)
	return err
}

// DeleteVariablesByUser removes every variable owned by the user's sessions.
// Variables carry no user column, so the delete joins through the sessions
// table. It must therefore run before the session rows themselves go away.
func (s *Store) DeleteVariablesByUser(ctx context.Context, userID int64) error {
	_, err := s.db(ctx).Exec(ctx, `
		DELETE FROM session_variables v
		USING sessions s
		WHERE v.session_id = s.id AND s.user_id = $1`, userID)
	return err
}

var (
	_ session.Store         = (*Store)(nil)
	_ session.VariableStore = (*Store)(nil)
)
