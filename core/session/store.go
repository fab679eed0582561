package session

import (
	"context"
	"time"
)

// Row is the wire-level session row exchanged with store adapters. The
// engine hydrates a Record from it and never hands it to callers.
type Row struct {
	ID          string
	UserID      int64
	UserEmail   string
	SecureToken string // salted hash of the secret token half, empty when not secure
	IP          string
	CreatedAt   time.Time
	ActiveAt    time.Time
}

// Store is the narrow boundary to the relational backing store. All calls
// are synchronous; implementations must be safe for concurrent use.
// Absent rows surface as ErrRowNotFound, never as zero values.
type Store interface {
	FetchByID(ctx context.Context, id string) (Row, error)
	GetLastActive(ctx context.Context, id string) (time.Time, error)
	// UpdateLastActive returns the number of rows affected; zero means the
	// row vanished mid-request and the caller must degrade the outcome.
	UpdateLastActive(ctx context.Context, id string, ts time.Time) (int64, error)
	UpsertSession(ctx context.Context, row Row) (int64, error)
	// DeleteSession returns the deleted row so callers can invalidate
	// cache entries keyed by its address.
	DeleteSession(ctx context.Context, id string) (Row, error)
	DeleteSessionsByUser(ctx context.Context, userID int64) ([]Row, error)
}

// VariableStore persists the opaque per-session key/value variables.
// User-scoped bulk deletion joins through the sessions table, so variables
// must be cleared before their owning session rows are removed.
type VariableStore interface {
	GetVariable(ctx context.Context, sessionID, name string) (string, error)
	SetVariable(ctx context.Context, sessionID, name, value string) error
	DeleteVariable(ctx context.Context, sessionID, name string) error
	DeleteVariablesBySession(ctx context.Context, sessionID string) error
	DeleteVariablesByUser(ctx context.Context, userID int64) error
}
