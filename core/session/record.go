package session

import (
	"net/netip"
	"time"
)

// Record is a session snapshot. It is a value: every validation step
// replaces the record rather than mutating it in place, and callers own the
// copy they receive. The cache keeps its own private copies.
//
// Exactly one of ID and ErrID is set once a lookup has occurred: ID while
// the session is valid, ErrID after invalidation (retained for diagnostics).
// The canonical empty record has neither.
type Record struct {
	// ID is the current public session identifier, present only while valid.
	// In secure mode it is composite: "<DBID>-<secret token>".
	ID string

	// ErrID is the last known identifier, retained after invalidation.
	ErrID string

	// DBID is the primary key in the backing store. It differs from ID when
	// the public identifier carries a secure token half.
	DBID string

	// UserID and UserEmail are the subject identity. Both are required for
	// the session to count as identified.
	UserID    int64
	UserEmail string

	CreatedAt time.Time
	ActiveAt  time.Time

	// IP is the address bound to the session at creation/handling time.
	IP netip.Addr

	// Derived validity flags, recomputed on every handling.
	Valid          bool
	Expired        bool
	HardExpired    bool
	Secure         bool
	SecurityPassed bool

	// Prolonged is set only by Manager.Prolong.
	Prolonged bool

	// SessionKey and IDField echo the configuration used to locate the
	// session in the surrounding request; they carry no business state.
	SessionKey string
	IDField    string

	// Err is present iff Valid is false.
	Err *Error

	// dbToken is the stored salted-hash half of a secure token. It is
	// populated while hydrating from the store and cleared immediately
	// after verification so it never escapes to callers.
	dbToken string
}

// Identifier returns whichever public identifier the record carries.
func (r Record) Identifier() string {
	if r.ID != "" {
		return r.ID
	}
	return r.ErrID
}

// Identified reports whether the record carries a full subject identity.
func (r Record) Identified() bool {
	return r.UserID > 0 && r.UserEmail != ""
}

// IsZero reports whether the record is the canonical empty record.
func (r Record) IsZero() bool {
	return r.ID == "" && r.ErrID == "" && r.DBID == "" && r.UserID == 0 &&
		r.UserEmail == "" && r.Err == nil
}

// MarkGood stamps the record valid, clearing the error and expiry flags.
// If only ErrID was set it is promoted back into ID. MarkGood is idempotent.
func (r Record) MarkGood() Record {
	if r.ID == "" {
		r.ID = r.ErrID
	}
	r.ErrID = ""
	r.Valid = true
	r.Expired = false
	r.HardExpired = false
	r.Err = nil
	return r
}

// MarkBad stamps the record invalid with the given diagnostic, moving any
// current identifier into ErrID. Expiry flags are derived from the error's
// cause and a comparison against the hard-expiry horizon; a record that is
// already bad keeps its expiry flags so a stale error cannot re-derive them.
func (r Record) MarkBad(e *Error, cfg Config) Record {
	if e == nil {
		e = unknownError("")
	}

	wasBad := !r.Valid && r.Err != nil
	if r.ID != "" {
		r.ErrID = r.ID
		r.ID = ""
	}
	r.Valid = false

	if !wasBad {
		expiry := e.Cause == CauseExpired || (cfg.ExpireOnIPMismatch && e.Cause == CauseBadIP)
		r.Expired = expiry
		r.HardExpired = expiry && !r.ActiveAt.IsZero() &&
			cfg.now().Sub(r.ActiveAt) > cfg.HardExpires
	}

	r.Err = e
	return r
}
