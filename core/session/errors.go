package session

import "errors"

// Severity grades a validation failure for the surrounding layer: info
// failures are everyday noise (missing cookie, expired session), warn
// failures hint at tampering or clock problems, error failures mean the
// engine itself could not do its job.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Cause is the closed enumeration of validation failure kinds.
type Cause string

const (
	CauseMissing            Cause = "missing"
	CauseNoID               Cause = "no-id"
	CauseMalformedSessionID Cause = "malformed-session-id"
	CauseUnknownID          Cause = "unknown-id"
	CauseMalformedUserID    Cause = "malformed-user-id"
	CauseMalformedUserEmail Cause = "malformed-user-email"
	CauseBadCreationTime    Cause = "bad-creation-time"
	CauseBadLastActiveTime  Cause = "bad-last-active-time"
	CauseExpired            Cause = "expired"
	CauseInsecure           Cause = "insecure"
	CauseBadSecurityToken   Cause = "bad-security-token"
	CauseBadIP              Cause = "bad-ip"
	CauseDBProblem          Cause = "db-problem"
	CauseUnknown            Cause = "unknown-error"
)

// Error is a typed, severity-tagged validation diagnostic. It travels as
// data on a Record rather than through Go error returns: callers branch on
// Record.Valid and Record.Err, never on error values, for every expected
// failure mode.
type Error struct {
	Severity Severity
	Cause    Cause
	Reason   string
}

func (e *Error) Error() string {
	return string(e.Cause) + ": " + e.Reason
}

func newError(severity Severity, cause Cause, reason string) *Error {
	return &Error{Severity: severity, Cause: cause, Reason: reason}
}

// unknownError is the fallback for inherited errors lacking a cause.
func unknownError(reason string) *Error {
	if reason == "" {
		reason = "cause unknown"
	}
	return newError(SeverityError, CauseUnknown, reason)
}

// Sentinel errors for the store adapter boundary. These are genuine Go
// errors: only exceptional conditions (row vanished, store unreachable)
// surface here, per the propagation policy above.
var (
	// ErrRowNotFound is returned by store adapters when no session row
	// exists for the requested identifier.
	ErrRowNotFound = errors.New("session row not found")
	// ErrVariableNotFound is returned when a session variable is absent.
	ErrVariableNotFound = errors.New("session variable not found")
	// ErrNilStore is returned by NewManager when no store is provided.
	ErrNilStore = errors.New("session store is required")
	// ErrInvalidConfig is returned by NewManager for unusable configuration.
	ErrInvalidConfig = errors.New("invalid session configuration")
	// ErrNoVariableStore is returned by variable operations when the manager
	// was built without a variable store.
	ErrNoVariableStore = errors.New("no variable store configured")
	// ErrInvalidSession is returned by variable operations on an invalid record.
	ErrInvalidSession = errors.New("session is not valid")
	// ErrDeleteSession is returned when deleting session state from the store fails.
	ErrDeleteSession = errors.New("failed to delete session")
)
