package session

import (
	"net/netip"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionkit/core/sessionid"
)

// creationSkew is how far into the future a creation timestamp may point
// before it counts as invalid (cross-node clock drift allowance).
const creationSkew = time.Minute

// State classifies a candidate record against the presented remote address.
// It is a pure function over the record, the address, and the configuration:
// checks run in a fixed order and short-circuit on the first failure, so the
// returned diagnostic is always the earliest applicable one. A nil result
// means the session is valid.
//
// Security-token verification itself happens during handling (the plaintext
// half never reaches the validator); State only inspects the recorded
// SecurityPassed outcome.
func State(rec *Record, ip netip.Addr, cfg Config) *Error {
	if rec == nil || rec.IsZero() {
		return newError(SeverityInfo, CauseMissing, "no session")
	}

	if rec.ID == "" && rec.ErrID == "" && rec.DBID == "" {
		return newError(SeverityInfo, CauseNoID, "session has no identifier")
	}

	if id := rec.Identifier(); id != "" && !sessionid.Valid(id) {
		return newError(SeverityInfo, CauseMalformedSessionID, "identifier fails format check")
	}

	if rec.UserID == 0 && rec.UserEmail == "" {
		return newError(SeverityInfo, CauseUnknownID, "session resolves to no user")
	}

	if rec.ID == "" {
		return newError(SeverityInfo, CauseUnknownID, "session identifier is no longer valid")
	}

	if rec.UserID <= 0 {
		return newError(SeverityInfo, CauseMalformedUserID, "user id is missing or invalid")
	}

	if rec.UserEmail == "" || !strings.Contains(rec.UserEmail, "@") {
		return newError(SeverityInfo, CauseMalformedUserEmail, "user email is missing or invalid")
	}

	now := cfg.now()

	if rec.CreatedAt.IsZero() || rec.CreatedAt.After(now.Add(creationSkew)) {
		return newError(SeverityWarn, CauseBadCreationTime, "creation timestamp is missing or invalid")
	}

	if rec.ActiveAt.IsZero() {
		return newError(SeverityWarn, CauseBadLastActiveTime, "last-active timestamp is missing or invalid")
	}

	if now.Sub(rec.ActiveAt) > cfg.Expires {
		return newError(SeverityInfo, CauseExpired, "session has expired")
	}

	if cfg.Secured && !rec.Secure {
		return newError(SeverityWarn, CauseInsecure, "secured mode requires a security token")
	}

	if rec.Secure && !rec.SecurityPassed {
		return newError(SeverityWarn, CauseBadSecurityToken, "security token verification failed")
	}

	if !ipMatch(rec.IP, ip) {
		return newError(SeverityWarn, CauseBadIP, "remote address does not match session")
	}

	return nil
}

// Correct reports whether the record passes every validation check.
func Correct(rec *Record, ip netip.Addr, cfg Config) bool {
	return State(rec, ip, cfg) == nil
}

// ipMatch compares the bound and presented addresses in normalized form:
// IPv4-mapped IPv6 addresses compare equal to their IPv4 counterpart, and
// the raw string forms are accepted as a last resort.
func ipMatch(bound, presented netip.Addr) bool {
	if !bound.IsValid() || !presented.IsValid() {
		return false
	}
	if bound.Unmap() == presented.Unmap() {
		return true
	}
	return bound.String() == presented.String()
}
