package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/session"
)

func TestRecord_MarkGood(t *testing.T) {
	t.Parallel()

	t.Run("clears error and expiry flags", func(t *testing.T) {
		t.Parallel()

		rec := goodRecord()
		rec.Valid = false
		rec.Expired = true
		rec.HardExpired = true
		rec.Err = &session.Error{Cause: session.CauseExpired, Severity: session.SeverityInfo}

		good := rec.MarkGood()

		assert.True(t, good.Valid)
		assert.False(t, good.Expired)
		assert.False(t, good.HardExpired)
		assert.Nil(t, good.Err)
		assert.Equal(t, rec.ID, good.ID)
		assert.Empty(t, good.ErrID)
	})

	t.Run("promotes err-id back into id", func(t *testing.T) {
		t.Parallel()

		rec := goodRecord()
		rec.ErrID = rec.ID
		rec.ID = ""

		good := rec.MarkGood()

		assert.Equal(t, rec.ErrID, good.ID)
		assert.Empty(t, good.ErrID)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		rec := goodRecord()
		once := rec.MarkGood()
		twice := once.MarkGood()

		assert.Equal(t, once, twice)
	})
}

func TestRecord_MarkBad(t *testing.T) {
	t.Parallel()

	cfg := testConfig()

	t.Run("moves id into err-id", func(t *testing.T) {
		t.Parallel()

		rec := goodRecord().MarkGood()
		e := &session.Error{Severity: session.SeverityWarn, Cause: session.CauseBadIP, Reason: "nope"}

		bad := rec.MarkBad(e, cfg)

		assert.False(t, bad.Valid)
		assert.Empty(t, bad.ID)
		assert.Equal(t, rec.ID, bad.ErrID)
		assert.Same(t, e, bad.Err)
	})

	t.Run("derives expiry flags from an expired cause", func(t *testing.T) {
		t.Parallel()

		rec := goodRecord()
		rec.ActiveAt = testClock().Add(-45 * time.Minute) // past expires, inside hardExpires
		bad := rec.MarkBad(&session.Error{Cause: session.CauseExpired, Severity: session.SeverityInfo}, cfg)

		assert.True(t, bad.Expired)
		assert.False(t, bad.HardExpired)
	})

	t.Run("sets hard expiry past the hard horizon", func(t *testing.T) {
		t.Parallel()

		rec := goodRecord()
		rec.ActiveAt = testClock().Add(-2 * time.Hour)
		bad := rec.MarkBad(&session.Error{Cause: session.CauseExpired, Severity: session.SeverityInfo}, cfg)

		assert.True(t, bad.Expired)
		assert.True(t, bad.HardExpired)
	})

	t.Run("bad-ip counts as expiry only when configured", func(t *testing.T) {
		t.Parallel()

		e := &session.Error{Cause: session.CauseBadIP, Severity: session.SeverityWarn}

		plain := goodRecord().MarkBad(e, cfg)
		assert.False(t, plain.Expired)

		display := cfg
		display.ExpireOnIPMismatch = true
		masked := goodRecord().MarkBad(e, display)
		assert.True(t, masked.Expired)
	})

	t.Run("second application preserves err-id and expiry flags", func(t *testing.T) {
		t.Parallel()

		rec := goodRecord()
		rec.ActiveAt = testClock().Add(-2 * time.Hour)
		first := rec.MarkBad(&session.Error{Cause: session.CauseExpired, Severity: session.SeverityInfo}, cfg)
		require.True(t, first.Expired)
		require.True(t, first.HardExpired)

		// A later non-expiry error must not re-derive the flags.
		second := first.MarkBad(&session.Error{Cause: session.CauseDBProblem, Severity: session.SeverityError}, cfg)

		assert.Equal(t, first.ErrID, second.ErrID)
		assert.True(t, second.Expired)
		assert.True(t, second.HardExpired)
		assert.Equal(t, session.CauseDBProblem, second.Err.Cause)
	})

	t.Run("nil error falls back to unknown-error", func(t *testing.T) {
		t.Parallel()

		bad := goodRecord().MarkBad(nil, cfg)

		require.NotNil(t, bad.Err)
		assert.Equal(t, session.CauseUnknown, bad.Err.Cause)
		assert.Equal(t, session.SeverityError, bad.Err.Severity)
	})
}

func TestRecord_Accessors(t *testing.T) {
	t.Parallel()

	rec := goodRecord()
	assert.Equal(t, rec.ID, rec.Identifier())
	assert.True(t, rec.Identified())
	assert.False(t, rec.IsZero())

	bad := rec.MarkBad(&session.Error{Cause: session.CauseExpired, Severity: session.SeverityInfo}, testConfig())
	assert.Equal(t, rec.ID, bad.Identifier(), "identifier survives invalidation via err-id")

	assert.True(t, session.Record{}.IsZero())
}

func TestError_Error(t *testing.T) {
	t.Parallel()

	e := &session.Error{Severity: session.SeverityWarn, Cause: session.CauseBadIP, Reason: "address mismatch"}
	assert.Equal(t, "bad-ip: address mismatch", e.Error())
	assert.Equal(t, "warn", e.Severity.String())
}
