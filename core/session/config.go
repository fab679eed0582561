package session

import (
	"time"
)

// Config holds process-lifetime session settings. It is constructed once at
// service start and passed by value; the engine never mutates it afterwards.
type Config struct {
	// Expires is the idle timeout: a session whose last activity is older
	// than this is soft-expired.
	Expires time.Duration

	// HardExpires is the longer horizon past which a soft-expired session
	// loses its grace-period privileges. Defaults to twice Expires.
	HardExpires time.Duration

	// CacheTTL bounds how long a memoized store read may be served.
	// Zero disables the cache layer entirely.
	CacheTTL time.Duration

	// Secured requires every session to carry a verified secondary token.
	Secured bool

	// SingleSession makes Create clear all of the user's prior session
	// variables instead of only the new session's.
	SingleSession bool

	// ExpireOnIPMismatch treats a bad-ip failure as an expiry for display
	// purposes, so the surrounding layer shows "session expired" instead of
	// leaking that the address check fired.
	ExpireOnIPMismatch bool

	// SessionKey is the name under which the session is exposed in the
	// surrounding request context (default cookie name as well).
	SessionKey string

	// IDField is the request field consulted for the raw identifier.
	IDField string

	// Now overrides the time source. Nil means time.Now. Tests inject a
	// fake clock here so expiry and margin logic run without sleeps.
	Now func() time.Time
}

func defaultConfig() Config {
	return Config{
		Expires:    24 * time.Hour,
		CacheTTL:   2 * time.Minute,
		SessionKey: "session",
		IDField:    "session-id",
	}
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// CacheMargin is the buffer before nominal expiry at which a cached record
// is no longer trusted and must be revalidated against the store. A cache
// entry can be served for up to CacheTTL after it was read, so naively
// trusting a cached last-active timestamp risks serving a session past its
// true expiry by as much as CacheTTL.
func (c Config) CacheMargin() time.Duration {
	switch {
	case c.Expires > 2*c.CacheTTL:
		return c.Expires - c.CacheTTL
	case c.Expires > c.CacheTTL:
		return c.CacheTTL
	case c.CacheTTL > 2*c.Expires:
		return c.Expires
	default:
		return c.CacheTTL - c.Expires
	}
}

// Option is a functional option for Config.
type Option func(*Config)

// WithExpires sets the session idle timeout.
func WithExpires(d time.Duration) Option {
	return func(c *Config) { c.Expires = d }
}

// WithHardExpires sets the hard-expiry horizon.
func WithHardExpires(d time.Duration) Option {
	return func(c *Config) { c.HardExpires = d }
}

// WithCacheTTL sets the memoization TTL. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Config) { c.CacheTTL = d }
}

// WithSecured makes secondary security tokens mandatory.
func WithSecured(secured bool) Option {
	return func(c *Config) { c.Secured = secured }
}

// WithSingleSession enables single-session-per-user variable clearing.
func WithSingleSession(single bool) Option {
	return func(c *Config) { c.SingleSession = single }
}

// WithExpireOnIPMismatch displays address-check failures as expiries.
func WithExpireOnIPMismatch(v bool) Option {
	return func(c *Config) { c.ExpireOnIPMismatch = v }
}

// WithSessionKey sets the context/cookie name for the session.
func WithSessionKey(key string) Option {
	return func(c *Config) { c.SessionKey = key }
}

// WithIDField sets the request field consulted for the raw identifier.
func WithIDField(field string) Option {
	return func(c *Config) { c.IDField = field }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Now = now }
}
