package session

import (
	"net/http"
	"net/netip"

	"github.com/dmitrymomot/sessionkit/pkg/clientip"
)

// Source supplies a candidate identifier and remote address to Process.
// It is a closed capability set: the engine recognizes exactly the sources
// constructed below, replacing open-ended dispatch over "session-like"
// values. A nil Source is the canonical missing session.
type Source interface {
	sessionID(cfg Config) (string, bool)
	remoteIP() netip.Addr
}

// ExtractFunc pulls a raw session identifier out of a request. It is the
// configurable extraction path; returning "" means no candidate present.
type ExtractFunc func(r *http.Request) string

type requestSource struct {
	r       *http.Request
	extract ExtractFunc
}

// FromRequest builds a Source over an HTTP request. With a nil extract the
// default path is used: a cookie named after Config.SessionKey, then a
// query parameter named after Config.IDField. The remote address comes from
// the usual proxy-aware client IP resolution.
func FromRequest(r *http.Request, extract ExtractFunc) Source {
	return requestSource{r: r, extract: extract}
}

func (s requestSource) sessionID(cfg Config) (string, bool) {
	if s.r == nil {
		return "", false
	}
	if s.extract != nil {
		id := s.extract(s.r)
		return id, id != ""
	}
	if c, err := s.r.Cookie(cfg.SessionKey); err == nil && c.Value != "" {
		return c.Value, true
	}
	if id := s.r.URL.Query().Get(cfg.IDField); id != "" {
		return id, true
	}
	return "", false
}

func (s requestSource) remoteIP() netip.Addr {
	if s.r == nil {
		return netip.Addr{}
	}
	addr, err := netip.ParseAddr(clientip.GetIP(s.r))
	if err != nil {
		return netip.Addr{}
	}
	return addr
}

type idSource struct {
	id string
	ip netip.Addr
}

// FromID builds a Source from an already-extracted identifier and address,
// for callers that resolved both through their own middleware.
func FromID(id string, ip netip.Addr) Source {
	return idSource{id: id, ip: ip}
}

func (s idSource) sessionID(Config) (string, bool) {
	return s.id, s.id != ""
}

func (s idSource) remoteIP() netip.Addr {
	return s.ip
}
