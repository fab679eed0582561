package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Proxy headers in priority order. The most trustworthy sources come first.
var headers = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP extracts the real client IP address from the request, walking the
// known proxy headers in priority order and falling back to RemoteAddr.
// Returns an empty string when no valid address can be determined.
func GetIP(r *http.Request) string {
	for _, header := range headers {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		// X-Forwarded-For may hold a chain "client, proxy1, proxy2";
		// the leftmost entry is the original client.
		candidate, _, _ := strings.Cut(value, ",")
		if ip := normalize(candidate); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return normalize(host)
}

// normalize validates the candidate and returns its canonical string form.
// The unspecified address (0.0.0.0, ::) is rejected: it means no valid
// client IP was recorded upstream.
func normalize(candidate string) string {
	ip := net.ParseIP(strings.TrimSpace(candidate))
	if ip == nil || ip.IsUnspecified() {
		return ""
	}
	return ip.String()
}
