// Package clientip extracts the real client IP address from HTTP requests.
//
// Sessions are bound to the address they were created from, so the extracted
// value feeds directly into session validation: a request presenting a
// session from a different address is rejected. Behind proxies, load
// balancers, or CDNs the connection's RemoteAddr is the last hop, not the
// client, so proxy headers are consulted first.
//
// # Header Priority
//
// Headers are checked in this order:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry)
//  4. X-Real-IP (nginx and other proxies)
//  5. RemoteAddr (direct connection)
//
// # Usage
//
//	func handleRequest(w http.ResponseWriter, r *http.Request) {
//		ip := clientip.GetIP(r)
//		log.Printf("request from %s", ip)
//	}
//
// Invalid and unspecified addresses (0.0.0.0, ::) are rejected at every
// level, falling through to the next candidate source.
package clientip
