// Package securetoken provides one-way salted hashing and verification for
// secondary session security tokens.
//
// A security token is the secret half of a composite session identifier. The
// server never stores the token itself, only a salted scrypt hash of it, so a
// leaked session table does not reveal usable identifiers.
//
// # Format
//
// Encrypt produces a compact string of two base64url-encoded parts joined by
// a dollar sign:
//
//	<base64url(salt)>$<base64url(derived key)>
//
// The scrypt parameters are deliberately fixed (N=512, r=2, p=1) so that
// hashes remain verifiable across releases. The work factor is modest by
// password-hashing standards because tokens are high-entropy random digests,
// not human-chosen passwords.
//
// # Usage
//
//	import "github.com/dmitrymomot/sessionkit/core/securetoken"
//
//	hash, err := securetoken.Encrypt(token)
//	if err != nil {
//		// entropy source failure, not caller input
//	}
//
//	if securetoken.Verify(candidate, hash) {
//		// token matches
//	}
//
// Verify never fails with an error: malformed input of any shape simply
// yields false, so callers can feed untrusted strings directly into it.
package securetoken
