package securetoken

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Fixed scrypt parameters. Changing them invalidates every stored hash,
// so they are constants rather than configuration.
const (
	cpuCost     = 512
	memoryCost  = 2
	parallelism = 1
	saltLen     = 16
	keyLen      = 32
)

// ErrSaltGeneration is returned when the system entropy source fails.
var ErrSaltGeneration = errors.New("securetoken: failed to generate salt")

// Encrypt hashes the plaintext token with a fresh random salt and returns
// the salt and derived key as base64url strings joined by "$".
func Encrypt(plain string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Join(ErrSaltGeneration, err)
	}

	dk, err := scrypt.Key([]byte(plain), salt, cpuCost, memoryCost, parallelism, keyLen)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(salt) + "$" + base64.RawURLEncoding.EncodeToString(dk), nil
}

// Verify reports whether plain hashes to encoded under the stored salt.
// Any malformed encoded value yields false; decoding failures are
// deliberately swallowed so untrusted input cannot trigger an error path.
func Verify(plain, encoded string) bool {
	saltPart, hashPart, ok := strings.Cut(encoded, "$")
	if !ok || saltPart == "" || hashPart == "" {
		return false
	}

	salt, err := base64.RawURLEncoding.DecodeString(saltPart)
	if err != nil {
		return false
	}
	want, err := base64.RawURLEncoding.DecodeString(hashPart)
	if err != nil {
		return false
	}
	if len(want) != keyLen {
		return false
	}

	got, err := scrypt.Key([]byte(plain), salt, cpuCost, memoryCost, parallelism, keyLen)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(got, want) == 1
}
