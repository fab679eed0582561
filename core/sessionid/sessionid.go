package sessionid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/core/securetoken"
)

// idPattern is the canonical identifier format: a hex digest, optionally
// followed by a dash and the secret token half in secure mode.
var idPattern = regexp.MustCompile(`^[a-f0-9]{30,128}(-[a-f0-9]{30,128})?$`)

// Generated holds the three parts of a freshly generated identifier.
type Generated struct {
	// Public is the identifier handed to the client. In secure mode it is
	// "<DBID>-<secret token>", otherwise it equals DBID.
	Public string

	// DBID is the primary key used in the backing store.
	DBID string

	// TokenHash is the salted hash of the secret token half, empty when
	// secure mode is off. It is what gets persisted; the plaintext token
	// only ever exists inside Public.
	TokenHash string
}

// Generate builds a new random session identifier. With secure set it also
// generates a secret token, hashes it for storage, and embeds the plaintext
// in the public identifier.
func Generate(secure bool) (Generated, error) {
	dbID, err := digest()
	if err != nil {
		return Generated{}, err
	}

	if !secure {
		return Generated{Public: dbID, DBID: dbID}, nil
	}

	token, err := digest()
	if err != nil {
		return Generated{}, err
	}
	hash, err := securetoken.Encrypt(token)
	if err != nil {
		return Generated{}, err
	}

	return Generated{
		Public:    dbID + "-" + token,
		DBID:      dbID,
		TokenHash: hash,
	}, nil
}

// Split separates a public identifier into its store key and the optional
// secret token half. Without a dash the token is empty.
func Split(public string) (dbID, token string) {
	dbID, token, _ = strings.Cut(public, "-")
	return dbID, token
}

// Valid reports whether id matches the canonical identifier format.
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

// digest produces a 64-char hex digest from a random UUID, fresh entropy,
// and the current nanosecond timestamp.
func digest() (string, error) {
	var seed [56]byte
	id := uuid.New()
	copy(seed[:16], id[:])
	if _, err := rand.Read(seed[16:48]); err != nil {
		return "", err
	}
	binary.BigEndian.PutUint64(seed[48:], uint64(time.Now().UnixNano()))

	sum := sha256.Sum256(seed[:])
	return hex.EncodeToString(sum[:]), nil
}
