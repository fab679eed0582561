package sessionid_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/securetoken"
	"github.com/dmitrymomot/sessionkit/core/sessionid"
)

func TestGenerate_Plain(t *testing.T) {
	t.Parallel()

	gen, err := sessionid.Generate(false)

	require.NoError(t, err)
	assert.Equal(t, gen.DBID, gen.Public)
	assert.Empty(t, gen.TokenHash)
	assert.True(t, sessionid.Valid(gen.Public))
}

func TestGenerate_Secure(t *testing.T) {
	t.Parallel()

	gen, err := sessionid.Generate(true)

	require.NoError(t, err)
	assert.True(t, sessionid.Valid(gen.Public))
	assert.NotEqual(t, gen.DBID, gen.Public)
	require.NotEmpty(t, gen.TokenHash)

	dbID, token := sessionid.Split(gen.Public)
	assert.Equal(t, gen.DBID, dbID)
	require.NotEmpty(t, token)
	assert.True(t, securetoken.Verify(token, gen.TokenHash), "embedded token must verify against the stored hash")
}

func TestGenerate_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 100 {
		gen, err := sessionid.Generate(false)
		require.NoError(t, err)
		assert.False(t, seen[gen.DBID], "identifiers must not repeat")
		seen[gen.DBID] = true
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	t.Run("composite", func(t *testing.T) {
		t.Parallel()
		dbID, token := sessionid.Split("abc123-def456")
		assert.Equal(t, "abc123", dbID)
		assert.Equal(t, "def456", token)
	})

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		dbID, token := sessionid.Split("abc123")
		assert.Equal(t, "abc123", dbID)
		assert.Empty(t, token)
	})

	t.Run("splits on first dash only", func(t *testing.T) {
		t.Parallel()
		dbID, token := sessionid.Split("aa-bb-cc")
		assert.Equal(t, "aa", dbID)
		assert.Equal(t, "bb-cc", token)
	})
}

func TestValid(t *testing.T) {
	t.Parallel()

	valid := []string{
		strings.Repeat("a", 30),
		strings.Repeat("0", 128),
		strings.Repeat("f", 64) + "-" + strings.Repeat("9", 64),
	}
	for _, id := range valid {
		assert.True(t, sessionid.Valid(id), "expected %q to be valid", id)
	}

	invalid := []string{
		"",
		strings.Repeat("a", 29),                                // too short
		strings.Repeat("a", 129),                               // too long
		strings.Repeat("A", 40),                                // uppercase
		strings.Repeat("g", 40),                                // non-hex
		strings.Repeat("a", 40) + "-",                          // dangling dash
		strings.Repeat("a", 40) + "-" + strings.Repeat("b", 4), // token half too short
		"'; DROP TABLE sessions; --",
		"../../etc/passwd",
	}
	for _, id := range invalid {
		assert.False(t, sessionid.Valid(id), "expected %q to be invalid", id)
	}
}
