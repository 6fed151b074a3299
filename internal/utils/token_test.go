package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaqueTokenEntropy(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		token, err := GenerateOpaqueToken()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, OpaqueTokenBytes)

		_, dup := seen[token]
		require.False(t, dup, "duplicate token %q", token)
		seen[token] = struct{}{}
	}
}

func TestGenerateRandomTokenRejectsShortSizes(t *testing.T) {
	_, err := GenerateRandomToken(8)
	require.Error(t, err)
}

func TestHashTokenIsStableAndURLSafe(t *testing.T) {
	a := HashToken("abc")
	assert.Equal(t, a, HashToken("abc"))
	assert.NotEqual(t, a, HashToken("abd"))
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "=")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@example.com", NormalizeEmail("  A@Example.COM "))
}
