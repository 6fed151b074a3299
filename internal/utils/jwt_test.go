package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	manager := JWTManager{Secret: []byte("0123456789abcdef0123456789abcdef"), Issuer: "staffingauth", AccessTokenTTL: time.Minute}

	signed, ttl, err := manager.IssueAccessToken("user-1", "a@example.com", []string{"admin", "recruiter"})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	claims, err := manager.ParseAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, []string{"admin", "recruiter"}, claims.Roles)
}

func TestJWTManagerRejectsExpiredAndForeignTokens(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := JWTManager{
		Secret:         []byte("0123456789abcdef0123456789abcdef"),
		Issuer:         "staffingauth",
		AccessTokenTTL: time.Minute,
		Now:            func() time.Time { return issuedAt },
	}
	signed, _, err := issuer.IssueAccessToken("user-1", "a@example.com", nil)
	require.NoError(t, err)

	later := issuer
	later.Now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = later.ParseAccessToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := issuer
	other.Secret = []byte("fedcba9876543210fedcba9876543210")
	_, err = other.ParseAccessToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = JWTManager{}.IssueAccessToken("user-1", "", nil)
	assert.Error(t, err)
}
