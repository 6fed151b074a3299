package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"staffingauth/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestToken(hash string, purpose entity.TokenPurpose) *entity.Token {
	return &entity.Token{
		UserID:    uuid.New(),
		TokenHash: hash,
		Email:     "a@example.com",
		Purpose:   purpose,
		IssuedAt:  baseTime,
		ExpiresAt: baseTime.Add(24 * time.Hour),
	}
}

func TestTokenRepositoryFindActive(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(openTestDB(t))

	token := newTestToken("hash-1", entity.EmailVerify)
	require.NoError(t, repo.Create(ctx, token))
	require.NotEqual(t, uuid.Nil, token.ID)

	found, err := repo.FindActive(ctx, "hash-1", entity.EmailVerify)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, token.ID, found.ID)
	assert.Equal(t, token.UserID, found.UserID)
	assert.True(t, found.ExpiresAt.Equal(token.ExpiresAt))

	wrongPurpose, err := repo.FindActive(ctx, "hash-1", entity.PasswordReset)
	require.NoError(t, err)
	assert.Nil(t, wrongPurpose)

	missing, err := repo.FindActive(ctx, "nope", entity.EmailVerify)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTokenRepositoryRejectsDuplicateHash(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(openTestDB(t))

	require.NoError(t, repo.Create(ctx, newTestToken("dup", entity.EmailVerify)))
	assert.Error(t, repo.Create(ctx, newTestToken("dup", entity.PasswordReset)))
}

func TestTokenRepositoryConsumeOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(openTestDB(t))

	token := newTestToken("hash-2", entity.PasswordReset)
	require.NoError(t, repo.Create(ctx, token))

	ok, err := repo.Consume(ctx, token, baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Consume(ctx, token, baseTime.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindActive(ctx, "hash-2", entity.PasswordReset)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestTokenRepositoryConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(openTestDB(t))

	token := newTestToken("hash-3", entity.EmailVerify)
	require.NoError(t, repo.Create(ctx, token))

	const workers = 10
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Consume(ctx, token, baseTime)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestTokenRepositoryDeleteExpired(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewTokenRepository(db)

	live := newTestToken("live", entity.EmailVerify)
	expired := newTestToken("expired", entity.EmailVerify)
	expired.ExpiresAt = baseTime.Add(-48 * time.Hour)
	consumed := newTestToken("consumed", entity.PasswordReset)
	for _, tok := range []*entity.Token{live, expired, consumed} {
		require.NoError(t, repo.Create(ctx, tok))
	}
	ok, err := repo.Consume(ctx, consumed, baseTime.Add(-36*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	deleted, err := repo.DeleteExpired(ctx, baseTime.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []entity.Token
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "live", remaining[0].TokenHash)
}

func TestTokenRepositoryReleaseMakesTokenRedeemableAgain(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(openTestDB(t))

	token := newTestToken("hash-4", entity.PasswordReset)
	require.NoError(t, repo.Create(ctx, token))

	ok, err := repo.Consume(ctx, token, baseTime)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Release(ctx, token))

	found, err := repo.FindActive(ctx, "hash-4", entity.PasswordReset)
	require.NoError(t, err)
	require.NotNil(t, found)

	ok, err = repo.Consume(ctx, found, baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}
