package service

import (
	"context"
	"testing"
	"time"

	"staffingauth/internal/entity"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSweeperRunsUntilCancelled(t *testing.T) {
	h := newTokenHarness(t)
	store := h.store
	require.NoError(t, store.Create(context.Background(), &entity.Token{
		UserID:    uuid.New(),
		TokenHash: "stale",
		Email:     "s@example.com",
		Purpose:   entity.EmailVerify,
		IssuedAt:  h.clock.Now().Add(-30 * 24 * time.Hour),
		ExpiresAt: h.clock.Now().Add(-29 * 24 * time.Hour),
	}))

	log, hook := logtest.NewNullLogger()
	sweeper := NewTokenSweeper(h.svc, time.Hour, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	assert.Eventually(t, func() bool { return store.only() == nil }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, int64(1), hook.LastEntry().Data["deleted"])
}
