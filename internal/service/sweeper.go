package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type TokenSweeper struct {
	tokens   *TokenService
	interval time.Duration
	logger   logrus.FieldLogger
}

func NewTokenSweeper(tokens *TokenService, interval time.Duration, logger logrus.FieldLogger) *TokenSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TokenSweeper{tokens: tokens, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *TokenSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *TokenSweeper) sweepOnce(ctx context.Context) {
	deleted, err := w.tokens.Sweep(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("token sweep failed")
		return
	}
	if deleted > 0 {
		w.logger.WithField("deleted", deleted).Info("token sweep")
	}
}
