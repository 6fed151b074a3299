package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"staffingauth/internal/entity"
	"staffingauth/internal/metrics"
	"staffingauth/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// TokenService issues and redeems single-use email tokens.
type TokenService struct {
	tokens   repository.TokenRepository
	events   repository.TokenEventRepository
	identity IdentityBackend
	notifier Notifier
	clock    Clock
	config   TokenConfig
	logger   logrus.FieldLogger
	metrics  *metrics.Token
}

func NewTokenService(
	tokens repository.TokenRepository,
	events repository.TokenEventRepository,
	identity IdentityBackend,
	notifier Notifier,
	clock Clock,
	config TokenConfig,
	logger logrus.FieldLogger,
	tokenMetrics *metrics.Token,
) *TokenService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TokenService{
		tokens:   tokens,
		events:   events,
		identity: identity,
		notifier: notifier,
		clock:    clock,
		config:   config,
		logger:   logger,
		metrics:  tokenMetrics,
	}
}

// Sweep deletes tokens that expired or were consumed before the retention window.
func (s *TokenService) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention())
	deleted, err := s.tokens.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, wrapErr(ErrStorage, err)
	}
	s.metrics.Swept(deleted)
	return deleted, nil
}

// Events returns the newest audit entries for a user.
func (s *TokenService) Events(ctx context.Context, userID uuid.UUID, limit int) ([]entity.TokenEvent, error) {
	if s.events == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	events, err := s.events.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, wrapErr(ErrStorage, err)
	}
	return events, nil
}

func (s *TokenService) recordEvent(
	ctx context.Context,
	userID *uuid.UUID,
	purpose entity.TokenPurpose,
	action entity.TokenAction,
	metadata map[string]any,
) {
	if s.events == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			s.logger.WithError(err).Warn("encode token event metadata")
			return
		}
		payload = datatypes.JSON(bytes)
	}
	event := &entity.TokenEvent{
		UserID:   userID,
		Purpose:  purpose,
		Action:   action,
		Metadata: payload,
	}
	if err := s.events.Log(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("record token event")
	}
}

func (s *TokenService) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}

func (s *TokenService) ttl(purpose entity.TokenPurpose) time.Duration {
	switch purpose {
	case entity.PasswordReset:
		if s.config.ResetTokenTTL > 0 {
			return s.config.ResetTokenTTL
		}
	default:
		if s.config.VerificationTokenTTL > 0 {
			return s.config.VerificationTokenTTL
		}
	}
	return 24 * time.Hour
}

func (s *TokenService) retention() time.Duration {
	if s.config.Retention > 0 {
		return s.config.Retention
	}
	return 7 * 24 * time.Hour
}

func (s *TokenService) identityTimeout() time.Duration {
	if s.config.IdentityTimeout > 0 {
		return s.config.IdentityTimeout
	}
	return 5 * time.Second
}

func (s *TokenService) notifierTimeout() time.Duration {
	if s.config.NotifierTimeout > 0 {
		return s.config.NotifierTimeout
	}
	return 10 * time.Second
}

func (s *TokenService) consumeTimeout() time.Duration {
	if s.config.ConsumeTimeout > 0 {
		return s.config.ConsumeTimeout
	}
	return 5 * time.Second
}

func wrapErr(kind error, cause error) error {
	return fmt.Errorf("%w: %w", kind, cause)
}
