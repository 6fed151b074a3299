package service

import (
	"context"
	"errors"
	"strings"

	"staffingauth/internal/entity"
	"staffingauth/internal/utils"

	"github.com/sirupsen/logrus"
)

type RedeemOutcome string

const (
	OutcomeVerified      RedeemOutcome = "verified"
	OutcomePasswordReset RedeemOutcome = "password_reset"
)

type RedeemInput struct {
	Token       string
	Purpose     entity.TokenPurpose
	NewPassword string
}

type RedeemResult struct {
	Outcome RedeemOutcome
	Token   *entity.Token
}

// Redeem validates a token, claims it and performs its privileged action. A
// failed action releases the claim so the token can be retried.
// Unknown, consumed and wrong-purpose tokens all fail with ErrInvalidOrUsedToken.
func (s *TokenService) Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error) {
	rawToken := strings.TrimSpace(input.Token)
	if rawToken == "" || !input.Purpose.Valid() {
		return nil, ErrInvalidInput
	}

	token, err := s.tokens.FindActive(ctx, utils.HashToken(rawToken), input.Purpose)
	if err != nil {
		return nil, s.rejected(ctx, nil, input.Purpose, wrapErr(ErrStorage, err))
	}
	if token == nil {
		return nil, s.rejected(ctx, nil, input.Purpose, ErrInvalidOrUsedToken)
	}
	if token.Expired(s.now()) {
		return nil, s.rejected(ctx, token, input.Purpose, ErrTokenExpired)
	}

	if input.Purpose == entity.PasswordReset {
		if err := s.config.PasswordPolicy.Validate(input.NewPassword); err != nil {
			return nil, s.rejected(ctx, token, input.Purpose, err)
		}
	}

	// Claim the token before the action so only one caller can apply it. The
	// claim runs detached from the caller; an abandoned request must not leave
	// a half-finished redemption behind.
	claimCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.consumeTimeout())
	claimed, err := s.tokens.Consume(claimCtx, token, s.now())
	cancel()
	if err != nil {
		return nil, s.rejected(ctx, token, input.Purpose, wrapErr(ErrStorage, err))
	}
	if !claimed {
		return nil, s.rejected(ctx, token, input.Purpose, ErrInvalidOrUsedToken)
	}

	if err := s.applyAction(ctx, token, input.NewPassword); err != nil {
		log := s.logger.WithError(err).WithField("token_id", token.ID)
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.consumeTimeout())
		releaseErr := s.tokens.Release(releaseCtx, token)
		cancel()
		if releaseErr != nil {
			log.WithField("release_error", releaseErr.Error()).Error("token action failed and claim could not be released")
		} else {
			log.Warn("token action failed, claim released")
		}
		return nil, s.rejected(ctx, token, input.Purpose, wrapErr(ErrIdentityBackend, err))
	}

	outcome := OutcomeVerified
	if input.Purpose == entity.PasswordReset {
		outcome = OutcomePasswordReset
	}
	s.metrics.Redeemed(string(input.Purpose), "success")
	s.recordEvent(ctx, &token.UserID, input.Purpose, entity.TokenRedeemed, map[string]any{"token_id": token.ID})
	s.logger.WithFields(logrus.Fields{
		"user_id": token.UserID,
		"purpose": input.Purpose,
	}).Info("token redeemed")

	return &RedeemResult{Outcome: outcome, Token: token}, nil
}

func (s *TokenService) VerifyEmail(ctx context.Context, token string) (*RedeemResult, error) {
	return s.Redeem(ctx, RedeemInput{Token: token, Purpose: entity.EmailVerify})
}

func (s *TokenService) ResetPassword(ctx context.Context, token string, newPassword string) (*RedeemResult, error) {
	return s.Redeem(ctx, RedeemInput{Token: token, Purpose: entity.PasswordReset, NewPassword: newPassword})
}

func (s *TokenService) applyAction(ctx context.Context, token *entity.Token, newPassword string) error {
	actionCtx, cancel := context.WithTimeout(ctx, s.identityTimeout())
	defer cancel()
	if token.Purpose == entity.PasswordReset {
		return s.identity.SetPassword(actionCtx, token.UserID, newPassword)
	}
	return s.identity.ConfirmEmail(actionCtx, token.UserID)
}

func (s *TokenService) rejected(ctx context.Context, token *entity.Token, purpose entity.TokenPurpose, err error) error {
	s.metrics.Redeemed(string(purpose), redeemResultLabel(err))
	if token == nil {
		s.recordEvent(ctx, nil, purpose, entity.TokenRejected, map[string]any{"reason": redeemResultLabel(err)})
		return err
	}
	s.recordEvent(ctx, &token.UserID, purpose, entity.TokenRejected, map[string]any{
		"reason":   redeemResultLabel(err),
		"token_id": token.ID,
	})
	return err
}

func redeemResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidOrUsedToken):
		return "invalid_or_used"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, ErrIdentityBackend):
		return "identity_error"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	default:
		return "error"
	}
}
