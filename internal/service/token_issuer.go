package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"staffingauth/internal/entity"
	"staffingauth/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type IssueInput struct {
	UserID    uuid.UUID
	Email     string
	FirstName string
	Purpose   entity.TokenPurpose
}

type IssueResult struct {
	Token     string
	ExpiresAt time.Time
}

type VerificationInput struct {
	UserID    uuid.UUID
	Email     string
	FirstName string
}

type ForgotPasswordInput struct {
	Email     string
	UserID    *uuid.UUID
	FirstName string
}

// Issue persists a new token and emails its link. When delivery fails the
// result is still returned alongside an ErrNotifier error; the stored token
// stays redeemable.
func (s *TokenService) Issue(ctx context.Context, input IssueInput) (*IssueResult, error) {
	email := utils.NormalizeEmail(input.Email)
	if input.UserID == uuid.Nil || !input.Purpose.Valid() || !validEmail(email) {
		return nil, ErrInvalidInput
	}

	rawToken, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	issuedAt := s.now()
	token := &entity.Token{
		UserID:    input.UserID,
		TokenHash: utils.HashToken(rawToken),
		Email:     email,
		Purpose:   input.Purpose,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.ttl(input.Purpose)),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, wrapErr(ErrStorage, err)
	}
	s.metrics.Issued(string(input.Purpose))

	log := s.logger.WithFields(logrus.Fields{
		"user_id": input.UserID,
		"purpose": input.Purpose,
	})
	result := &IssueResult{Token: rawToken, ExpiresAt: token.ExpiresAt}

	if err := s.deliver(ctx, token, rawToken, input.FirstName); err != nil {
		log.WithError(err).Error("token email not delivered")
		s.metrics.NotifyFailed(string(input.Purpose))
		s.recordEvent(ctx, &input.UserID, input.Purpose, entity.TokenNotifyFailed, map[string]any{"email": email})
		return result, wrapErr(ErrNotifier, err)
	}

	s.recordEvent(ctx, &input.UserID, input.Purpose, entity.TokenIssued, map[string]any{
		"email":      email,
		"expires_at": token.ExpiresAt,
	})
	log.Info("token issued")
	return result, nil
}

// SendVerification issues an email-verify token for an unverified account.
// The link only goes to the account's own address; a mismatched email, an
// unknown user or an already verified account succeed silently.
func (s *TokenService) SendVerification(ctx context.Context, input VerificationInput) error {
	email := utils.NormalizeEmail(input.Email)
	if input.UserID == uuid.Nil || !validEmail(email) {
		return ErrInvalidInput
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.identityTimeout())
	user, err := s.identity.FindByID(lookupCtx, input.UserID)
	cancel()
	if err != nil {
		return wrapErr(ErrIdentityBackend, err)
	}
	if user == nil || utils.NormalizeEmail(user.Email) != email || user.EmailVerifiedAt != nil {
		s.logger.WithField("user_id", input.UserID).Debug("verification request ignored")
		return nil
	}

	firstName := input.FirstName
	if firstName == "" {
		firstName = user.FirstName
	}
	_, err = s.Issue(ctx, IssueInput{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: firstName,
		Purpose:   entity.EmailVerify,
	})
	return err
}

// RequestPasswordReset issues a reset token to the account registered under
// the email. Unknown addresses, and a UserID that does not own the address,
// succeed silently.
func (s *TokenService) RequestPasswordReset(ctx context.Context, input ForgotPasswordInput) error {
	email := utils.NormalizeEmail(input.Email)
	if !validEmail(email) {
		return ErrInvalidInput
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.identityTimeout())
	user, err := s.identity.FindByEmail(lookupCtx, email)
	cancel()
	if err != nil {
		return wrapErr(ErrIdentityBackend, err)
	}
	if user == nil {
		s.logger.Debug("password reset requested for unknown email")
		return nil
	}
	if input.UserID != nil && *input.UserID != user.ID {
		s.logger.WithField("user_id", *input.UserID).Warn("password reset user id does not own the email")
		return nil
	}

	firstName := input.FirstName
	if firstName == "" {
		firstName = user.FirstName
	}
	_, err = s.Issue(ctx, IssueInput{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: firstName,
		Purpose:   entity.PasswordReset,
	})
	return err
}

func (s *TokenService) deliver(ctx context.Context, token *entity.Token, rawToken string, firstName string) error {
	if s.notifier == nil {
		return fmt.Errorf("notifier not configured")
	}
	message, err := renderMessage(token.Purpose, s.buildLink(token.Purpose, rawToken), firstName, token.ExpiresAt.Sub(token.IssuedAt))
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.notifierTimeout())
	defer cancel()
	return s.notifier.Send(sendCtx, token.Email, message.Subject, message.HTML)
}

func (s *TokenService) buildLink(purpose entity.TokenPurpose, rawToken string) string {
	path := s.config.VerifyPath
	if path == "" {
		path = "/verify-email"
	}
	if purpose == entity.PasswordReset {
		path = s.config.ResetPath
		if path == "" {
			path = "/reset-password"
		}
	}
	base := strings.TrimRight(s.config.AppBaseURL, "/")
	query := url.Values{}
	query.Set("token", rawToken)
	return base + path + "?" + query.Encode()
}

var emailValidator = validator.New()

func validEmail(email string) bool {
	return emailValidator.Var(email, "required,email") == nil
}
