package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"staffingauth/internal/entity"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type TokenConfig struct {
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	Retention            time.Duration

	AppBaseURL string
	VerifyPath string
	ResetPath  string

	IdentityTimeout time.Duration
	NotifierTimeout time.Duration
	ConsumeTimeout  time.Duration

	PasswordPolicy PasswordPolicy
}

// Notifier delivers one HTML message.
type Notifier interface {
	Send(ctx context.Context, to string, subject string, htmlBody string) error
}

type RoleLookup interface {
	LookupRoles(ctx context.Context, userID uuid.UUID) ([]entity.Role, error)
}

// IdentityBackend is the account of record.
type IdentityBackend interface {
	RoleLookup
	ConfirmEmail(ctx context.Context, userID uuid.UUID) error
	SetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error
	FindByID(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type PasswordPolicy struct {
	MinLength int
}

func (p PasswordPolicy) Validate(password string) error {
	minLength := p.MinLength
	if minLength <= 0 {
		minLength = 6
	}
	if utf8.RuneCountInString(password) < minLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, minLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: must be at most %d bytes", ErrWeakPassword, maxPasswordBytes)
	}
	return nil
}
