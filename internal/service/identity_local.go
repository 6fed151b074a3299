package service

import (
	"context"
	"errors"

	"staffingauth/internal/entity"
	"staffingauth/internal/repository"
	"staffingauth/internal/utils"

	"github.com/google/uuid"
)

// LocalIdentity is the IdentityBackend backed by the users table.
type LocalIdentity struct {
	users        repository.UserRepository
	passwordHash PasswordHasher
	clock        Clock
}

func NewLocalIdentity(users repository.UserRepository, passwordHash PasswordHasher, clock Clock) *LocalIdentity {
	return &LocalIdentity{users: users, passwordHash: passwordHash, clock: clock}
}

func (l *LocalIdentity) ConfirmEmail(ctx context.Context, userID uuid.UUID) error {
	now := RealClock{}.Now()
	if l.clock != nil {
		now = l.clock.Now()
	}
	return mapUserErr(l.users.VerifyEmail(ctx, userID, now))
}

func (l *LocalIdentity) SetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	hash, err := l.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	return mapUserErr(l.users.SetPasswordHash(ctx, userID, hash))
}

func (l *LocalIdentity) LookupRoles(ctx context.Context, userID uuid.UUID) ([]entity.Role, error) {
	return l.users.Roles(ctx, userID)
}

func (l *LocalIdentity) FindByID(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return l.users.FindByID(ctx, userID)
}

func (l *LocalIdentity) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return l.users.FindByEmail(ctx, utils.NormalizeEmail(email))
}

func mapUserErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
