package service

import (
	"context"
	"strings"
	"time"

	"staffingauth/internal/entity"
	"staffingauth/internal/repository"
	"staffingauth/internal/utils"

	"github.com/google/uuid"
)

const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
}

type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        *entity.User
	Roles       []entity.Role
}

type AccessTokenIssuer interface {
	IssueAccessToken(userID string, email string, roles []string) (string, time.Duration, error)
}

// AuthService owns accounts and dashboard sign-in. Email tokens are delegated
// to TokenService.
type AuthService struct {
	users        repository.UserRepository
	tokens       *TokenService
	roles        RoleLookup
	passwordHash PasswordHasher
	accessTokens AccessTokenIssuer
	policy       PasswordPolicy
}

func NewAuthService(
	users repository.UserRepository,
	tokens *TokenService,
	roles RoleLookup,
	passwordHash PasswordHasher,
	accessTokens AccessTokenIssuer,
	policy PasswordPolicy,
) *AuthService {
	return &AuthService{
		users:        users,
		tokens:       tokens,
		roles:        roles,
		passwordHash: passwordHash,
		accessTokens: accessTokens,
		policy:       policy,
	}
}

// Register creates an unverified candidate account and sends the verification
// email. Registering an unverified address again restores the candidate role
// if it is missing and re-sends the email.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if !validEmail(email) || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}
	if err := s.policy.Validate(input.Password); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, wrapErr(ErrIdentityBackend, err)
	}
	if user != nil {
		if user.EmailVerifiedAt != nil {
			return nil, ErrEmailAlreadyRegistered
		}
		if err := s.users.AddRole(ctx, user.ID, entity.RoleCandidate); err != nil {
			return nil, wrapErr(ErrIdentityBackend, err)
		}
		return user, s.sendVerification(ctx, user)
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	newUser := &entity.User{
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		PasswordHash: &hash,
		IsActive:     true,
	}
	if err := s.users.CreateWithRole(ctx, newUser, entity.RoleCandidate); err != nil {
		return nil, wrapErr(ErrIdentityBackend, err)
	}
	return newUser, s.sendVerification(ctx, newUser)
}

// Login checks credentials first and loads roles as a separate step.
func (s *AuthService) Login(ctx context.Context, email string, password string) (*LoginResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, wrapErr(ErrIdentityBackend, err)
	}
	if user == nil || user.PasswordHash == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, password)
		return nil, ErrInvalidCredentials
	}
	if !s.passwordHash.Verify(*user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if user.EmailVerifiedAt == nil {
		return nil, ErrEmailNotVerified
	}

	roles, err := s.roles.LookupRoles(ctx, user.ID)
	if err != nil {
		return nil, wrapErr(ErrIdentityBackend, err)
	}
	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(user.ID.String(), user.Email, roleNames(roles))
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		User:        user,
		Roles:       roles,
	}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*entity.User, []entity.Role, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, wrapErr(ErrIdentityBackend, err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	roles, err := s.roles.LookupRoles(ctx, userID)
	if err != nil {
		return nil, nil, wrapErr(ErrIdentityBackend, err)
	}
	return user, roles, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *entity.User) error {
	_, err := s.tokens.Issue(ctx, IssueInput{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		Purpose:   entity.EmailVerify,
	})
	return err
}

func roleNames(roles []entity.Role) []string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return names
}
