package service

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrWeakPassword           = errors.New("password does not meet policy")
	ErrInvalidOrUsedToken     = errors.New("invalid or already used token")
	ErrTokenExpired           = errors.New("token expired")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrUserNotFound           = errors.New("user not found")

	// Backend failures. Callers see a generic message; the wrapped cause is logged.
	ErrStorage         = errors.New("token storage failure")
	ErrIdentityBackend = errors.New("identity backend failure")
	ErrNotifier        = errors.New("notification delivery failure")
)
