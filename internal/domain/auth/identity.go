package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFARequired        = errors.New("mfa code required")
	ErrMFAInvalid         = errors.New("invalid mfa code")
)

type Credentials struct {
	Email    string
	Password string
	MFACode  string
	Tenant   string
}

// Identity is what a provider vouches for after a successful sign-in.
type Identity struct {
	UserID       string
	Email        string
	Name         string
	Role         string
	BackendToken string
}

type Provider interface {
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}
