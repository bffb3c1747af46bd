// Package identity talks to the GoTrue-compatible identity provider: it
// resolves bearer tokens to callers and creates accounts through the admin API.
package identity

import (
	"context"
	"errors"

	"skinscan/internal/model"
)

var (
	// ErrInvalidToken means the token is malformed, expired or unknown to the provider.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAlreadyRegistered means an account with the email already exists.
	ErrAlreadyRegistered = errors.New("email already registered")
	// ErrRejected means the provider refused the request (weak password, bad email, ...).
	ErrRejected = errors.New("rejected by identity provider")
	// ErrUnavailable covers transport failures, timeouts and provider 5xx.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Authenticator resolves a bearer token to the caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Identity, error)
}

// Admin manages accounts with service-role privileges.
type Admin interface {
	// CreateUser registers a confirmed account carrying name as user metadata.
	CreateUser(ctx context.Context, email, password, name string) (model.Account, error)
	// FindUserByEmail looks an account up by email. found is false when absent.
	FindUserByEmail(ctx context.Context, email string) (acc model.Account, found bool, err error)
	// DeleteUser removes an account. Deleting an absent account is not an error.
	DeleteUser(ctx context.Context, id string) error
}
