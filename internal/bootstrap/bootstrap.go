// Package bootstrap prepares external state the API relies on: the image
// bucket and the demo account. Every step is idempotent.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"skinscan/internal/config"
	"skinscan/internal/identity"
	"skinscan/internal/model"
	"skinscan/internal/repository"
	"skinscan/internal/storage"
)

// Timeout bounds the whole startup bootstrap.
const Timeout = 30 * time.Second

// Run ensures the bucket and, when enabled, the demo account. Failures are
// logged and never stop the server.
func Run(ctx context.Context, store storage.Storage, idp identity.Admin, profiles repository.ProfileRepository, demo config.DemoConfig, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	if err := EnsureBucket(ctx, store); err != nil {
		log.Error().Err(err).Msg("bootstrap: ensure bucket failed")
	} else {
		log.Info().Msg("bootstrap: bucket ready")
	}

	if !demo.Enabled {
		return
	}
	acc, err := EnsureDemoAccount(ctx, idp, profiles, demo)
	if err != nil {
		log.Error().Err(err).Msg("bootstrap: ensure demo account failed")
		return
	}
	log.Info().Str("user_id", acc.ID).Str("email", acc.Email).Msg("bootstrap: demo account ready")
}

// EnsureBucket creates the image bucket if it does not exist.
func EnsureBucket(ctx context.Context, store storage.Storage) error {
	return store.EnsureBucket(ctx)
}

// EnsureDemoAccount makes sure the demo identity and its profile exist.
// An account or profile that is already there counts as success.
func EnsureDemoAccount(ctx context.Context, idp identity.Admin, profiles repository.ProfileRepository, demo config.DemoConfig) (model.Account, error) {
	acc, found, err := idp.FindUserByEmail(ctx, demo.Email)
	if err != nil {
		return model.Account{}, fmt.Errorf("look up demo user: %w", err)
	}

	if !found {
		acc, err = idp.CreateUser(ctx, demo.Email, demo.Password, demo.Name)
		switch {
		case errors.Is(err, identity.ErrAlreadyRegistered):
			// created concurrently by another instance
			acc, found, err = idp.FindUserByEmail(ctx, demo.Email)
			if err != nil {
				return model.Account{}, fmt.Errorf("look up demo user: %w", err)
			}
			if !found {
				return model.Account{}, fmt.Errorf("demo user reported as registered but not found")
			}
		case err != nil:
			return model.Account{}, fmt.Errorf("create demo user: %w", err)
		}
	}
	if acc.Email == "" {
		acc.Email = demo.Email
	}
	if acc.Name == "" {
		acc.Name = demo.Name
	}

	err = profiles.Create(ctx, &model.Profile{
		ID:        acc.ID,
		Email:     acc.Email,
		Name:      acc.Name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
		return model.Account{}, fmt.Errorf("create demo profile: %w", err)
	}
	return acc, nil
}
