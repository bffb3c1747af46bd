package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"skinscan/internal/identity"
	"skinscan/internal/model"
	"skinscan/internal/repository"
)

// SignupInput is the account to register.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// UpdateProfileInput carries mutable profile fields. A nil or blank Name keeps
// the stored one.
type UpdateProfileInput struct {
	Name *string
}

// UserService defines account and profile use cases.
type UserService interface {
	// Signup creates the identity-provider account, then the profile mirroring it.
	Signup(ctx context.Context, in SignupInput) (model.Account, error)

	// GetProfile returns the caller's own profile.
	GetProfile(ctx context.Context, callerID, userID string) (*model.Profile, error)

	// UpdateProfile merges in into the caller's own profile.
	UpdateProfile(ctx context.Context, callerID, userID string, in UpdateProfileInput) (*model.Profile, error)
}

type userService struct {
	idp      identity.Admin
	profiles repository.ProfileRepository
	now      func() time.Time
}

// NewUserService constructs a new UserService.
func NewUserService(idp identity.Admin, profiles repository.ProfileRepository) UserService {
	return &userService{idp: idp, profiles: profiles, now: time.Now}
}

func (s *userService) Signup(ctx context.Context, in SignupInput) (model.Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return model.Account{}, fmt.Errorf("%w: email, password and name are required", ErrValidation)
	}

	acc, err := s.idp.CreateUser(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAlreadyRegistered):
			return model.Account{}, fmt.Errorf("%w: email already registered", ErrConflict)
		case errors.Is(err, identity.ErrRejected):
			return model.Account{}, fmt.Errorf("%w: account rejected by identity provider", ErrValidation)
		default:
			return model.Account{}, fmt.Errorf("%w: %w", ErrIdentityProvider, err)
		}
	}
	if acc.Email == "" {
		acc.Email = in.Email
	}
	acc.Name = in.Name

	err = s.profiles.Create(ctx, &model.Profile{
		ID:        acc.ID,
		Email:     acc.Email,
		Name:      acc.Name,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		// without a profile the account is unusable and the email stays taken
		s.removeAccount(ctx, acc.ID)
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.Account{}, fmt.Errorf("%w: profile already exists", ErrConflict)
		}
		return model.Account{}, fmt.Errorf("create profile: %w", err)
	}
	return acc, nil
}

func (s *userService) removeAccount(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.idp.DeleteUser(ctx, id); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", id).Msg("remove account after failed signup")
	}
}

func (s *userService) GetProfile(ctx context.Context, callerID, userID string) (*model.Profile, error) {
	if err := requireOwner(callerID, userID); err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user profile not found", ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *userService) UpdateProfile(ctx context.Context, callerID, userID string, in UpdateProfileInput) (*model.Profile, error) {
	p, err := s.GetProfile(ctx, callerID, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			p.Name = name
		}
	}
	now := s.now().UTC()
	p.UpdatedAt = &now

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
