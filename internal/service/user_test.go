package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"skinscan/internal/identity"
	idMocks "skinscan/internal/identity/mocks"
	"skinscan/internal/model"
	"skinscan/internal/repository"
	repoMocks "skinscan/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// errAny marks a case that fails with an unclassified error.
var errAny = errors.New("any error")

func newUserSvc(idp *idMocks.MockAdmin, repo *repoMocks.MockProfileRepository) *userService {
	s := NewUserService(idp, repo).(*userService)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestUserService_Signup(t *testing.T) {
	ctx := context.Background()
	in := SignupInput{Email: " ann@x.io ", Password: "secret123", Name: " Ann "}

	tests := []struct {
		name    string
		in      SignupInput
		setup   func(idp *idMocks.MockAdmin, repo *repoMocks.MockProfileRepository)
		wantErr error
	}{
		{
			name: "happy path",
			in:   in,
			setup: func(idp *idMocks.MockAdmin, repo *repoMocks.MockProfileRepository) {
				idp.On("CreateUser", ctx, "ann@x.io", "secret123", "Ann").
					Return(model.Account{ID: "u1", Email: "ann@x.io"}, nil)
				repo.On("Create", ctx, &model.Profile{ID: "u1", Email: "ann@x.io", Name: "Ann", CreatedAt: fixedNow}).
					Return(nil)
			},
		},
		{
			name:    "missing fields",
			in:      SignupInput{Email: "ann@x.io"},
			setup:   func(*idMocks.MockAdmin, *repoMocks.MockProfileRepository) {},
			wantErr: ErrValidation,
		},
		{
			name: "email taken",
			in:   in,
			setup: func(idp *idMocks.MockAdmin, repo *repoMocks.MockProfileRepository) {
				idp.On("CreateUser", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(model.Account{}, identity.ErrAlreadyRegistered)
			},
			wantErr: ErrConflict,
		},
		{
			name: "provider rejects",
			in:   in,
			setup: func(idp *idMocks.MockAdmin, repo *repoMocks.MockProfileRepository) {
				idp.On("CreateUser", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(model.Account{}, identity.ErrRejected)
			},
			wantErr: ErrValidation,
		},
		{
			name: "provider down",
			in:   in,
			setup: func(idp *idMocks.MockAdmin, repo *repoMocks.MockProfileRepository) {
				idp.On("CreateUser", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(model.Account{}, identity.ErrUnavailable)
			},
			wantErr: ErrIdentityProvider,
		},
		{
			name: "profile already exists",
			in:   in,
			setup: func(idp *idMocks.MockAdmin, repo *repoMocks.MockProfileRepository) {
				idp.On("CreateUser", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(model.Account{ID: "u1", Email: "ann@x.io"}, nil)
				repo.On("Create", ctx, mock.Anything).Return(repository.ErrAlreadyExists)
				idp.On("DeleteUser", mock.Anything, "u1").Return(nil).Once()
			},
			wantErr: ErrConflict,
		},
		{
			name: "profile store down removes the account",
			in:   in,
			setup: func(idp *idMocks.MockAdmin, repo *repoMocks.MockProfileRepository) {
				idp.On("CreateUser", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(model.Account{ID: "u1", Email: "ann@x.io"}, nil)
				repo.On("Create", ctx, mock.Anything).Return(errors.New("connection refused"))
				idp.On("DeleteUser", mock.Anything, "u1").Return(nil).Once()
			},
			wantErr: errAny,
		},
		{
			name: "account removal fails too",
			in:   in,
			setup: func(idp *idMocks.MockAdmin, repo *repoMocks.MockProfileRepository) {
				idp.On("CreateUser", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(model.Account{ID: "u1", Email: "ann@x.io"}, nil)
				repo.On("Create", ctx, mock.Anything).Return(errors.New("connection refused"))
				idp.On("DeleteUser", mock.Anything, "u1").Return(identity.ErrUnavailable).Once()
			},
			wantErr: errAny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := new(idMocks.MockAdmin)
			repo := new(repoMocks.MockProfileRepository)
			tt.setup(idp, repo)

			acc, err := newUserSvc(idp, repo).Signup(ctx, tt.in)
			switch {
			case tt.wantErr == errAny:
				assert.ErrorContains(t, err, "create profile: connection refused")
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, model.Account{ID: "u1", Email: "ann@x.io", Name: "Ann"}, acc)
			}
			idp.AssertExpectations(t)
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_GetProfile(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockProfileRepository)
	s := newUserSvc(new(idMocks.MockAdmin), repo)

	repo.On("Get", ctx, "u1").Return(&model.Profile{ID: "u1", Name: "Ann"}, nil).Once()
	p, err := s.GetProfile(ctx, "u1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.Name)

	_, err = s.GetProfile(ctx, "u2", "u1")
	assert.ErrorIs(t, err, ErrForbidden)

	repo.On("Get", ctx, "u3").Return(nil, repository.ErrNotFound).Once()
	_, err = s.GetProfile(ctx, "u3", "u3")
	assert.ErrorIs(t, err, ErrNotFound)

	repo.AssertExpectations(t)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	name := func(s string) *string { return &s }

	tests := []struct {
		name     string
		caller   string
		in       UpdateProfileInput
		wantName string
		wantErr  error
	}{
		{name: "rename", caller: "u1", in: UpdateProfileInput{Name: name("Bea")}, wantName: "Bea"},
		{name: "blank name keeps existing", caller: "u1", in: UpdateProfileInput{Name: name("  ")}, wantName: "Ann"},
		{name: "nil name keeps existing", caller: "u1", wantName: "Ann"},
		{name: "other user", caller: "u2", in: UpdateProfileInput{Name: name("Eve")}, wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(repoMocks.MockProfileRepository)
			s := newUserSvc(new(idMocks.MockAdmin), repo)
			created := fixedNow.Add(-time.Hour)

			if tt.wantErr == nil {
				repo.On("Get", ctx, "u1").
					Return(&model.Profile{ID: "u1", Email: "ann@x.io", Name: "Ann", CreatedAt: created}, nil)
				repo.On("Update", ctx, mock.MatchedBy(func(p *model.Profile) bool {
					return p.Name == tt.wantName && p.Email == "ann@x.io" && p.UpdatedAt != nil
				})).Return(nil)
			}

			p, err := s.UpdateProfile(ctx, tt.caller, "u1", tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name)
			assert.Equal(t, "ann@x.io", p.Email)
			assert.Equal(t, created, p.CreatedAt)
			assert.Equal(t, fixedNow, *p.UpdatedAt)
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_UpdateProfileStoreError(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockProfileRepository)
	repo.On("Get", ctx, "u1").Return(&model.Profile{ID: "u1", Name: "Ann"}, nil)
	repo.On("Update", ctx, mock.Anything).Return(errors.New("save profile: down"))

	_, err := newUserSvc(new(idMocks.MockAdmin), repo).UpdateProfile(ctx, "u1", "u1", UpdateProfileInput{})
	assert.EqualError(t, err, "save profile: down")
}
