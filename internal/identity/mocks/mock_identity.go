package mocks

import (
	"context"

	"skinscan/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Identity), args.Error(1)
}

type MockAdmin struct {
	mock.Mock
}

func (m *MockAdmin) CreateUser(ctx context.Context, email, password, name string) (model.Account, error) {
	args := m.Called(ctx, email, password, name)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockAdmin) FindUserByEmail(ctx context.Context, email string) (model.Account, bool, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Account), args.Bool(1), args.Error(2)
}

func (m *MockAdmin) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
