package mocks

import (
	"context"

	"skinscan/internal/model"
	"skinscan/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Signup(ctx context.Context, in service.SignupInput) (model.Account, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, callerID, userID string) (*model.Profile, error) {
	args := m.Called(ctx, callerID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, callerID, userID string, in service.UpdateProfileInput) (*model.Profile, error) {
	args := m.Called(ctx, callerID, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) Upload(ctx context.Context, callerID string, in service.UploadInput) (string, error) {
	args := m.Called(ctx, callerID, in)
	return args.String(0), args.Error(1)
}

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, callerID string, in service.AnalyzeInput) (*model.Scan, error) {
	args := m.Called(ctx, callerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Scan), args.Error(1)
}

type MockScanService struct {
	mock.Mock
}

func (m *MockScanService) List(ctx context.Context, callerID, ownerID string, in service.ListScansInput) ([]model.Scan, error) {
	args := m.Called(ctx, callerID, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Scan), args.Error(1)
}

func (m *MockScanService) Delete(ctx context.Context, callerID, scanID string) error {
	args := m.Called(ctx, callerID, scanID)
	return args.Error(0)
}
