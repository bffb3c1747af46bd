package mocks

import (
	"context"
	"time"

	"skinscan/internal/model"
	"skinscan/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockScanRepository struct {
	mock.Mock
}

func (m *MockScanRepository) NextID(ownerID string, at time.Time) string {
	args := m.Called(ownerID, at)
	return args.String(0)
}

func (m *MockScanRepository) Create(ctx context.Context, s *model.Scan) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockScanRepository) Get(ctx context.Context, id string) (*model.Scan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Scan), args.Error(1)
}

func (m *MockScanRepository) ListByOwner(ctx context.Context, ownerID string, f repository.ScanFilter) ([]model.Scan, error) {
	args := m.Called(ctx, ownerID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Scan), args.Error(1)
}

func (m *MockScanRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
