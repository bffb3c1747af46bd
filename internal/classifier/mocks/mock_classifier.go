package mocks

import (
	"context"

	"skinscan/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Predict(ctx context.Context, image []byte, contentType string) (model.Prediction, error) {
	args := m.Called(ctx, image, contentType)
	return args.Get(0).(model.Prediction), args.Error(1)
}
