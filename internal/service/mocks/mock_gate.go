package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"accreditdocs/internal/model"
	"accreditdocs/internal/service"
)

type MockGate struct {
	mock.Mock
}

var _ service.Gate = (*MockGate)(nil)

func (m *MockGate) CanDownload(ctx context.Context, userID int64, documentID string) (bool, error) {
	args := m.Called(ctx, userID, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGate) Badge(ctx context.Context, userID int64, documentID string) (model.Badge, error) {
	args := m.Called(ctx, userID, documentID)
	return args.Get(0).(model.Badge), args.Error(1)
}
