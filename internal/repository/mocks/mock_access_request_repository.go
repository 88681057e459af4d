package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"accreditdocs/internal/model"
	"accreditdocs/internal/repository"
)

type MockAccessRequestRepository struct {
	mock.Mock
}

var _ repository.AccessRequestRepository = (*MockAccessRequestRepository)(nil)

func (m *MockAccessRequestRepository) Create(ctx context.Context, req *model.AccessRequest) (*model.AccessRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *MockAccessRequestRepository) FindByID(ctx context.Context, id string) (*model.AccessRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *MockAccessRequestRepository) Latest(ctx context.Context, documentID string, requesterID int64) (*model.AccessRequest, error) {
	args := m.Called(ctx, documentID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *MockAccessRequestRepository) Resolve(ctx context.Context, id string, p repository.ResolveParams) (*model.AccessRequest, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *MockAccessRequestRepository) ListByDocument(ctx context.Context, documentID string, status model.RequestStatus, pq repository.PageQuery) (*repository.PageResult[model.AccessRequest], error) {
	args := m.Called(ctx, documentID, status, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.AccessRequest]), args.Error(1)
}

func (m *MockAccessRequestRepository) ListByRequester(ctx context.Context, requesterID int64, pq repository.PageQuery) (*repository.PageResult[model.AccessRequest], error) {
	args := m.Called(ctx, requesterID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.AccessRequest]), args.Error(1)
}
