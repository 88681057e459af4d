package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"accreditdocs/internal/model"
	"accreditdocs/internal/service"
)

type MockLedger struct {
	mock.Mock
}

var _ service.Ledger = (*MockLedger)(nil)

func (m *MockLedger) Submit(ctx context.Context, documentID string, requester model.Actor, reason string) (*model.AccessRequest, error) {
	args := m.Called(ctx, documentID, requester, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *MockLedger) Resolve(ctx context.Context, requestID string, resolver model.Actor, decision model.Decision, response string) (*model.AccessRequest, error) {
	args := m.Called(ctx, requestID, resolver, decision, response)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *MockLedger) StatusFor(ctx context.Context, documentID string, requesterID int64) (*model.AccessRequest, error) {
	args := m.Called(ctx, documentID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *MockLedger) ListForDocument(ctx context.Context, documentID string, viewer model.Actor, status model.RequestStatus, limit, offset int) (*service.AccessRequestListResult, error) {
	args := m.Called(ctx, documentID, viewer, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessRequestListResult), args.Error(1)
}

func (m *MockLedger) ListMine(ctx context.Context, requester model.Actor, limit, offset int) (*service.AccessRequestListResult, error) {
	args := m.Called(ctx, requester, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessRequestListResult), args.Error(1)
}
