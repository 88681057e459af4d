package repository

import (
	"context"
	"errors"
	"time"

	"accreditdocs/internal/model"
)

var (
	// ErrDuplicatePending is returned by Create when the pair already has a pending request.
	ErrDuplicatePending = errors.New("pending request already exists for document and requester")
	// ErrNotPending is returned by Resolve when the row left the pending state before the update ran.
	ErrNotPending = errors.New("access request is not pending")
)

// ResolveParams carries the outcome written by AccessRequestRepository.Resolve.
type ResolveParams struct {
	Status     model.RequestStatus
	Response   string
	ResolvedBy int64
	At         time.Time
}

// AccessRequestRepository persists the access request ledger.
type AccessRequestRepository interface {
	// Create inserts a pending request. It returns ErrDuplicatePending on the pair's unique index.
	Create(ctx context.Context, req *model.AccessRequest) (*model.AccessRequest, error)

	// FindByID returns sql.ErrNoRows for an unknown ID.
	FindByID(ctx context.Context, id string) (*model.AccessRequest, error)

	// Latest returns the most recently created request for the pair, or nil when there is none.
	Latest(ctx context.Context, documentID string, requesterID int64) (*model.AccessRequest, error)

	// Resolve moves a pending request to p.Status. It updates only while the row is still pending
	// and returns ErrNotPending when it was not.
	Resolve(ctx context.Context, id string, p ResolveParams) (*model.AccessRequest, error)

	// ListByDocument returns requests filed against a document, newest first.
	// A zero status matches every status.
	ListByDocument(ctx context.Context, documentID string, status model.RequestStatus, pq PageQuery) (*PageResult[model.AccessRequest], error)

	// ListByRequester returns the requests a user has filed, newest first.
	ListByRequester(ctx context.Context, requesterID int64, pq PageQuery) (*PageResult[model.AccessRequest], error)
}
