package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"accreditdocs/internal/cache"
	"accreditdocs/internal/logger"
	"accreditdocs/internal/model"
	"accreditdocs/internal/repository"
)

// DefaultMaxTextLen bounds request reasons and resolver responses.
const DefaultMaxTextLen = 500

// AccessRequestListResult is the service-level DTO for paginated access requests.
type AccessRequestListResult struct {
	Items []model.AccessRequest `json:"data"`
	Total int                   `json:"total"`
}

// StatusReader answers "what is the latest request for this pair". Gate depends only on this.
type StatusReader interface {
	// StatusFor returns the most recently created request for the pair, or nil when none exists.
	StatusFor(ctx context.Context, documentID string, requesterID int64) (*model.AccessRequest, error)
}

// Ledger records who asked for access to which document, and the outcome.
type Ledger interface {
	StatusReader

	// Submit files a pending request on behalf of requester.
	Submit(ctx context.Context, documentID string, requester model.Actor, reason string) (*model.AccessRequest, error)

	// Resolve moves a pending request to approved or rejected. Only the document owner may decide,
	// plus administrators when the admin override is enabled.
	Resolve(ctx context.Context, requestID string, resolver model.Actor, decision model.Decision, response string) (*model.AccessRequest, error)

	// ListForDocument lists requests filed against a document for its owner or an administrator.
	// A zero status lists every status.
	ListForDocument(ctx context.Context, documentID string, viewer model.Actor, status model.RequestStatus, limit, offset int) (*AccessRequestListResult, error)

	// ListMine lists the requests requester has filed, newest first.
	ListMine(ctx context.Context, requester model.Actor, limit, offset int) (*AccessRequestListResult, error)
}

// LedgerMetrics counts ledger transitions. A nil *LedgerMetrics records nothing.
type LedgerMetrics struct {
	transitions *prometheus.CounterVec
}

// NewLedgerMetrics registers access_request_transitions_total on reg.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_request_transitions_total",
			Help: "Access requests entering each status",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(m.transitions)
	}
	return m
}

func (m *LedgerMetrics) observe(s model.RequestStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(s.String()).Inc()
}

// LedgerOptions tunes NewLedgerService. Zero values pick the defaults.
type LedgerOptions struct {
	MaxReasonLen  int
	AdminOverride bool
	Metrics       *LedgerMetrics
	Now           func() time.Time
	NewID         func() string
}

type ledgerService struct {
	docs     repository.DocumentRepository
	requests repository.AccessRequestRepository
	cache    *cache.StatusCache
	opts     LedgerOptions
}

// NewLedgerService constructs a Ledger. statusCache may be nil.
func NewLedgerService(docs repository.DocumentRepository, requests repository.AccessRequestRepository, statusCache *cache.StatusCache, opts LedgerOptions) Ledger {
	if opts.MaxReasonLen <= 0 {
		opts.MaxReasonLen = DefaultMaxTextLen
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	return &ledgerService{docs: docs, requests: requests, cache: statusCache, opts: opts}
}

func (s *ledgerService) Submit(ctx context.Context, documentID string, requester model.Actor, reason string) (*model.AccessRequest, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if utf8.RuneCountInString(reason) > s.opts.MaxReasonLen {
		return nil, tooLong("reason", s.opts.MaxReasonLen)
	}

	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnedBy(requester.ID) {
		return nil, ErrOwnDocument
	}

	latest, err := s.requests.Latest(ctx, documentID, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup latest request: %w", err)
	}
	switch {
	case latest.IsPending():
		return nil, ErrPendingExists
	case latest.IsApproved():
		return nil, ErrAlreadyGranted
	}

	now := s.opts.Now()
	created, err := s.requests.Create(ctx, &model.AccessRequest{
		ID:          s.opts.NewID(),
		DocumentID:  documentID,
		RequesterID: requester.ID,
		Status:      model.StatusPending,
		Reason:      reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			return nil, ErrPendingExists
		}
		return nil, fmt.Errorf("create access request: %w", err)
	}

	s.opts.Metrics.observe(model.StatusPending)
	logger.FromContext(ctx).Info("access_request_submitted",
		zap.String("access_request_id", created.ID),
		zap.String("document_id", documentID),
		zap.Int64("requester_id", requester.ID),
	)
	return created, nil
}

func (s *ledgerService) Resolve(ctx context.Context, requestID string, resolver model.Actor, decision model.Decision, response string) (*model.AccessRequest, error) {
	if requestID == "" {
		return nil, ErrIDRequired
	}
	target, ok := decision.Status()
	if !ok {
		return nil, ErrUnknownDecision
	}
	response = strings.TrimSpace(response)
	if utf8.RuneCountInString(response) > s.opts.MaxReasonLen {
		return nil, tooLong("response", s.opts.MaxReasonLen)
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("find access request: %w", err)
	}
	doc, err := s.findDocument(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if !s.mayResolve(doc, resolver) {
		return nil, ErrNotResolver
	}
	if !req.IsPending() {
		return nil, ErrNotPending
	}

	resolved, err := s.requests.Resolve(ctx, requestID, repository.ResolveParams{
		Status:     target,
		Response:   response,
		ResolvedBy: resolver.ID,
		At:         s.opts.Now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, ErrNotPending
		}
		return nil, fmt.Errorf("resolve access request: %w", err)
	}

	s.cache.PutApproved(ctx, resolved)
	s.opts.Metrics.observe(resolved.Status)
	logger.FromContext(ctx).Info("access_request_resolved",
		zap.String("access_request_id", resolved.ID),
		zap.String("document_id", resolved.DocumentID),
		zap.Int64("requester_id", resolved.RequesterID),
		zap.Int64("resolver_id", resolver.ID),
		zap.Stringer("status", resolved.Status),
	)
	return resolved, nil
}

func (s *ledgerService) StatusFor(ctx context.Context, documentID string, requesterID int64) (*model.AccessRequest, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	if req, ok := s.cache.GetApproved(ctx, documentID, requesterID); ok {
		return req, nil
	}
	latest, err := s.requests.Latest(ctx, documentID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("lookup latest request: %w", err)
	}
	s.cache.PutApproved(ctx, latest)
	return latest, nil
}

func (s *ledgerService) ListForDocument(ctx context.Context, documentID string, viewer model.Actor, status model.RequestStatus, limit, offset int) (*AccessRequestListResult, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.OwnedBy(viewer.ID) && !viewer.IsAdmin() {
		return nil, ErrListForbidden
	}
	res, err := s.requests.ListByDocument(ctx, documentID, status, page(limit, offset))
	if err != nil {
		return nil, err
	}
	return &AccessRequestListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *ledgerService) ListMine(ctx context.Context, requester model.Actor, limit, offset int) (*AccessRequestListResult, error) {
	res, err := s.requests.ListByRequester(ctx, requester.ID, page(limit, offset))
	if err != nil {
		return nil, err
	}
	return &AccessRequestListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *ledgerService) mayResolve(doc *model.Document, resolver model.Actor) bool {
	if doc.OwnedBy(resolver.ID) {
		return true
	}
	return s.opts.AdminOverride && resolver.IsAdmin()
}

func (s *ledgerService) findDocument(ctx context.Context, id string) (*model.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}
