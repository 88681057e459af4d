package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"accreditdocs/internal/model"
	"accreditdocs/internal/repository"
)

// memStore is an in-memory document store and ledger table with the same guarantees as the
// Postgres schema: one pending row per pair and a conditional pending-only resolve.
type memStore struct {
	mu       sync.Mutex
	docs     map[string]model.Document
	requests map[string]model.AccessRequest
}

func newMemStore(docs ...model.Document) *memStore {
	s := &memStore{docs: map[string]model.Document{}, requests: map[string]model.AccessRequest{}}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *memStore) documents() *memDocs { return (*memDocs)(s) }
func (s *memStore) accessRequests() *memRequests { return (*memRequests)(s) }

func (s *memStore) count(status model.RequestStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Status == status {
			n++
		}
	}
	return n
}

type memDocs memStore

var _ repository.DocumentRepository = (*memDocs)(nil)

func (m *memDocs) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = *doc
	out := *doc
	return &out, nil
}

func (m *memDocs) FindByID(_ context.Context, id string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (m *memDocs) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	return m.ListByOwner(ctx, 0, pq)
}

func (m *memDocs) ListByOwner(_ context.Context, ownerID int64, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.Document, 0)
	for _, d := range m.docs {
		if ownerID == 0 || d.OwnerID == ownerID {
			items = append(items, d)
		}
	}
	return &repository.PageResult[model.Document]{Items: items, Total: len(items)}, nil
}

func (m *memDocs) UpdateName(_ context.Context, id, name string, at time.Time) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d.Name, d.UpdatedAt = name, at
	m.docs[id] = d
	return &d, nil
}

func (m *memDocs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	for k, r := range m.requests {
		if r.DocumentID == id {
			delete(m.requests, k)
		}
	}
	return nil
}

type memRequests memStore

var _ repository.AccessRequestRepository = (*memRequests)(nil)

func (m *memRequests) Create(_ context.Context, req *model.AccessRequest) (*model.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[req.DocumentID]; !ok {
		return nil, fmt.Errorf("foreign key violation on document %s", req.DocumentID)
	}
	for _, r := range m.requests {
		if r.DocumentID == req.DocumentID && r.RequesterID == req.RequesterID && r.IsPending() {
			return nil, repository.ErrDuplicatePending
		}
	}
	m.requests[req.ID] = *req
	out := *req
	return &out, nil
}

func (m *memRequests) FindByID(_ context.Context, id string) (*model.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (m *memRequests) Latest(_ context.Context, documentID string, requesterID int64) (*model.AccessRequest, error) {
	items := m.filter(func(r model.AccessRequest) bool {
		return r.DocumentID == documentID && r.RequesterID == requesterID
	})
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (m *memRequests) Resolve(_ context.Context, id string, p repository.ResolveParams) (*model.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || !r.IsPending() {
		return nil, repository.ErrNotPending
	}
	by := p.ResolvedBy
	r.Status, r.Response, r.ResolvedBy, r.UpdatedAt = p.Status, p.Response, &by, p.At
	m.requests[id] = r
	return &r, nil
}

func (m *memRequests) ListByDocument(_ context.Context, documentID string, status model.RequestStatus, _ repository.PageQuery) (*repository.PageResult[model.AccessRequest], error) {
	items := m.filter(func(r model.AccessRequest) bool {
		return r.DocumentID == documentID && (status == 0 || r.Status == status)
	})
	return &repository.PageResult[model.AccessRequest]{Items: items, Total: len(items)}, nil
}

func (m *memRequests) ListByRequester(_ context.Context, requesterID int64, _ repository.PageQuery) (*repository.PageResult[model.AccessRequest], error) {
	items := m.filter(func(r model.AccessRequest) bool { return r.RequesterID == requesterID })
	return &repository.PageResult[model.AccessRequest]{Items: items, Total: len(items)}, nil
}

// filter returns matches ordered newest first, ties broken by id, like the SQL ORDER BY.
func (m *memRequests) filter(keep func(model.AccessRequest) bool) []model.AccessRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.AccessRequest, 0)
	for _, r := range m.requests {
		if keep(r) {
			items = append(items, r)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items
}

// tickingClock advances one second per call so creation order is observable.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// sequentialIDs hands out req-0001, req-0002, ...
type sequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialIDs) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("req-%04d", s.n)
}
