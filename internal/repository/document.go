package repository

import (
	"context"
	"time"

	"accreditdocs/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// Lookups of a missing row return sql.ErrNoRows unchanged.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a page of all documents, newest first, and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// ListByOwner is List restricted to one owner.
	ListByOwner(ctx context.Context, ownerID int64, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateName refreshes the display name and updated_at. The owner column is never written.
	UpdateName(ctx context.Context, id, name string, at time.Time) (*model.Document, error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
