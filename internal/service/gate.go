package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"accreditdocs/internal/model"
	"accreditdocs/internal/repository"
)

// Gate is the single decision point for "may this user download this document now".
// Both methods only read.
type Gate interface {
	// CanDownload is true for the owner, or when the latest request for the pair is approved.
	CanDownload(ctx context.Context, userID int64, documentID string) (bool, error)

	// Badge reports the user's standing on the document for list views.
	Badge(ctx context.Context, userID int64, documentID string) (model.Badge, error)
}

type gate struct {
	docs   repository.DocumentRepository
	status StatusReader
}

// NewGate constructs a Gate over the document store and the ledger.
func NewGate(docs repository.DocumentRepository, status StatusReader) Gate {
	return &gate{docs: docs, status: status}
}

func (g *gate) CanDownload(ctx context.Context, userID int64, documentID string) (bool, error) {
	badge, err := g.Badge(ctx, userID, documentID)
	if err != nil {
		return false, err
	}
	return badge == model.BadgeOwner || badge == model.BadgeApproved, nil
}

func (g *gate) Badge(ctx context.Context, userID int64, documentID string) (model.Badge, error) {
	if documentID == "" {
		return "", ErrIDRequired
	}
	doc, err := g.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrDocumentNotFound
		}
		return "", fmt.Errorf("find document: %w", err)
	}
	if doc.OwnedBy(userID) {
		return model.BadgeOwner, nil
	}

	latest, err := g.status.StatusFor(ctx, documentID, userID)
	if err != nil {
		return "", err
	}
	switch {
	case latest.IsApproved():
		return model.BadgeApproved, nil
	case latest.IsPending():
		return model.BadgePending, nil
	case latest.IsRejected():
		return model.BadgeRejected, nil
	}
	return model.BadgeLocked, nil
}
