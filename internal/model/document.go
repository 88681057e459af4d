package model

import "time"

// Document represents a stored file in the system.
// It carries json tags for the API but nothing storage-specific.
// OwnerID is set on upload and never changes afterwards.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID owns the document.
func (d *Document) OwnedBy(userID int64) bool {
	return d != nil && d.OwnerID == userID
}
