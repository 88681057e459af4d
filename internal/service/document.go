package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"accreditdocs/internal/model"
	"accreditdocs/internal/repository"
	"accreditdocs/internal/storage"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	maxNameLen       = 255
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// Download is an open object stream. The caller must close Body.
type Download struct {
	Document *model.Document
	Body     io.ReadCloser
	Info     storage.ObjectInfo
}

// PresignedURL is a credential-free, time-limited download link.
type PresignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores the bytes under documents/<owner>/<uuid><ext>, saves metadata, and removes the
	// object again if the metadata insert fails.
	Upload(ctx context.Context, owner model.Actor, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// ListByOwner is List restricted to one owner.
	ListByOwner(ctx context.Context, ownerID int64, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Rename changes the display name. Only the owner may rename.
	Rename(ctx context.Context, actor model.Actor, id, name string) (*model.Document, error)

	// Delete removes a document from storage and the repository. Owner or administrator only.
	Delete(ctx context.Context, actor model.Actor, id string) error

	// Download opens the object after the gate allows actor to read it.
	Download(ctx context.Context, actor model.Actor, id string) (*Download, error)

	// PresignDownload returns a time-limited URL after the gate allows actor to read it.
	PresignDownload(ctx context.Context, actor model.Actor, id string) (*PresignedURL, error)
}

// DocumentOptions tunes NewDocumentService.
type DocumentOptions struct {
	PresignExpiry time.Duration
	Now           func() time.Time
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
	gate  Gate
	opts  DocumentOptions
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, gate Gate, opts DocumentOptions) DocumentService {
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = 15 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &documentService{store: store, repo: repo, gate: gate, opts: opts}
}

func (s *documentService) Upload(ctx context.Context, owner model.Actor, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	name, err := cleanName(filepath.Base(originalFilename))
	if err != nil {
		return nil, err
	}

	key := path.Join("documents", strconv.FormatInt(owner.ID, 10), uuid.New().String()+filepath.Ext(name))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": name,
			"owner-id":          strconv.FormatInt(owner.ID, 10),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	now := s.opts.Now()
	doc := &model.Document{
		ID:          uuid.New().String(),
		OwnerID:     owner.ID,
		Name:        name,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	res, err := s.repo.List(ctx, page(limit, offset))
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) (*DocumentListResult, error) {
	res, err := s.repo.ListByOwner(ctx, ownerID, page(limit, offset))
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Rename(ctx context.Context, actor model.Actor, id, name string) (*model.Document, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.OwnedBy(actor.ID) {
		return nil, ErrNotOwner
	}
	updated, err := s.repo.UpdateName(ctx, id, name, s.opts.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a document from storage, then deletes its record. Access requests cascade with the row.
func (s *documentService) Delete(ctx context.Context, actor model.Actor, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !doc.OwnedBy(actor.ID) && !actor.IsAdmin() {
		return ErrDeleteForbidden
	}
	// Storage first: if it fails the row stays and still points at the object.
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *documentService) Download(ctx context.Context, actor model.Actor, id string) (*Download, error) {
	doc, err := s.authorizedDocument(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	body, info, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return &Download{Document: doc, Body: body, Info: info}, nil
}

func (s *documentService) PresignDownload(ctx context.Context, actor model.Actor, id string) (*PresignedURL, error) {
	doc, err := s.authorizedDocument(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	expiresAt := s.opts.Now().Add(s.opts.PresignExpiry)
	u, err := s.store.PresignGet(ctx, doc.StoragePath, s.opts.PresignExpiry, doc.Name)
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}
	return &PresignedURL{URL: u, ExpiresAt: expiresAt}, nil
}

func (s *documentService) authorizedDocument(ctx context.Context, actor model.Actor, id string) (*model.Document, error) {
	ok, err := s.gate.CanDownload(ctx, actor.ID, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDownloadDenied
	}
	return s.Get(ctx, id)
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", tooLong("name", maxNameLen)
	}
	return name, nil
}

func page(limit, offset int) repository.PageQuery {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.PageQuery{Limit: limit, Offset: offset}
}
