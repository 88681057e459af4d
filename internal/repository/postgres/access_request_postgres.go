package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"accreditdocs/internal/model"
	"accreditdocs/internal/repository"
)

// uniqueViolation is the SQLSTATE Postgres reports for a unique index conflict.
const uniqueViolation = "23505"

// AccessRequestPostgres is a PostgreSQL implementation of repository.AccessRequestRepository.
type AccessRequestPostgres struct {
	db *sql.DB
}

// NewAccessRequestPostgres creates a new AccessRequestPostgres repository.
func NewAccessRequestPostgres(db *sql.DB) *AccessRequestPostgres {
	return &AccessRequestPostgres{db: db}
}

var _ repository.AccessRequestRepository = (*AccessRequestPostgres)(nil)

const accessRequestColumns = `id, document_id, requester_id, status, reason, response, resolved_by, created_at, updated_at`

func scanAccessRequest(s rowScanner) (*model.AccessRequest, error) {
	var (
		r          model.AccessRequest
		resolvedBy sql.NullInt64
	)
	if err := s.Scan(
		&r.ID,
		&r.DocumentID,
		&r.RequesterID,
		&r.Status,
		&r.Reason,
		&r.Response,
		&resolvedBy,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if resolvedBy.Valid {
		v := resolvedBy.Int64
		r.ResolvedBy = &v
	}
	return &r, nil
}

// Create inserts a pending request. The partial unique index on pending pairs turns a lost race into ErrDuplicatePending.
func (r *AccessRequestPostgres) Create(ctx context.Context, req *model.AccessRequest) (*model.AccessRequest, error) {
	const q = `
		INSERT INTO access_requests (id, document_id, requester_id, status, reason, response, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + accessRequestColumns
	out, err := scanAccessRequest(r.db.QueryRowContext(ctx, q,
		req.ID,
		req.DocumentID,
		req.RequesterID,
		req.Status,
		req.Reason,
		req.Response,
		req.CreatedAt,
		req.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicatePending
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single access request by its ID.
func (r *AccessRequestPostgres) FindByID(ctx context.Context, id string) (*model.AccessRequest, error) {
	const q = `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE id = $1`
	return scanAccessRequest(r.db.QueryRowContext(ctx, q, id))
}

// Latest returns the newest request for the pair. Ties on created_at are broken by id.
func (r *AccessRequestPostgres) Latest(ctx context.Context, documentID string, requesterID int64) (*model.AccessRequest, error) {
	const q = `
		SELECT ` + accessRequestColumns + `
		FROM access_requests
		WHERE document_id = $1 AND requester_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	out, err := scanAccessRequest(r.db.QueryRowContext(ctx, q, documentID, requesterID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return out, err
}

// Resolve performs the pending-to-terminal transition as a single conditional update.
// Two concurrent resolvers cannot both succeed: the loser matches zero rows.
func (r *AccessRequestPostgres) Resolve(ctx context.Context, id string, p repository.ResolveParams) (*model.AccessRequest, error) {
	const q = `
		UPDATE access_requests
		SET status = $2, response = $3, resolved_by = $4, updated_at = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + accessRequestColumns
	out, err := scanAccessRequest(r.db.QueryRowContext(ctx, q, id, p.Status, p.Response, p.ResolvedBy, p.At))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotPending
	}
	return out, err
}

// ListByDocument pages through a document's requests, optionally filtered by status.
func (r *AccessRequestPostgres) ListByDocument(ctx context.Context, documentID string, status model.RequestStatus, pq repository.PageQuery) (*repository.PageResult[model.AccessRequest], error) {
	filter := ""
	if status.Valid() {
		filter = status.String()
	}

	var total int
	const qCount = `SELECT COUNT(*) FROM access_requests WHERE document_id = $1 AND ($2::text = '' OR status = $2::text)`
	if err := r.db.QueryRowContext(ctx, qCount, documentID, filter).Scan(&total); err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + accessRequestColumns + `
		FROM access_requests
		WHERE document_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	items, err := r.queryAccessRequests(ctx, q, documentID, filter, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.AccessRequest]{Items: items, Total: total}, nil
}

// ListByRequester pages through the requests a user has filed.
func (r *AccessRequestPostgres) ListByRequester(ctx context.Context, requesterID int64, pq repository.PageQuery) (*repository.PageResult[model.AccessRequest], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_requests WHERE requester_id = $1`, requesterID).Scan(&total); err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + accessRequestColumns + `
		FROM access_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	items, err := r.queryAccessRequests(ctx, q, requesterID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.AccessRequest]{Items: items, Total: total}, nil
}

func (r *AccessRequestPostgres) queryAccessRequests(ctx context.Context, q string, args ...any) ([]model.AccessRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AccessRequest, 0)
	for rows.Next() {
		ar, err := scanAccessRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *ar)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
