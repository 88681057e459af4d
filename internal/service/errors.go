package service

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package for a caller mistake wraps exactly one of
// them, so transports can map with errors.Is and show the text after the category prefix.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
)

var (
	ErrIDRequired      = fmt.Errorf("%w: id is required", ErrInvalidArgument)
	ErrReaderNil       = fmt.Errorf("%w: reader is nil", ErrInvalidArgument)
	ErrNameRequired    = fmt.Errorf("%w: name is required", ErrInvalidArgument)
	ErrReasonRequired  = fmt.Errorf("%w: reason is required", ErrInvalidArgument)
	ErrOwnDocument     = fmt.Errorf("%w: you own this document and do not need to request access", ErrInvalidArgument)
	ErrUnknownDecision = fmt.Errorf("%w: decision must be approve or reject", ErrInvalidArgument)

	ErrPendingExists  = fmt.Errorf("%w: you already have a pending request", ErrConflict)
	ErrAlreadyGranted = fmt.Errorf("%w: access has already been granted", ErrConflict)

	ErrDocumentNotFound = fmt.Errorf("%w: document not found", ErrNotFound)
	ErrRequestNotFound  = fmt.Errorf("%w: access request not found", ErrNotFound)

	ErrNotResolver     = fmt.Errorf("%w: not authorized to decide this request", ErrForbidden)
	ErrNotOwner        = fmt.Errorf("%w: only the owner can change this document", ErrForbidden)
	ErrDeleteForbidden = fmt.Errorf("%w: only the owner or an administrator can delete this document", ErrForbidden)
	ErrListForbidden   = fmt.Errorf("%w: only the owner or an administrator can view requests for this document", ErrForbidden)
	ErrDownloadDenied  = fmt.Errorf("%w: download requires ownership or an approved access request", ErrForbidden)

	ErrNotPending = fmt.Errorf("%w: request has already been decided", ErrInvalidState)
)

func tooLong(field string, max int) error {
	return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidArgument, field, max)
}
