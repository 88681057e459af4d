package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of an AccessRequest.
// The zero value is not a valid status; repositories treat it as "any" when filtering.
type RequestStatus uint8

const (
	StatusPending RequestStatus = iota + 1
	StatusApproved
	StatusRejected
)

var statusNames = map[RequestStatus]string{
	StatusPending:  "pending",
	StatusApproved: "approved",
	StatusRejected: "rejected",
}

func (s RequestStatus) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("RequestStatus(%d)", uint8(s))
}

// Valid reports whether s is one of the three known statuses.
func (s RequestStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseRequestStatus converts the persisted form back into a RequestStatus.
func ParseRequestStatus(v string) (RequestStatus, error) {
	for s, n := range statusNames {
		if n == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown request status %q", v)
}

func (s RequestStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid request status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *RequestStatus) UnmarshalText(b []byte) error {
	v, err := ParseRequestStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value implements driver.Valuer.
func (s RequestStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid request status %d", uint8(s))
	}
	return s.String(), nil
}

// Scan implements sql.Scanner.
func (s *RequestStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into RequestStatus", src)
	}
}

// Decision is what a resolver chooses for a pending request.
type Decision uint8

const (
	DecisionApprove Decision = iota + 1
	DecisionReject
)

// Status returns the terminal status the decision leads to, or false for an unknown decision.
func (d Decision) Status() (RequestStatus, bool) {
	switch d {
	case DecisionApprove:
		return StatusApproved, true
	case DecisionReject:
		return StatusRejected, true
	}
	return 0, false
}

func (d Decision) String() string {
	switch d {
	case DecisionApprove:
		return "approve"
	case DecisionReject:
		return "reject"
	}
	return fmt.Sprintf("Decision(%d)", uint8(d))
}

// AccessRequest records a non-owner asking to download a document, and its outcome.
type AccessRequest struct {
	ID          string        `json:"id"`
	DocumentID  string        `json:"document_id"`
	RequesterID int64         `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	Reason      string        `json:"reason"`
	Response    string        `json:"response,omitempty"`
	ResolvedBy  *int64        `json:"resolved_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (r *AccessRequest) IsPending() bool  { return r != nil && r.Status == StatusPending }
func (r *AccessRequest) IsApproved() bool { return r != nil && r.Status == StatusApproved }
func (r *AccessRequest) IsRejected() bool { return r != nil && r.Status == StatusRejected }
