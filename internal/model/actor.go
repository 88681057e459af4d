package model

import "fmt"

// Role is the identity layer's coarse permission group.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleLocalTaskForce  Role = "local_task_force"
	RoleLocalAccreditor Role = "local_accreditor"
)

// ParseRole validates a role string coming from a token or the CLI.
func ParseRole(v string) (Role, error) {
	switch r := Role(v); r {
	case RoleAdmin, RoleLocalTaskForce, RoleLocalAccreditor:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", v)
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Badge summarizes a user's standing on a document for list views.
type Badge string

const (
	BadgeOwner    Badge = "owner"
	BadgePending  Badge = "pending"
	BadgeApproved Badge = "approved"
	BadgeRejected Badge = "rejected"
	BadgeLocked   Badge = "locked"
)
