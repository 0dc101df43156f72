package service

import (
	"backend/internal/model"

	"github.com/google/uuid"
)

// Actor identifies who is performing a service call. It is derived from
// the request's JWT and passed explicitly into every mutator; there is no
// process-wide current-user state. A zero Actor means a system-initiated
// action (seeding, scheduled jobs) and is attributed as such in the audit
// log.
type Actor struct {
	ID       *uuid.UUID
	Role     string
	BranchID *uuid.UUID
	IP       string
}

func (a Actor) IsOwner() bool {
	return a.Role == model.RoleOwner
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

func (a Actor) IsCoach() bool {
	return a.Role == model.RoleCoach
}

// SameBranch reports whether the actor is scoped to the given branch.
// Owners are chain-wide and match every branch.
func (a Actor) SameBranch(branchID uuid.UUID) bool {
	if a.IsOwner() {
		return true
	}
	return a.BranchID != nil && *a.BranchID == branchID
}
