// Package access is the role gate: who may do what with claims.
package access

import (
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")

type Role string

const (
	RoleNone        Role = ""
	RoleLecturer    Role = "Lecturer"
	RoleCoordinator Role = "Coordinator"
	RoleManager     Role = "Manager"
	RoleHR          Role = "HR"
)

var knownRoles = []Role{RoleLecturer, RoleCoordinator, RoleManager, RoleHR}

// ParseRole is case-insensitive; anything unknown is RoleNone.
func ParseRole(s string) Role {
	s = strings.TrimSpace(s)
	for _, r := range knownRoles {
		if strings.EqualFold(s, string(r)) {
			return r
		}
	}
	return RoleNone
}

func (r Role) Valid() bool { return r != RoleNone && ParseRole(string(r)) == r }

// Reviewer reports whether the role takes part in the approval pipeline.
func (r Role) Reviewer() bool { return r == RoleCoordinator || r == RoleManager }

type Action string

const (
	ActionSubmit       Action = "submit"
	ActionApprove      Action = "approve"
	ActionReject       Action = "reject"
	ActionList         Action = "list"
	ActionViewDocument Action = "view_document"
	ActionReport       Action = "report"
	ActionDelete       Action = "delete"
)

var capabilities = map[Role]map[Action]bool{
	RoleLecturer: {
		ActionSubmit:       true,
		ActionList:         true,
		ActionViewDocument: true,
	},
	RoleCoordinator: {
		ActionApprove:      true,
		ActionReject:       true,
		ActionList:         true,
		ActionViewDocument: true,
	},
	RoleManager: {
		ActionApprove:      true,
		ActionReject:       true,
		ActionList:         true,
		ActionViewDocument: true,
	},
	RoleHR: {
		ActionList:         true,
		ActionViewDocument: true,
		ActionReport:       true,
		ActionDelete:       true,
	},
}

func Can(r Role, a Action) bool { return capabilities[r][a] }

// Principal is the caller as reported by the session collaborator.
type Principal struct {
	Role   Role
	UserID string
}

func (p Principal) Authorize(a Action) error {
	if !Can(p.Role, a) {
		return ErrUnauthorized
	}
	if p.Role == RoleLecturer && p.UserID == "" {
		return ErrUnauthorized
	}
	return nil
}

// ScopeOwner returns the owner filter a listing must use. Lecturers only ever
// see their own claims, whatever they asked for.
func (p Principal) ScopeOwner(requested string) string {
	if p.Role == RoleLecturer {
		return p.UserID
	}
	return requested
}

// CanSee reports whether the principal may read a claim owned by ownerID.
func (p Principal) CanSee(ownerID string) bool {
	if p.Role == RoleLecturer {
		return p.UserID != "" && p.UserID == ownerID
	}
	return p.Role.Valid()
}
