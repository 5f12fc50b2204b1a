package claim

import "cmcs-backend/internal/domain/access"

type transitionKey struct {
	from   Status
	action access.Action
	role   access.Role
}

var transitions = map[transitionKey]Status{
	{StatusPending, access.ActionApprove, access.RoleCoordinator}:         StatusCoordinatorApproved,
	{StatusPending, access.ActionReject, access.RoleCoordinator}:          StatusRejected,
	{StatusCoordinatorApproved, access.ActionApprove, access.RoleManager}: StatusApproved,
	{StatusCoordinatorApproved, access.ActionReject, access.RoleManager}:  StatusRejected,
}

// Next resolves the status a reviewer action leads to.
//
// noop is true when the claim already sits in the outcome the action asks for
// (approving an Approved claim, rejecting a Rejected one); callers succeed
// without writing. A claim waiting in another reviewer's stage yields
// access.ErrUnauthorized.
func Next(current Status, action access.Action, role access.Role) (to Status, noop bool, err error) {
	if to, ok := transitions[transitionKey{current, action, role}]; ok {
		return to, false, nil
	}
	if (action == access.ActionApprove && current == StatusApproved) ||
		(action == access.ActionReject && current == StatusRejected) {
		return current, true, nil
	}
	for k := range transitions {
		if k.from == current && k.action == action && k.role != role {
			return "", false, access.ErrUnauthorized
		}
	}
	return "", false, ErrInvalidTransition
}

// Stage returns the status a reviewer role works on.
func Stage(role access.Role) (Status, bool) {
	for k := range transitions {
		if k.role == role {
			return k.from, true
		}
	}
	return "", false
}
