/*
gate.go - Role capability gate

One table answers "may this actor do this", so views and the CLI query it
instead of re-deriving role rules inline. Checks are pure; the actor comes in
as a parameter, never from ambient session state.
*/
package workflow

// Capability is a gated action.
type Capability string

const (
	CapApplyLeave       Capability = "apply_leave"
	CapViewApprovals    Capability = "view_approvals"
	CapManageUsers      Capability = "manage_users"
	CapManageLeaveTypes Capability = "manage_leave_types"
	CapViewTeam         Capability = "view_team"
)

var roleCapabilities = map[Capability][]Role{
	CapApplyLeave:       {RoleEmployee, RoleIntern, RoleManager},
	CapViewApprovals:    {RoleManager, RoleAdmin},
	CapManageUsers:      {RoleAdmin},
	CapManageLeaveTypes: {RoleAdmin},
	CapViewTeam:         {RoleManager},
}

// Can reports whether the actor's role grants the capability. Capabilities
// that depend on a target (processing a specific request, cancelling,
// editing a role) have their own checks below.
func Can(actor User, cap Capability) bool {
	for _, r := range roleCapabilities[cap] {
		if actor.Role == r {
			return true
		}
	}
	return false
}

// CanProcess reports whether actor may approve or reject the request now.
func CanProcess(actor User, requester User, req LeaveRequest) bool {
	return EligibleApprover(actor, requester, req)
}

// CanCancel reports whether actor may cancel the request today: they own it,
// and it is Pending or Approved with a start date still in the future.
func CanCancel(actor User, req LeaveRequest, today Date) bool {
	if actor.ID != req.UserID {
		return false
	}
	switch req.Status {
	case StatusPending:
		return true
	case StatusApproved:
		return today.Before(req.StartDate)
	default:
		return false
	}
}

// CanEditRole reports whether actor may move target to newRole. Only the
// promotions Intern->Employee and Employee->Manager are allowed; Admin is
// immutable and unreachable through this path.
func CanEditRole(actor User, target User, newRole Role) bool {
	if actor.Role != RoleAdmin {
		return false
	}
	switch {
	case target.Role == RoleIntern && newRole == RoleEmployee:
		return true
	case target.Role == RoleEmployee && newRole == RoleManager:
		return true
	default:
		return false
	}
}
