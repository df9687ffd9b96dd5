/*
machine.go - Approval state machine

STATES:

	Pending ----manager approves (1 needed)----> Approved
	Pending ----manager approves (2 needed)----> Awaiting_Admin_Approval
	Awaiting_Admin_Approval --admin approves---> Approved
	Pending | Awaiting_Admin_Approval --reject-> Rejected
	Pending --------------owner cancels--------> Cancelled
	Approved --owner cancels before start------> Cancelled

Requests from users with no manager (including Managers themselves) route to
the Admin at the Pending stage; an Admin approval there completes the chain
in one step.

Everything here is a pure computation over explicit inputs. Plan* functions
return a Transition describing the move without touching the request; callers
apply it only once the backend has confirmed the mutation, so a failed network
call never leaves local state half-changed.
*/
package workflow

import "time"

// =============================================================================
// TRANSITIONS
// =============================================================================

// Transition is a computed, not-yet-applied state change.
type Transition struct {
	From  Status
	To    Status
	Audit *LeaveApproval // set for approver actions, nil for cancellations
}

// Apply commits the transition to the request. Approver actions also stamp
// who processed it and when.
func (t Transition) Apply(req *LeaveRequest, at time.Time) {
	req.Status = t.To
	if t.Audit != nil {
		req.ProcessedByID = t.Audit.ApproverID
		req.ProcessedAt = at
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

// NewRequest builds the Pending request a validated submission becomes. The
// ID stays zero until the backend assigns one.
func NewRequest(v ValidatedRequest, requester User, appliedAt time.Time) LeaveRequest {
	return LeaveRequest{
		UserID:            requester.ID,
		TypeID:            v.TypeID,
		StartDate:         v.StartDate,
		EndDate:           v.EndDate,
		Reason:            v.Reason,
		Status:            StatusPending,
		RequiredApprovals: v.RequiredApprovals,
		AppliedAt:         appliedAt,
	}
}

// =============================================================================
// APPROVER ELIGIBILITY
// =============================================================================

// RoutesToAdmin reports whether a requester's Pending stage is handled by the
// Admin rather than a manager: no manager assigned, or the requester is a
// Manager applying as an employee.
func RoutesToAdmin(requester User) bool {
	return !requester.HasManager() || requester.Role == RoleManager
}

// EligibleApprover reports whether actor may process the request right now.
// Managers act on Pending requests from their direct reports; Admins act on
// anything awaiting admin approval, plus Pending requests that route to them.
func EligibleApprover(actor, requester User, req LeaveRequest) bool {
	switch actor.Role {
	case RoleManager:
		return req.Status == StatusPending &&
			requester.IsDirectReportOf(actor) &&
			!RoutesToAdmin(requester)
	case RoleAdmin:
		if req.Status == StatusAwaitingAdmin {
			return true
		}
		return req.Status == StatusPending && RoutesToAdmin(requester)
	default:
		return false
	}
}

// =============================================================================
// PROCESS (APPROVE / REJECT)
// =============================================================================

// PlanProcess computes the transition for an approver acting on a request.
// Terminal requests fail with AlreadyProcessed, ineligible actors with
// Forbidden; neither path produces an audit record.
func PlanProcess(req LeaveRequest, requester User, actor User, action ApprovalAction, comments string, at time.Time) (Transition, error) {
	if req.Status.Terminal() {
		return Transition{}, &TransitionError{From: req.Status, Action: string(action)}
	}
	if req.Status != StatusPending && req.Status != StatusAwaitingAdmin {
		return Transition{}, &TransitionError{From: req.Status, Action: string(action)}
	}
	if !EligibleApprover(actor, requester, req) {
		return Transition{}, ErrForbidden
	}

	next, err := nextStatus(req, actor, action)
	if err != nil {
		return Transition{}, err
	}

	return Transition{
		From: req.Status,
		To:   next,
		Audit: &LeaveApproval{
			LeaveID:    req.ID,
			ApproverID: actor.ID,
			Action:     action,
			Comments:   comments,
			ApprovedAt: at,
		},
	}, nil
}

func nextStatus(req LeaveRequest, actor User, action ApprovalAction) (Status, error) {
	if action == ActionRejected {
		return StatusRejected, nil
	}
	if action != ActionApproved {
		return "", &TransitionError{From: req.Status, Action: string(action)}
	}

	if req.Status == StatusAwaitingAdmin {
		return StatusApproved, nil
	}

	// Pending stage. An Admin only reaches it when the request routes to
	// them, and their sign-off satisfies the whole chain.
	if actor.Role == RoleAdmin {
		return StatusApproved, nil
	}
	if req.RequiredApprovals > 1 {
		return StatusAwaitingAdmin, nil
	}
	return StatusApproved, nil
}

// =============================================================================
// CANCELLATION
// =============================================================================

// PlanCancellation computes the owner's cancellation of a request. Pending
// cancels unconditionally; Approved cancels only strictly before the start
// date. Everything else is rejected without mutation.
func PlanCancellation(req LeaveRequest, actor User, today Date) (Transition, error) {
	if actor.ID != req.UserID {
		return Transition{}, ErrForbidden
	}

	switch req.Status {
	case StatusPending:
		return Transition{From: req.Status, To: StatusCancelled}, nil
	case StatusApproved:
		if today.Before(req.StartDate) {
			return Transition{From: req.Status, To: StatusCancelled}, nil
		}
		return Transition{}, &TransitionError{From: req.Status, Action: "cancel"}
	default:
		return Transition{}, &TransitionError{From: req.Status, Action: "cancel"}
	}
}
