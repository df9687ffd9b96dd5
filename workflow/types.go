/*
Package workflow implements the leave-request lifecycle: working-day duration,
submission validation, the multi-party approval state machine, the balance
ledger, and the role capability gate.

DESIGN PRINCIPLES:
 1. Purity: nothing in this package performs I/O or reads ambient state.
    Actors, balances, and "today" are always explicit parameters.
 2. Precision: day balances use decimal.Decimal (backends send fractional
    allowances such as 12.5 days; float64 would drift).
 3. Two-phase mutation: state-changing operations are planned here and applied
    by the caller only after the backend confirms (see the engine package).

SEE ALSO:
  - calendar.go: Date and WorkingDays
  - machine.go:  approval state machine
  - ledger.go:   balance mutation on approval/cancellation
  - gate.go:     role capability checks
*/
package workflow

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROLES
// =============================================================================

// Role is the numeric role identifier used on the wire.
type Role int

const (
	RoleAdmin    Role = 1
	RoleEmployee Role = 2
	RoleManager  Role = 3
	RoleIntern   Role = 4
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleEmployee:
		return "Employee"
	case RoleManager:
		return "Manager"
	case RoleIntern:
		return "Intern"
	default:
		return "Unknown"
	}
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	return r >= RoleAdmin && r <= RoleIntern
}

// =============================================================================
// USERS
// =============================================================================

// User is an account as the backend describes it. ManagerID is a weak
// reference: zero means "no manager" (Managers and Admins normally have none).
type User struct {
	ID        int
	Name      string
	Email     string
	Role      Role
	ManagerID int
}

// HasManager reports whether the user routes approvals through a manager.
func (u User) HasManager() bool { return u.ManagerID != 0 }

// IsDirectReportOf reports whether u's manager is the given user.
func (u User) IsDirectReportOf(manager User) bool {
	return u.HasManager() && u.ManagerID == manager.ID
}

// =============================================================================
// LEAVE TYPES AND BALANCES
// =============================================================================

// LeaveType is an admin-defined category of leave.
type LeaveType struct {
	ID               int
	Name             string
	RequiresApproval bool
	IsBalanceBased   bool
}

// LeaveBalance is one (user, type, year) allowance row. Mutated only by the
// ledger as a side effect of approval or cancellation, never by submission.
type LeaveBalance struct {
	ID        int
	UserID    int
	TypeID    int
	Year      int
	TotalDays decimal.Decimal
	UsedDays  decimal.Decimal
}

// AvailableDays is the derived remainder, total minus used.
func (b LeaveBalance) AvailableDays() decimal.Decimal {
	return b.TotalDays.Sub(b.UsedDays)
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// Status is the closed set of request states.
type Status string

const (
	StatusPending       Status = "Pending"
	StatusAwaitingAdmin Status = "Awaiting_Admin_Approval"
	StatusApproved      Status = "Approved"
	StatusRejected      Status = "Rejected"
	StatusCancelled     Status = "Cancelled"
)

// Terminal reports whether no approval transition can follow. Approved is
// terminal for approvers but remains cancellable by the owner until the
// start date, which CanCancel handles separately.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// ApprovalDuration is the working-day threshold above which a request needs
// both a Manager and an Admin sign-off.
const ApprovalDuration = 5

// LeaveRequest is a leave application through its lifecycle.
// RequiredApprovals is fixed at creation from the duration rule and never
// changes afterwards.
type LeaveRequest struct {
	ID                int
	UserID            int
	TypeID            int
	StartDate         Date
	EndDate           Date
	Reason            string
	Status            Status
	RequiredApprovals int
	AppliedAt         time.Time
	ProcessedByID     int
	ProcessedAt       time.Time
}

// Duration is the request's working-day span.
func (r LeaveRequest) Duration() int {
	return WorkingDays(r.StartDate, r.EndDate)
}

// =============================================================================
// APPROVAL AUDIT RECORDS
// =============================================================================

// ApprovalAction is what an approver did to a request.
type ApprovalAction string

const (
	ActionApproved ApprovalAction = "Approved"
	ActionRejected ApprovalAction = "Rejected"
)

// LeaveApproval is one append-only audit record per approver action.
// Records are never mutated; a request accrues at most RequiredApprovals
// of them.
type LeaveApproval struct {
	ID         int
	LeaveID    int
	ApproverID int
	Action     ApprovalAction
	Comments   string
	ApprovedAt time.Time
}
