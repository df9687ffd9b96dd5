/*
dto.go - Wire types for the leave backend's JSON contract

The backend's field names (snake_case ids, numeric roles, string statuses) are
fixed; these types mirror them exactly and convert to the domain model at the
edge. Decimal day counts use decimal.Decimal because the backend sometimes
serializes them as strings.
*/
package client

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/attendly/leavecore/workflow"
)

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	UserID    int    `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	RoleID    int    `json:"role_id"`
	ManagerID *int   `json:"manager_id,omitempty"`

	// Populated by the admin user listing.
	Balances []BalanceDetailDTO `json:"balances,omitempty"`
}

// ToDomain converts the wire user to the workflow model.
func (d UserDTO) ToDomain() workflow.User {
	u := workflow.User{
		ID:    d.UserID,
		Name:  d.Name,
		Email: d.Email,
		Role:  workflow.Role(d.RoleID),
	}
	if d.ManagerID != nil {
		u.ManagerID = *d.ManagerID
	}
	return u
}

type CreateUserRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	RoleID    int    `json:"role_id"`
	ManagerID *int   `json:"manager_id,omitempty"`
}

type UpdateUserRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	RoleID    int    `json:"role_id"`
	ManagerID *int   `json:"manager_id,omitempty"`
}

// =============================================================================
// LEAVE TYPES AND BALANCES
// =============================================================================

type LeaveTypeDTO struct {
	TypeID           int    `json:"type_id"`
	Name             string `json:"name"`
	RequiresApproval bool   `json:"requires_approval"`
	IsBalanceBased   bool   `json:"is_balance_based"`
}

func (d LeaveTypeDTO) ToDomain() workflow.LeaveType {
	return workflow.LeaveType{
		ID:               d.TypeID,
		Name:             d.Name,
		RequiresApproval: d.RequiresApproval,
		IsBalanceBased:   d.IsBalanceBased,
	}
}

type CreateLeaveTypeRequest struct {
	Name             string `json:"name"`
	RequiresApproval bool   `json:"requires_approval"`
	IsBalanceBased   bool   `json:"is_balance_based"`
}

type LeaveTypeRef struct {
	TypeID int    `json:"type_id"`
	Name   string `json:"name"`
}

type LeaveBalanceDTO struct {
	BalanceID int             `json:"balance_id"`
	UserID    int             `json:"user_id"`
	TypeID    int             `json:"type_id"`
	Year      int             `json:"year"`
	TotalDays decimal.Decimal `json:"total_days"`
	UsedDays  decimal.Decimal `json:"used_days"`
	LeaveType *LeaveTypeRef   `json:"leaveType,omitempty"`
}

func (d LeaveBalanceDTO) ToDomain() workflow.LeaveBalance {
	return workflow.LeaveBalance{
		ID:        d.BalanceID,
		UserID:    d.UserID,
		TypeID:    d.TypeID,
		Year:      d.Year,
		TotalDays: d.TotalDays,
		UsedDays:  d.UsedDays,
	}
}

// BalanceDetailDTO is the flattened balance shape used by the team and admin
// listings.
type BalanceDetailDTO struct {
	TypeID        int             `json:"type_id"`
	TypeName      string          `json:"type_name"`
	TotalDays     decimal.Decimal `json:"total_days"`
	UsedDays      decimal.Decimal `json:"used_days"`
	AvailableDays decimal.Decimal `json:"available_days"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type SubmitLeaveRequest struct {
	TypeID    int    `json:"type_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

type LeaveRequestDTO struct {
	LeaveID           int           `json:"leave_id"`
	UserID            int           `json:"user_id"`
	TypeID            int           `json:"type_id"`
	StartDate         workflow.Date `json:"start_date"`
	EndDate           workflow.Date `json:"end_date"`
	Reason            string        `json:"reason"`
	Status            string        `json:"status"`
	RequiredApprovals int           `json:"required_approvals"`
	AppliedAt         time.Time     `json:"applied_at"`
	ProcessedByID     *int          `json:"processed_by_id,omitempty"`
	ProcessedAt       *time.Time    `json:"processed_at,omitempty"`
	LeaveType         *LeaveTypeRef `json:"leaveType,omitempty"`
	User              *UserDTO      `json:"user,omitempty"`
}

func (d LeaveRequestDTO) ToDomain() workflow.LeaveRequest {
	r := workflow.LeaveRequest{
		ID:                d.LeaveID,
		UserID:            d.UserID,
		TypeID:            d.TypeID,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		Reason:            d.Reason,
		Status:            workflow.Status(d.Status),
		RequiredApprovals: d.RequiredApprovals,
		AppliedAt:         d.AppliedAt,
	}
	if d.ProcessedByID != nil {
		r.ProcessedByID = *d.ProcessedByID
	}
	if d.ProcessedAt != nil {
		r.ProcessedAt = *d.ProcessedAt
	}
	return r
}

// UpdateStatusRequest is the approver action body, `{"status": "Approved"}`.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// StatusUpdateResponse confirms a mutation; newStatus is the authoritative
// state the backend settled on, which local state must adopt.
type StatusUpdateResponse struct {
	Message   string `json:"message"`
	LeaveID   int    `json:"leaveId"`
	NewStatus string `json:"newStatus"`
}

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// =============================================================================
// FEEDS
// =============================================================================

type ApprovalRecordDTO struct {
	ApprovalID int       `json:"approval_id"`
	LeaveID    int       `json:"leave_id"`
	ApproverID int       `json:"approver_id"`
	Action     string    `json:"action"`
	Comments   string    `json:"comments,omitempty"`
	ApprovedAt time.Time `json:"approved_at"`
}

type CalendarEventDTO struct {
	LeaveID       int           `json:"leave_id"`
	Title         string        `json:"title"`
	Start         workflow.Date `json:"start"`
	End           workflow.Date `json:"end"`
	UserName      string        `json:"userName"`
	UserEmail     string        `json:"userEmail"`
	LeaveTypeName string        `json:"leaveTypeName"`
	Status        string        `json:"status"`
}

type TeamMemberDTO struct {
	UserID   int                `json:"user_id"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	RoleID   int                `json:"role_id"`
	RoleName string             `json:"role_name"`
	Balances []BalanceDetailDTO `json:"balances"`
}

// MessageResponse is the generic `{"message": ...}` acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
