package workflow

import "github.com/shopspring/decimal"

// =============================================================================
// SUBMISSION VALIDATION - §4.2-style pre-flight, no side effects
// =============================================================================

// Submission is what a requester fills in before anything exists server-side.
type Submission struct {
	TypeID    int
	StartDate Date
	EndDate   Date
	Reason    string
}

// ValidatedRequest is a submission that passed every local check, annotated
// with the resolved type, its working-day duration, and the approval chain
// length the duration rule dictates.
type ValidatedRequest struct {
	Submission
	Type              LeaveType
	RequestedDays     int
	RequiredApprovals int
}

// RequiredApprovalsFor applies the duration rule: up to ApprovalDuration
// working days needs one sign-off, anything longer needs manager and admin.
func RequiredApprovalsFor(workingDays int) int {
	if workingDays > ApprovalDuration {
		return 2
	}
	return 1
}

// ValidateSubmission runs the pre-submission checks in order, stopping at the
// first failure. It never mutates balances; charging happens in the ledger
// only after the backend confirms an approval.
//
// Check order: required fields, date sanity, type resolution, then balance
// sufficiency for balance-based types.
func ValidateSubmission(sub Submission, requester User, types []LeaveType, balances []LeaveBalance, today Date) (*ValidatedRequest, error) {
	switch {
	case sub.TypeID == 0:
		return nil, &MissingFieldError{Field: "type_id"}
	case sub.StartDate.IsZero():
		return nil, &MissingFieldError{Field: "start_date"}
	case sub.EndDate.IsZero():
		return nil, &MissingFieldError{Field: "end_date"}
	case sub.Reason == "":
		return nil, &MissingFieldError{Field: "reason"}
	}

	if sub.StartDate.After(sub.EndDate) {
		return nil, &InvalidDateRangeError{Start: sub.StartDate, End: sub.EndDate, Reason: "start date after end date"}
	}
	if sub.StartDate.Before(today) {
		return nil, &InvalidDateRangeError{Start: sub.StartDate, End: sub.EndDate, Reason: "start date in the past"}
	}

	leaveType, ok := findLeaveType(types, sub.TypeID)
	if !ok {
		return nil, ErrUnknownLeaveType
	}

	requested := WorkingDays(sub.StartDate, sub.EndDate)

	if leaveType.IsBalanceBased {
		// No balance row means no allowance was granted this year.
		available := decimal.Zero
		if bal, ok := findBalance(balances, requester.ID, sub.TypeID, today.Year()); ok {
			available = bal.AvailableDays()
		}
		if decimal.NewFromInt(int64(requested)).GreaterThan(available) {
			return nil, &InsufficientBalanceError{
				TypeID:    sub.TypeID,
				Available: available,
				Requested: requested,
			}
		}
	}

	return &ValidatedRequest{
		Submission:        sub,
		Type:              leaveType,
		RequestedDays:     requested,
		RequiredApprovals: RequiredApprovalsFor(requested),
	}, nil
}

func findLeaveType(types []LeaveType, id int) (LeaveType, bool) {
	for _, t := range types {
		if t.ID == id {
			return t, true
		}
	}
	return LeaveType{}, false
}

func findBalance(balances []LeaveBalance, userID, typeID, year int) (LeaveBalance, bool) {
	for _, b := range balances {
		if b.UserID == userID && b.TypeID == typeID && b.Year == year {
			return b, true
		}
	}
	return LeaveBalance{}, false
}
