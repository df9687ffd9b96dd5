package workflow

import "github.com/shopspring/decimal"

// =============================================================================
// BALANCE LEDGER - charged on approval, reversed on cancellation
// =============================================================================

// ApplyApproval charges a request's working days against the balance. Invoked
// only when a request enters Approved and its type is balance-based; the
// submission validator already guaranteed sufficiency, so this never checks
// it again (the backend is authoritative if they disagree).
func ApplyApproval(bal LeaveBalance, req LeaveRequest) LeaveBalance {
	bal.UsedDays = bal.UsedDays.Add(decimal.NewFromInt(int64(req.Duration())))
	return bal
}

// ApplyCancellation reverses the charge of a previously approved request.
// Driving used days below zero means the ledger and the request history
// disagree; that is corrupted data, so it surfaces as ErrNegativeBalance
// instead of being clamped away.
func ApplyCancellation(bal LeaveBalance, req LeaveRequest) (LeaveBalance, error) {
	next := bal.UsedDays.Sub(decimal.NewFromInt(int64(req.Duration())))
	if next.IsNegative() {
		return bal, ErrNegativeBalance
	}
	bal.UsedDays = next
	return bal, nil
}
