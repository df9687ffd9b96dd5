package workflow_test

import (
	"testing"

	"github.com/attendly/leavecore/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedRequest(start, end workflow.Date) workflow.LeaveRequest {
	return workflow.LeaveRequest{
		ID:        601,
		UserID:    employee.ID,
		TypeID:    casualLeave.ID,
		StartDate: start,
		EndDate:   end,
		Status:    workflow.StatusApproved,
	}
}

func TestApplyApproval_ChargesWorkingDaysOnly(t *testing.T) {
	// Mon-Sun charges 5 days: the weekend is free.
	bal := balanceFor(employee, casualLeave.ID, 10, 2)
	bal = workflow.ApplyApproval(bal, approvedRequest(monday, sunday))
	assert.True(t, bal.UsedDays.Equal(decimal.NewFromInt(7)))
	assert.True(t, bal.AvailableDays().Equal(decimal.NewFromInt(3)))
}

func TestApplyCancellation_RoundTrip(t *testing.T) {
	// Approval followed by cancellation restores used days exactly,
	// including fractional starting balances.
	bal := workflow.LeaveBalance{
		UserID:    employee.ID,
		TypeID:    casualLeave.ID,
		Year:      2025,
		TotalDays: decimal.RequireFromString("12.5"),
		UsedDays:  decimal.RequireFromString("1.5"),
	}
	req := approvedRequest(monday, wednesday)

	charged := workflow.ApplyApproval(bal, req)
	assert.True(t, charged.UsedDays.Equal(decimal.RequireFromString("4.5")))

	restored, err := workflow.ApplyCancellation(charged, req)
	require.NoError(t, err)
	assert.True(t, restored.UsedDays.Equal(bal.UsedDays))
}

func TestApplyCancellation_NegativeBalanceSurfaces(t *testing.T) {
	// GIVEN: a ledger that claims only 1 used day
	// WHEN: reversing a 3-day request
	// THEN: the integrity violation is reported, and the balance untouched
	bal := balanceFor(employee, casualLeave.ID, 10, 1)

	got, err := workflow.ApplyCancellation(bal, approvedRequest(monday, wednesday))
	require.ErrorIs(t, err, workflow.ErrNegativeBalance)
	assert.True(t, workflow.IsIntegrityError(err))
	assert.True(t, got.UsedDays.Equal(decimal.NewFromInt(1)))
}
