package workflow_test

import (
	"testing"

	"github.com/attendly/leavecore/workflow"
	"github.com/stretchr/testify/assert"
)

func TestCan_CapabilityTable(t *testing.T) {
	cases := []struct {
		actor workflow.User
		cap   workflow.Capability
		want  bool
	}{
		{employee, workflow.CapApplyLeave, true},
		{intern, workflow.CapApplyLeave, true},
		{manager, workflow.CapApplyLeave, true},
		{admin, workflow.CapApplyLeave, false}, // admins administer, they don't apply

		{manager, workflow.CapViewApprovals, true},
		{admin, workflow.CapViewApprovals, true},
		{employee, workflow.CapViewApprovals, false},
		{intern, workflow.CapViewApprovals, false},

		{admin, workflow.CapManageUsers, true},
		{manager, workflow.CapManageUsers, false},
		{admin, workflow.CapManageLeaveTypes, true},
		{employee, workflow.CapManageLeaveTypes, false},

		{manager, workflow.CapViewTeam, true},
		{admin, workflow.CapViewTeam, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, workflow.Can(tc.actor, tc.cap),
			"%s / %s", tc.actor.Role, tc.cap)
	}
}

func TestCanEditRole_WhitelistedPromotionsOnly(t *testing.T) {
	// Intern -> Employee and Employee -> Manager are the only legal edits.
	assert.True(t, workflow.CanEditRole(admin, intern, workflow.RoleEmployee))
	assert.True(t, workflow.CanEditRole(admin, employee, workflow.RoleManager))

	// No demotions, no admin involvement, no skipping levels.
	assert.False(t, workflow.CanEditRole(admin, intern, workflow.RoleManager))
	assert.False(t, workflow.CanEditRole(admin, employee, workflow.RoleIntern))
	assert.False(t, workflow.CanEditRole(admin, manager, workflow.RoleEmployee))
	assert.False(t, workflow.CanEditRole(admin, employee, workflow.RoleAdmin))
	assert.False(t, workflow.CanEditRole(admin, admin, workflow.RoleEmployee))

	// Only admins hold the pen.
	assert.False(t, workflow.CanEditRole(manager, intern, workflow.RoleEmployee))
}

func TestCanCancel_OwnershipAndWindow(t *testing.T) {
	req := workflow.LeaveRequest{
		ID:        700,
		UserID:    employee.ID,
		StartDate: monday,
		EndDate:   wednesday,
		Status:    workflow.StatusPending,
	}

	assert.True(t, workflow.CanCancel(employee, req, today))
	assert.False(t, workflow.CanCancel(manager, req, today))

	req.Status = workflow.StatusApproved
	assert.True(t, workflow.CanCancel(employee, req, today), "approved with future start")
	assert.False(t, workflow.CanCancel(employee, req, monday), "approved starting today")

	req.Status = workflow.StatusAwaitingAdmin
	assert.False(t, workflow.CanCancel(employee, req, today))
}

func TestCanProcess_MirrorsEligibility(t *testing.T) {
	req := workflow.LeaveRequest{ID: 701, UserID: employee.ID, Status: workflow.StatusPending}
	assert.True(t, workflow.CanProcess(manager, employee, req))
	assert.False(t, workflow.CanProcess(admin, employee, req))

	req.Status = workflow.StatusAwaitingAdmin
	assert.True(t, workflow.CanProcess(admin, employee, req))
	assert.False(t, workflow.CanProcess(manager, employee, req))
}
