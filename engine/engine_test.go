package engine_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/leavecore/client"
	"github.com/attendly/leavecore/devserver"
	"github.com/attendly/leavecore/devserver/store"
	"github.com/attendly/leavecore/engine"
	"github.com/attendly/leavecore/session"
	"github.com/attendly/leavecore/workflow"
)

var testNow = time.Date(2025, time.March, 7, 9, 0, 0, 0, time.UTC)

// testBackend is a seeded devserver the engines under test talk to.
type testBackend struct {
	ts *httptest.Server
	st *store.Store

	managerID  int
	employeeID int
	casualID   int
}

func newBackend(t *testing.T) *testBackend {
	t.Helper()

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := devserver.New(st, "test-secret", logger).WithClock(func() time.Time { return testNow })
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	b := &testBackend{ts: ts, st: st}
	ctx := context.Background()

	_, err = st.CreateUser(ctx, store.UserRecord{
		User:     workflow.User{Name: "Admin", Email: "admin@test", Role: workflow.RoleAdmin},
		Password: "password",
	})
	require.NoError(t, err)

	b.managerID, err = st.CreateUser(ctx, store.UserRecord{
		User:     workflow.User{Name: "Manager", Email: "manager@test", Role: workflow.RoleManager},
		Password: "password",
	})
	require.NoError(t, err)

	b.employeeID, err = st.CreateUser(ctx, store.UserRecord{
		User:     workflow.User{Name: "Employee", Email: "employee@test", Role: workflow.RoleEmployee, ManagerID: b.managerID},
		Password: "password",
	})
	require.NoError(t, err)

	b.casualID, err = st.CreateLeaveType(ctx, workflow.LeaveType{Name: "Casual Leave", RequiresApproval: true, IsBalanceBased: true})
	require.NoError(t, err)

	_, err = st.CreateBalance(ctx, workflow.LeaveBalance{
		UserID: b.employeeID, TypeID: b.casualID, Year: 2025,
		TotalDays: decimal.NewFromInt(10), UsedDays: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	return b
}

// newEngine wires a fresh engine to the backend. The client's token provider
// closes over the engine so it always carries the live session token.
func (b *testBackend) newEngine(t *testing.T) *engine.Engine {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var eng *engine.Engine
	c := client.New(b.ts.URL, func() string { return eng.Token() }, logger)
	eng = engine.New(c, &session.MemoryStore{}, logger, engine.WithClock(func() time.Time { return testNow }))
	return eng
}

func (b *testBackend) loginAs(t *testing.T, email string) *engine.Engine {
	t.Helper()
	eng := b.newEngine(t)
	_, err := eng.Login(context.Background(), email, "password")
	require.NoError(t, err)
	return eng
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

func TestLoginPersistsSession(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := &session.MemoryStore{}
	var eng *engine.Engine
	c := client.New(b.ts.URL, func() string { return eng.Token() }, logger)
	eng = engine.New(c, sessions, logger, engine.WithClock(func() time.Time { return testNow }))

	require.False(t, eng.LoggedIn())

	// WHEN logging in
	user, err := eng.Login(ctx, "employee@test", "password")
	require.NoError(t, err)

	// THEN the session is live and persisted
	assert.True(t, eng.LoggedIn())
	assert.Equal(t, b.employeeID, user.ID)

	saved, err := sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, eng.Token(), saved.Token)

	// AND a second engine over the same store restores it without a login
	var eng2 *engine.Engine
	c2 := client.New(b.ts.URL, func() string { return eng2.Token() }, logger)
	eng2 = engine.New(c2, sessions, logger, engine.WithClock(func() time.Time { return testNow }))
	assert.True(t, eng2.LoggedIn())
}

func TestLogoutClearsSession(t *testing.T) {
	b := newBackend(t)
	eng := b.loginAs(t, "employee@test")

	require.NoError(t, eng.Logout())

	assert.False(t, eng.LoggedIn())
	_, err := eng.History(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestAuthRejectionTearsSessionDown(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	eng := b.loginAs(t, "employee@test")

	// GIVEN the account disappears behind the engine's back
	require.NoError(t, b.st.DeleteUser(ctx, b.employeeID))

	// WHEN any call hits the backend
	_, err := eng.History(ctx)

	// THEN the 401 propagates and the session is gone
	require.Error(t, err)
	assert.True(t, client.IsAuthError(err))
	assert.False(t, eng.LoggedIn())
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmitLeaveThroughEngine(t *testing.T) {
	b := newBackend(t)
	eng := b.loginAs(t, "employee@test")

	req, err := eng.SubmitLeave(context.Background(), workflow.Submission{
		TypeID:    b.casualID,
		StartDate: workflow.NewDate(2025, time.March, 10),
		EndDate:   workflow.NewDate(2025, time.March, 12),
		Reason:    "family visit",
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusPending, req.Status)
	assert.Equal(t, 3, req.Duration())
	assert.Equal(t, 1, req.RequiredApprovals)
}

func TestSubmitLeaveFailsLocallyOnBadInput(t *testing.T) {
	b := newBackend(t)
	eng := b.loginAs(t, "employee@test")

	// An oversized request is rejected by local validation; the backend never
	// sees it, so the history stays empty.
	_, err := eng.SubmitLeave(context.Background(), workflow.Submission{
		TypeID:    b.casualID,
		StartDate: workflow.NewDate(2025, time.March, 10),
		EndDate:   workflow.NewDate(2025, time.March, 28),
		Reason:    "too long",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrInsufficientBalance)

	var ib *workflow.InsufficientBalanceError
	require.ErrorAs(t, err, &ib)
	assert.Equal(t, 15, ib.Requested)

	mine, err := eng.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mine)
}

// =============================================================================
// APPROVAL PROCESSING
// =============================================================================

func TestApprovalRoundTrip(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	employee := b.loginAs(t, "employee@test")
	manager := b.loginAs(t, "manager@test")

	// GIVEN a pending 3-day request
	req, err := employee.SubmitLeave(ctx, workflow.Submission{
		TypeID:    b.casualID,
		StartDate: workflow.NewDate(2025, time.March, 10),
		EndDate:   workflow.NewDate(2025, time.March, 12),
		Reason:    "family visit",
	})
	require.NoError(t, err)

	// WHEN the manager pulls the queue and approves
	queue, err := manager.PendingApprovals(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.Equal(t, req.ID, queue[0].LeaveID)
	require.NotNil(t, queue[0].User)

	status, err := manager.ProcessApproval(ctx, queue[0].ToDomain(), queue[0].User.ToDomain(), workflow.ActionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, status)

	// THEN the requester's balance reflects the charge
	balances, err := employee.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].UsedDays.Equal(decimal.NewFromInt(5)))
	assert.True(t, balances[0].AvailableDays().Equal(decimal.NewFromInt(5)))
}

func TestProcessApprovalRejectedLocallyForIneligibleActor(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	employee := b.loginAs(t, "employee@test")

	req, err := employee.SubmitLeave(ctx, workflow.Submission{
		TypeID:    b.casualID,
		StartDate: workflow.NewDate(2025, time.March, 10),
		EndDate:   workflow.NewDate(2025, time.March, 12),
		Reason:    "family visit",
	})
	require.NoError(t, err)

	// The requester cannot approve their own leave; the plan fails before any
	// network call, and the session survives.
	requester := workflow.User{ID: b.employeeID, Role: workflow.RoleEmployee, ManagerID: b.managerID}
	_, err = employee.ProcessApproval(ctx, req, requester, workflow.ActionApproved, "")
	assert.ErrorIs(t, err, workflow.ErrForbidden)
	assert.True(t, employee.LoggedIn())
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestCancelLeaveAdoptsBackendStatus(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	eng := b.loginAs(t, "employee@test")

	req, err := eng.SubmitLeave(ctx, workflow.Submission{
		TypeID:    b.casualID,
		StartDate: workflow.NewDate(2025, time.March, 10),
		EndDate:   workflow.NewDate(2025, time.March, 12),
		Reason:    "family visit",
	})
	require.NoError(t, err)

	cancelled, err := eng.CancelLeave(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCancelled, cancelled.Status)
}

func TestCancelConflictReconciles(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	employee := b.loginAs(t, "employee@test")
	manager := b.loginAs(t, "manager@test")

	req, err := employee.SubmitLeave(ctx, workflow.Submission{
		TypeID:    b.casualID,
		StartDate: workflow.NewDate(2025, time.March, 10),
		EndDate:   workflow.NewDate(2025, time.March, 12),
		Reason:    "family visit",
	})
	require.NoError(t, err)

	// GIVEN the manager rejects while the employee still holds the Pending copy
	_, err = manager.ProcessApproval(ctx, req, workflow.User{ID: b.employeeID, Role: workflow.RoleEmployee, ManagerID: b.managerID}, workflow.ActionRejected, "")
	require.NoError(t, err)

	// WHEN the employee cancels that stale copy
	_, err = employee.CancelLeave(ctx, req)

	// THEN the backend refuses and the error surfaces; nothing is retried
	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.StatusCode)
}
