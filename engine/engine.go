/*
Package engine orchestrates the leave workflow against the backend.

Every mutating operation follows the same two-phase shape:

 1. PLAN: run the pure workflow checks (validation, transition legality,
    eligibility) locally, so a request that cannot succeed never leaves
    the machine.
 2. CONFIRM: call the backend. Only a confirmed success changes local
    state, and the state adopted is the one the backend reports, even
    when it contradicts the local plan; on such a conflict the engine
    re-fetches rather than trusting either side.

Failures are never retried here. Auth rejections (401/403) tear the session
down immediately; everything else is reported to the caller verbatim.
*/
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/attendly/leavecore/client"
	"github.com/attendly/leavecore/session"
	"github.com/attendly/leavecore/workflow"
)

// Engine binds a session, the backend client, and the pure workflow rules.
type Engine struct {
	client *client.Client
	store  session.Store
	logger *slog.Logger
	now    func() time.Time

	current session.Session
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine and restores any stored session. The client's token
// provider should be wired to Token so requests always carry the live token.
func New(c *client.Client, store session.Store, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		client: c,
		store:  store,
		logger: logger.With(slog.String("component", "engine")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if s, err := store.Load(); err == nil {
		e.current = s
	}
	return e
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// Token returns the live bearer token; wire this into client.New.
func (e *Engine) Token() string { return e.current.Token }

// Client exposes the underlying backend client for surfaces the engine does
// not wrap, such as user administration. Auth teardown does not run for calls
// made through it.
func (e *Engine) Client() *client.Client { return e.client }

// Session returns the current session value.
func (e *Engine) Session() session.Session { return e.current }

// LoggedIn reports whether a usable session exists.
func (e *Engine) LoggedIn() bool {
	return e.current.Active() && !e.current.Expired(e.now())
}

// Login authenticates and persists the returned session.
func (e *Engine) Login(ctx context.Context, email, password string) (workflow.User, error) {
	resp, err := e.client.Login(ctx, email, password)
	if err != nil {
		return workflow.User{}, err
	}

	e.current = session.Session{Token: resp.Token, User: resp.User.ToDomain()}
	if err := e.store.Save(e.current); err != nil {
		// The login itself succeeded; a persistence failure only costs the
		// next restart a fresh login.
		e.logger.Warn("failed to persist session", slog.Any("error", err))
	}
	return e.current.User, nil
}

// Logout tears the session down locally. The backend keeps no session state
// beyond the token, so there is nothing to call.
func (e *Engine) Logout() error {
	e.current = session.Session{}
	return e.store.Clear()
}

// observe inspects an operation error and tears the session down when the
// backend rejected our token. The error always propagates.
func (e *Engine) observe(err error) error {
	if err != nil && client.IsAuthError(err) {
		e.logger.Info("auth rejected, clearing session")
		e.current = session.Session{}
		if clearErr := e.store.Clear(); clearErr != nil {
			e.logger.Warn("failed to clear session store", slog.Any("error", clearErr))
		}
	}
	return err
}

// =============================================================================
// SUBMISSION
// =============================================================================

// SubmitLeave validates the submission against fresh types and balances, then
// submits it. Validation failures are local and typed; nothing reaches the
// backend unless the request could succeed.
func (e *Engine) SubmitLeave(ctx context.Context, sub workflow.Submission) (workflow.LeaveRequest, error) {
	actor := e.current.User
	if !workflow.Can(actor, workflow.CapApplyLeave) {
		return workflow.LeaveRequest{}, workflow.ErrForbidden
	}

	types, err := e.client.LeaveTypes(ctx)
	if err != nil {
		return workflow.LeaveRequest{}, e.observe(err)
	}
	balances, err := e.client.MyBalances(ctx)
	if err != nil {
		return workflow.LeaveRequest{}, e.observe(err)
	}

	domainTypes := make([]workflow.LeaveType, len(types))
	for i, t := range types {
		domainTypes[i] = t.ToDomain()
	}
	domainBalances := make([]workflow.LeaveBalance, len(balances))
	for i, b := range balances {
		domainBalances[i] = b.ToDomain()
	}

	today := workflow.DateOf(e.now())
	if _, err := workflow.ValidateSubmission(sub, actor, domainTypes, domainBalances, today); err != nil {
		return workflow.LeaveRequest{}, err
	}

	created, err := e.client.SubmitLeave(ctx, client.SubmitLeaveRequest{
		TypeID:    sub.TypeID,
		StartDate: sub.StartDate.String(),
		EndDate:   sub.EndDate.String(),
		Reason:    sub.Reason,
	})
	if err != nil {
		return workflow.LeaveRequest{}, e.observe(err)
	}
	return created.ToDomain(), nil
}

// =============================================================================
// CANCELLATION
// =============================================================================

// CancelLeave cancels one of the session user's requests. The transition is
// planned locally first; the request is only marked Cancelled after the
// backend confirms, and the backend's answer wins on disagreement.
func (e *Engine) CancelLeave(ctx context.Context, req workflow.LeaveRequest) (workflow.LeaveRequest, error) {
	today := workflow.DateOf(e.now())
	plan, err := workflow.PlanCancellation(req, e.current.User, today)
	if err != nil {
		return req, err
	}

	resp, err := e.client.CancelMyRequest(ctx, req.ID)
	if err != nil {
		// Nothing applied locally: the request keeps its previous status.
		return req, e.observe(err)
	}

	if workflow.Status(resp.NewStatus) != plan.To {
		// Backend authority: someone processed the request concurrently.
		// Re-fetch so local state matches whatever it settled on.
		e.logger.Warn("cancellation conflict, reconciling",
			slog.Int("leave_id", req.ID),
			slog.String("planned", string(plan.To)),
			slog.String("actual", resp.NewStatus),
		)
		return e.reconcileOwn(ctx, req)
	}

	plan.Apply(&req, e.now())
	return req, nil
}

// reconcileOwn re-fetches the user's history and returns the authoritative
// copy of the given request.
func (e *Engine) reconcileOwn(ctx context.Context, req workflow.LeaveRequest) (workflow.LeaveRequest, error) {
	mine, err := e.client.MyRequests(ctx)
	if err != nil {
		return req, e.observe(err)
	}
	for _, dto := range mine {
		if dto.LeaveID == req.ID {
			return dto.ToDomain(), nil
		}
	}
	return req, fmt.Errorf("request %d vanished during reconciliation", req.ID)
}

// =============================================================================
// APPROVAL PROCESSING
// =============================================================================

// PendingApprovals returns the approval queue for the session user's role.
func (e *Engine) PendingApprovals(ctx context.Context) ([]client.LeaveRequestDTO, error) {
	actor := e.current.User
	if !workflow.Can(actor, workflow.CapViewApprovals) {
		return nil, workflow.ErrForbidden
	}

	var (
		queue []client.LeaveRequestDTO
		err   error
	)
	if actor.Role == workflow.RoleAdmin {
		queue, err = e.client.AdminPendingRequests(ctx)
	} else {
		queue, err = e.client.ManagerPendingRequests(ctx)
	}
	return queue, e.observe(err)
}

// ProcessApproval approves or rejects a request as the session user. The
// requester must accompany the request so eligibility can be checked locally;
// approval queues include it. The resulting status is whatever the backend
// reports.
func (e *Engine) ProcessApproval(ctx context.Context, req workflow.LeaveRequest, requester workflow.User, action workflow.ApprovalAction, comments string) (workflow.Status, error) {
	actor := e.current.User
	if _, err := workflow.PlanProcess(req, requester, actor, action, comments, e.now()); err != nil {
		return req.Status, err
	}

	var (
		resp *client.StatusUpdateResponse
		err  error
	)
	if actor.Role == workflow.RoleAdmin {
		resp, err = e.client.AdminUpdateStatus(ctx, req.ID, string(action))
	} else {
		resp, err = e.client.ManagerUpdateStatus(ctx, req.ID, string(action))
	}
	if err != nil {
		return req.Status, e.observe(err)
	}
	return workflow.Status(resp.NewStatus), nil
}

// =============================================================================
// READS
// =============================================================================

// Balances returns the session user's balances as domain values.
func (e *Engine) Balances(ctx context.Context) ([]workflow.LeaveBalance, error) {
	dtos, err := e.client.MyBalances(ctx)
	if err != nil {
		return nil, e.observe(err)
	}
	out := make([]workflow.LeaveBalance, len(dtos))
	for i, d := range dtos {
		out[i] = d.ToDomain()
	}
	return out, nil
}

// History returns the session user's leave requests.
func (e *Engine) History(ctx context.Context) ([]client.LeaveRequestDTO, error) {
	dtos, err := e.client.MyRequests(ctx)
	return dtos, e.observe(err)
}

// LeaveTypes returns the available leave types.
func (e *Engine) LeaveTypes(ctx context.Context) ([]workflow.LeaveType, error) {
	dtos, err := e.client.LeaveTypes(ctx)
	if err != nil {
		return nil, e.observe(err)
	}
	out := make([]workflow.LeaveType, len(dtos))
	for i, d := range dtos {
		out[i] = d.ToDomain()
	}
	return out, nil
}

// Calendar returns the org-wide leave availability feed.
func (e *Engine) Calendar(ctx context.Context) ([]client.CalendarEventDTO, error) {
	events, err := e.client.CalendarAvailability(ctx)
	return events, e.observe(err)
}

// Team returns the manager's direct reports with their balances.
func (e *Engine) Team(ctx context.Context) ([]client.TeamMemberDTO, error) {
	if !workflow.Can(e.current.User, workflow.CapViewTeam) {
		return nil, workflow.ErrForbidden
	}
	members, err := e.client.TeamBalances(ctx)
	return members, e.observe(err)
}

// ApprovalHistory returns the append-only audit feed.
func (e *Engine) ApprovalHistory(ctx context.Context) ([]client.ApprovalRecordDTO, error) {
	records, err := e.client.ApprovalHistory(ctx)
	return records, e.observe(err)
}
