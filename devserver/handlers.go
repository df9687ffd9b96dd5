package devserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/leavecore/client"
	"github.com/attendly/leavecore/devserver/store"
	"github.com/attendly/leavecore/workflow"
)

// The response types come from the client package on purpose: the devserver
// exists to exercise that client, so sharing the wire structs keeps the two
// sides of the contract from drifting.

// =============================================================================
// AUTH
// =============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user.Password != req.Password {
		// Same answer for unknown email and wrong password.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.issueToken(user.User, s.now())
	if err != nil {
		s.internalError(w, "issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, client.LoginResponse{Token: token, User: userDTO(user.User)})
}

// =============================================================================
// LEAVE TYPES AND BALANCES
// =============================================================================

func (s *Server) handleListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListLeaveTypes(r.Context())
	if err != nil {
		s.internalError(w, "list leave types", err)
		return
	}

	dtos := make([]client.LeaveTypeDTO, len(types))
	for i, t := range types {
		dtos[i] = leaveTypeDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleCreateLeaveType(w http.ResponseWriter, r *http.Request) {
	var req client.CreateLeaveTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "leave type name is required")
		return
	}

	t := workflow.LeaveType{Name: req.Name, RequiresApproval: req.RequiresApproval, IsBalanceBased: req.IsBalanceBased}
	id, err := s.store.CreateLeaveType(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusConflict, "leave type already exists")
		return
	}
	t.ID = id
	writeJSON(w, http.StatusCreated, leaveTypeDTO(t))
}

func (s *Server) handleDeleteLeaveType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteLeaveType(r.Context(), id); err != nil {
		s.internalError(w, "delete leave type", err)
		return
	}
	writeJSON(w, http.StatusOK, client.MessageResponse{Message: "leave type deleted"})
}

func (s *Server) handleMyBalances(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	balances, err := s.store.BalancesForUser(r.Context(), actor.ID)
	if err != nil {
		s.internalError(w, "load balances", err)
		return
	}

	types, err := s.typeIndex(r)
	if err != nil {
		s.internalError(w, "load leave types", err)
		return
	}

	dtos := make([]client.LeaveBalanceDTO, len(balances))
	for i, b := range balances {
		dtos[i] = balanceDTO(b, types)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// OWN LEAVE
// =============================================================================

func (s *Server) handleSubmitLeave(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !workflow.Can(actor, workflow.CapApplyLeave) {
		writeError(w, http.StatusForbidden, "this role cannot apply for leave")
		return
	}

	var req client.SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub := workflow.Submission{TypeID: req.TypeID, Reason: req.Reason}
	// Zero dates fall through to the validator's missing-field checks.
	sub.StartDate, _ = workflow.ParseDate(req.StartDate)
	sub.EndDate, _ = workflow.ParseDate(req.EndDate)

	types, err := s.store.ListLeaveTypes(r.Context())
	if err != nil {
		s.internalError(w, "load leave types", err)
		return
	}
	balances, err := s.store.BalancesForUser(r.Context(), actor.ID)
	if err != nil {
		s.internalError(w, "load balances", err)
		return
	}

	validated, err := workflow.ValidateSubmission(sub, actor, types, balances, workflow.DateOf(s.now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	leave := workflow.NewRequest(*validated, actor, s.now())
	id, err := s.store.CreateRequest(r.Context(), leave)
	if err != nil {
		s.internalError(w, "create request", err)
		return
	}
	leave.ID = id

	typeIdx, err := s.typeIndex(r)
	if err != nil {
		s.internalError(w, "load leave types", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.requestDTO(r, leave, typeIdx))
}

func (s *Server) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	requests, err := s.store.RequestsForUser(r.Context(), actor.ID)
	if err != nil {
		s.internalError(w, "load requests", err)
		return
	}
	s.writeRequestList(w, r, requests)
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := actorFrom(r)

	leave, err := s.store.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "leave request not found")
		return
	}

	plan, err := workflow.PlanCancellation(*leave, actor, workflow.DateOf(s.now()))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	wasApproved := leave.Status == workflow.StatusApproved
	plan.Apply(leave, s.now())
	if err := s.store.UpdateRequestStatus(r.Context(), leave.ID, leave.Status, 0, s.now()); err != nil {
		s.internalError(w, "update status", err)
		return
	}

	if wasApproved {
		if err := s.releaseBalance(r, *leave); err != nil {
			s.internalError(w, "release balance", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, client.StatusUpdateResponse{
		Message:   fmt.Sprintf("leave request %d cancelled", leave.ID),
		LeaveID:   leave.ID,
		NewStatus: string(leave.Status),
	})
}

// =============================================================================
// APPROVAL PROCESSING (shared by manager and admin routes)
// =============================================================================

func (s *Server) handleProcessRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := actorFrom(r)

	var body client.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	action := workflow.ApprovalAction(body.Status)
	if action != workflow.ActionApproved && action != workflow.ActionRejected {
		writeError(w, http.StatusBadRequest, "status must be Approved or Rejected")
		return
	}

	leave, err := s.store.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "leave request not found")
		return
	}
	requester, err := s.store.GetUser(r.Context(), leave.UserID)
	if err != nil {
		s.internalError(w, "load requester", err)
		return
	}

	plan, err := workflow.PlanProcess(*leave, requester.User, actor, action, "", s.now())
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	plan.Apply(leave, s.now())
	if err := s.store.UpdateRequestStatus(r.Context(), leave.ID, leave.Status, actor.ID, s.now()); err != nil {
		s.internalError(w, "update status", err)
		return
	}
	if _, err := s.store.AppendApproval(r.Context(), *plan.Audit); err != nil {
		s.internalError(w, "append approval record", err)
		return
	}

	if plan.To == workflow.StatusApproved {
		if err := s.chargeBalance(r, *leave); err != nil {
			s.internalError(w, "charge balance", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, client.StatusUpdateResponse{
		Message:   fmt.Sprintf("leave request %d %s", leave.ID, string(plan.To)),
		LeaveID:   leave.ID,
		NewStatus: string(leave.Status),
	})
}

func (s *Server) handleManagerPending(w http.ResponseWriter, r *http.Request) {
	requests, err := s.store.PendingForManager(r.Context(), actorFrom(r).ID)
	if err != nil {
		s.internalError(w, "load pending requests", err)
		return
	}
	s.writeRequestList(w, r, requests)
}

func (s *Server) handleAdminPending(w http.ResponseWriter, r *http.Request) {
	requests, err := s.store.PendingForAdmin(r.Context())
	if err != nil {
		s.internalError(w, "load pending requests", err)
		return
	}
	s.writeRequestList(w, r, requests)
}

func (s *Server) handleApprovalHistory(w http.ResponseWriter, r *http.Request) {
	approvals, err := s.store.ListApprovals(r.Context())
	if err != nil {
		s.internalError(w, "load approvals", err)
		return
	}

	dtos := make([]client.ApprovalRecordDTO, len(approvals))
	for i, a := range approvals {
		dtos[i] = client.ApprovalRecordDTO{
			ApprovalID: a.ID,
			LeaveID:    a.LeaveID,
			ApproverID: a.ApproverID,
			Action:     string(a.Action),
			Comments:   a.Comments,
			ApprovedAt: a.ApprovedAt,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// FEEDS
// =============================================================================

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	requests, err := s.store.VisibleRequests(r.Context())
	if err != nil {
		s.internalError(w, "load calendar", err)
		return
	}
	types, err := s.typeIndex(r)
	if err != nil {
		s.internalError(w, "load leave types", err)
		return
	}

	events := make([]client.CalendarEventDTO, 0, len(requests))
	for _, leave := range requests {
		user, err := s.store.GetUser(r.Context(), leave.UserID)
		if err != nil {
			continue // requester deleted; nothing to show
		}
		typeName := types[leave.TypeID].Name
		events = append(events, client.CalendarEventDTO{
			LeaveID:       leave.ID,
			Title:         fmt.Sprintf("%s - %s", user.Name, typeName),
			Start:         leave.StartDate,
			End:           leave.EndDate,
			UserName:      user.Name,
			UserEmail:     user.Email,
			LeaveTypeName: typeName,
			Status:        string(leave.Status),
		})
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleTeamBalances(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.DirectReports(r.Context(), actorFrom(r).ID)
	if err != nil {
		s.internalError(w, "load team", err)
		return
	}
	types, err := s.typeIndex(r)
	if err != nil {
		s.internalError(w, "load leave types", err)
		return
	}

	members := make([]client.TeamMemberDTO, 0, len(reports))
	for _, member := range reports {
		balances, err := s.store.BalancesForUser(r.Context(), member.ID)
		if err != nil {
			s.internalError(w, "load member balances", err)
			return
		}
		details := make([]client.BalanceDetailDTO, len(balances))
		for i, b := range balances {
			details[i] = client.BalanceDetailDTO{
				TypeID:        b.TypeID,
				TypeName:      types[b.TypeID].Name,
				TotalDays:     b.TotalDays,
				UsedDays:      b.UsedDays,
				AvailableDays: b.AvailableDays(),
			}
		}
		members = append(members, client.TeamMemberDTO{
			UserID:   member.ID,
			Name:     member.Name,
			Email:    member.Email,
			RoleID:   int(member.Role),
			RoleName: member.Role.String(),
			Balances: details,
		})
	}
	writeJSON(w, http.StatusOK, members)
}

// =============================================================================
// USER ADMINISTRATION
// =============================================================================

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	roleID := 0
	if v := r.URL.Query().Get("role_id"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "role_id must be numeric")
			return
		}
		roleID = parsed
	}

	users, err := s.store.ListUsers(r.Context(), roleID)
	if err != nil {
		s.internalError(w, "list users", err)
		return
	}
	types, err := s.typeIndex(r)
	if err != nil {
		s.internalError(w, "load leave types", err)
		return
	}

	dtos := make([]client.UserDTO, len(users))
	for i, u := range users {
		dto := userDTO(u.User)
		balances, err := s.store.BalancesForUser(r.Context(), u.ID)
		if err != nil {
			s.internalError(w, "load user balances", err)
			return
		}
		for _, b := range balances {
			dto.Balances = append(dto.Balances, client.BalanceDetailDTO{
				TypeID:        b.TypeID,
				TypeName:      types[b.TypeID].Name,
				TotalDays:     b.TotalDays,
				UsedDays:      b.UsedDays,
				AvailableDays: b.AvailableDays(),
			})
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req client.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}
	role := workflow.Role(req.RoleID)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "unknown role_id")
		return
	}

	rec := store.UserRecord{
		User:     workflow.User{Name: req.Name, Email: req.Email, Role: role},
		Password: req.Password,
	}
	if req.ManagerID != nil {
		rec.ManagerID = *req.ManagerID
	}

	id, err := s.store.CreateUser(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	rec.User.ID = id
	writeJSON(w, http.StatusCreated, userDTO(rec.User))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	target, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	var req client.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newRole := workflow.Role(req.RoleID)
	if newRole != target.Role && !workflow.CanEditRole(actorFrom(r), target.User, newRole) {
		writeError(w, http.StatusForbidden, "role transition not permitted")
		return
	}

	updated := *target
	updated.Name = req.Name
	updated.Email = req.Email
	updated.Role = newRole
	updated.ManagerID = 0
	if req.ManagerID != nil {
		updated.ManagerID = *req.ManagerID
	}

	if err := s.store.UpdateUser(r.Context(), updated); err != nil {
		s.internalError(w, "update user", err)
		return
	}
	writeJSON(w, http.StatusOK, userDTO(updated.User))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id == actorFrom(r).ID {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		s.internalError(w, "delete user", err)
		return
	}
	writeJSON(w, http.StatusOK, client.MessageResponse{Message: "user deleted"})
}

// =============================================================================
// BALANCE SIDE EFFECTS
// =============================================================================

// chargeBalance applies the approval charge for balance-based types.
func (s *Server) chargeBalance(r *http.Request, leave workflow.LeaveRequest) error {
	leaveType, err := s.store.GetLeaveType(r.Context(), leave.TypeID)
	if err != nil || !leaveType.IsBalanceBased {
		return err
	}

	bal, err := s.store.GetBalance(r.Context(), leave.UserID, leave.TypeID, leave.StartDate.Year())
	if errors.Is(err, sql.ErrNoRows) {
		return nil // no allowance row; validation already allowed it through
	}
	if err != nil {
		return err
	}

	charged := workflow.ApplyApproval(*bal, leave)
	return s.store.SetUsedDays(r.Context(), bal.ID, charged.UsedDays)
}

// releaseBalance reverses the charge when an approved request is cancelled.
func (s *Server) releaseBalance(r *http.Request, leave workflow.LeaveRequest) error {
	leaveType, err := s.store.GetLeaveType(r.Context(), leave.TypeID)
	if err != nil || !leaveType.IsBalanceBased {
		return err
	}

	bal, err := s.store.GetBalance(r.Context(), leave.UserID, leave.TypeID, leave.StartDate.Year())
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	released, err := workflow.ApplyCancellation(*bal, leave)
	if err != nil {
		return err // integrity violation: surface as a 500, never clamp
	}
	return s.store.SetUsedDays(r.Context(), bal.ID, released.UsedDays)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func userDTO(u workflow.User) client.UserDTO {
	dto := client.UserDTO{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		RoleID: int(u.Role),
	}
	if u.ManagerID != 0 {
		managerID := u.ManagerID
		dto.ManagerID = &managerID
	}
	return dto
}

func leaveTypeDTO(t workflow.LeaveType) client.LeaveTypeDTO {
	return client.LeaveTypeDTO{
		TypeID:           t.ID,
		Name:             t.Name,
		RequiresApproval: t.RequiresApproval,
		IsBalanceBased:   t.IsBalanceBased,
	}
}

func balanceDTO(b workflow.LeaveBalance, types map[int]workflow.LeaveType) client.LeaveBalanceDTO {
	dto := client.LeaveBalanceDTO{
		BalanceID: b.ID,
		UserID:    b.UserID,
		TypeID:    b.TypeID,
		Year:      b.Year,
		TotalDays: b.TotalDays,
		UsedDays:  b.UsedDays,
	}
	if t, ok := types[b.TypeID]; ok {
		dto.LeaveType = &client.LeaveTypeRef{TypeID: t.ID, Name: t.Name}
	}
	return dto
}

// requestDTO builds the full request payload with embedded type and user refs.
func (s *Server) requestDTO(r *http.Request, leave workflow.LeaveRequest, types map[int]workflow.LeaveType) client.LeaveRequestDTO {
	dto := client.LeaveRequestDTO{
		LeaveID:           leave.ID,
		UserID:            leave.UserID,
		TypeID:            leave.TypeID,
		StartDate:         leave.StartDate,
		EndDate:           leave.EndDate,
		Reason:            leave.Reason,
		Status:            string(leave.Status),
		RequiredApprovals: leave.RequiredApprovals,
		AppliedAt:         leave.AppliedAt,
	}
	if leave.ProcessedByID != 0 {
		processedBy := leave.ProcessedByID
		processedAt := leave.ProcessedAt
		dto.ProcessedByID = &processedBy
		dto.ProcessedAt = &processedAt
	}
	if t, ok := types[leave.TypeID]; ok {
		dto.LeaveType = &client.LeaveTypeRef{TypeID: t.ID, Name: t.Name}
	}
	if user, err := s.store.GetUser(r.Context(), leave.UserID); err == nil {
		u := userDTO(user.User)
		dto.User = &u
	}
	return dto
}

func (s *Server) writeRequestList(w http.ResponseWriter, r *http.Request, requests []workflow.LeaveRequest) {
	types, err := s.typeIndex(r)
	if err != nil {
		s.internalError(w, "load leave types", err)
		return
	}
	dtos := make([]client.LeaveRequestDTO, len(requests))
	for i, leave := range requests {
		dtos[i] = s.requestDTO(r, leave, types)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) typeIndex(r *http.Request) (map[int]workflow.LeaveType, error) {
	types, err := s.store.ListLeaveTypes(r.Context())
	if err != nil {
		return nil, err
	}
	idx := make(map[int]workflow.LeaveType, len(types))
	for _, t := range types {
		idx[t.ID] = t
	}
	return idx, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// writeWorkflowError maps workflow rejections onto the HTTP contract.
func writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, workflow.ErrAlreadyProcessed), errors.Is(err, workflow.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case workflow.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	s.logger.Error("handler failure", slog.String("action", action), slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, client.MessageResponse{Message: message})
}
