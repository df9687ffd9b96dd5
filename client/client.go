/*
Package client is the HTTP client for the leave backend's REST contract.

It owns JSON encoding, bearer authentication, and the error translation rules:
backend messages surface verbatim when present, 401/403 map to ErrUnauthorized
so the caller can tear the session down, and network failures wrap
ErrTransport. It performs no workflow logic and no retries; every failure goes
back to the initiating actor for an explicit decision.

Methods map one-to-one onto the backend routes:

	POST /api/auth/login                                Login
	GET  /api/leaves/types                              LeaveTypes
	GET  /api/leaves/balance                            MyBalances
	POST /api/leaves                                    SubmitLeave
	GET  /api/leaves/my                                 MyRequests
	PUT  /api/leaves/my/{id}/cancel                     CancelMyRequest
	GET  /api/manager/pending-requests                  ManagerPendingRequests
	PUT  /api/leaves/status/{id}                        ManagerUpdateStatus
	GET  /api/admin/leave-requests/approvals-needed     AdminPendingRequests
	PUT  /api/admin/leave-requests/{id}/status          AdminUpdateStatus
	GET  /api/leaves/approvals/history                  ApprovalHistory
	GET  /api/leaves/calendar/leave-availability        CalendarAvailability
	GET  /api/admin/users[?role_id=]                    AdminListUsers
	POST /api/admin/users                               AdminCreateUser
	PUT  /api/admin/users/{id}                          AdminUpdateUser
	DELETE /api/admin/users/{id}                        AdminDeleteUser
	GET  /api/admin/leave-types                         AdminListLeaveTypes
	POST /api/admin/leave-types                         AdminCreateLeaveType
	DELETE /api/admin/leave-types/{id}                  AdminDeleteLeaveType
	GET  /api/team/my-team-balances                     TeamBalances
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// TokenProvider returns the current bearer token, or "" when logged out.
type TokenProvider func() string

// Client talks to one leave backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenProvider
	logger     *slog.Logger
}

// New creates a client for the backend at baseURL. tokenProvider may return
// "" until a login succeeds; unauthenticated calls to protected routes fail
// locally with ErrUnauthorized before touching the network.
func New(baseURL string, tokenProvider TokenProvider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      tokenProvider,
		logger:     logger.With(slog.String("component", "leave_client")),
	}
}

// =============================================================================
// AUTH
// =============================================================================

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{Email: email, Password: password}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// OWN LEAVE
// =============================================================================

func (c *Client) LeaveTypes(ctx context.Context) ([]LeaveTypeDTO, error) {
	var out []LeaveTypeDTO
	return out, c.do(ctx, http.MethodGet, "/api/leaves/types", nil, &out, true)
}

func (c *Client) MyBalances(ctx context.Context) ([]LeaveBalanceDTO, error) {
	var out []LeaveBalanceDTO
	return out, c.do(ctx, http.MethodGet, "/api/leaves/balance", nil, &out, true)
}

func (c *Client) SubmitLeave(ctx context.Context, req SubmitLeaveRequest) (*LeaveRequestDTO, error) {
	var out LeaveRequestDTO
	if err := c.do(ctx, http.MethodPost, "/api/leaves", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyRequests(ctx context.Context) ([]LeaveRequestDTO, error) {
	var out []LeaveRequestDTO
	return out, c.do(ctx, http.MethodGet, "/api/leaves/my", nil, &out, true)
}

func (c *Client) CancelMyRequest(ctx context.Context, leaveID int) (*StatusUpdateResponse, error) {
	var out StatusUpdateResponse
	path := fmt.Sprintf("/api/leaves/my/%d/cancel", leaveID)
	if err := c.do(ctx, http.MethodPut, path, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// APPROVALS
// =============================================================================

func (c *Client) ManagerPendingRequests(ctx context.Context) ([]LeaveRequestDTO, error) {
	var out []LeaveRequestDTO
	return out, c.do(ctx, http.MethodGet, "/api/manager/pending-requests", nil, &out, true)
}

func (c *Client) ManagerUpdateStatus(ctx context.Context, leaveID int, status string) (*StatusUpdateResponse, error) {
	var out StatusUpdateResponse
	path := fmt.Sprintf("/api/leaves/status/%d", leaveID)
	if err := c.do(ctx, http.MethodPut, path, UpdateStatusRequest{Status: status}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminPendingRequests(ctx context.Context) ([]LeaveRequestDTO, error) {
	var out []LeaveRequestDTO
	return out, c.do(ctx, http.MethodGet, "/api/admin/leave-requests/approvals-needed", nil, &out, true)
}

func (c *Client) AdminUpdateStatus(ctx context.Context, leaveID int, status string) (*StatusUpdateResponse, error) {
	var out StatusUpdateResponse
	path := fmt.Sprintf("/api/admin/leave-requests/%d/status", leaveID)
	if err := c.do(ctx, http.MethodPut, path, UpdateStatusRequest{Status: status}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApprovalHistory(ctx context.Context) ([]ApprovalRecordDTO, error) {
	var out []ApprovalRecordDTO
	return out, c.do(ctx, http.MethodGet, "/api/leaves/approvals/history", nil, &out, true)
}

// =============================================================================
// FEEDS
// =============================================================================

func (c *Client) CalendarAvailability(ctx context.Context) ([]CalendarEventDTO, error) {
	var out []CalendarEventDTO
	return out, c.do(ctx, http.MethodGet, "/api/leaves/calendar/leave-availability", nil, &out, true)
}

func (c *Client) TeamBalances(ctx context.Context) ([]TeamMemberDTO, error) {
	var out []TeamMemberDTO
	return out, c.do(ctx, http.MethodGet, "/api/team/my-team-balances", nil, &out, true)
}

// =============================================================================
// ADMIN
// =============================================================================

// AdminListUsers lists users, optionally filtered by role (roleID 0 = all).
func (c *Client) AdminListUsers(ctx context.Context, roleID int) ([]UserDTO, error) {
	path := "/api/admin/users"
	if roleID != 0 {
		path = fmt.Sprintf("%s?role_id=%d", path, roleID)
	}
	var out []UserDTO
	return out, c.do(ctx, http.MethodGet, path, nil, &out, true)
}

func (c *Client) AdminCreateUser(ctx context.Context, req CreateUserRequest) (*UserDTO, error) {
	var out UserDTO
	if err := c.do(ctx, http.MethodPost, "/api/admin/users", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminUpdateUser(ctx context.Context, userID int, req UpdateUserRequest) (*UserDTO, error) {
	var out UserDTO
	path := fmt.Sprintf("/api/admin/users/%d", userID)
	if err := c.do(ctx, http.MethodPut, path, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminDeleteUser(ctx context.Context, userID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", userID), nil, nil, true)
}

func (c *Client) AdminListLeaveTypes(ctx context.Context) ([]LeaveTypeDTO, error) {
	var out []LeaveTypeDTO
	return out, c.do(ctx, http.MethodGet, "/api/admin/leave-types", nil, &out, true)
}

func (c *Client) AdminCreateLeaveType(ctx context.Context, req CreateLeaveTypeRequest) (*LeaveTypeDTO, error) {
	var out LeaveTypeDTO
	if err := c.do(ctx, http.MethodPost, "/api/admin/leave-types", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminDeleteLeaveType(ctx context.Context, typeID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/leave-types/%d", typeID), nil, nil, true)
}

// =============================================================================
// TRANSPORT CORE
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if authed {
		token := c.token()
		if token == "" {
			return fmt.Errorf("%s %s: no session token: %w", method, path, ErrUnauthorized)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var msg MessageResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&msg); decodeErr == nil && msg.Message != "" {
			apiErr.Message = msg.Message
		}
		c.logger.Warn("backend rejected request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}

	// Some mutations answer with an empty body; leave out zeroed then.
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w: %v", method, path, ErrTransport, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
