package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/leavecore/client"
)

func staticToken(tok string) client.TokenProvider {
	return func() string { return tok }
}

func newTestClient(t *testing.T, handler http.Handler, token string) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.New(srv.URL, staticToken(token), nil)
}

func TestLogin_SendsCredentialsWithoutAuthHeader(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "asha@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-abc",
			"user":  map[string]any{"user_id": 10, "name": "Asha", "email": "asha@example.com", "role_id": 2, "manager_id": 20},
		})
	})

	c := newTestClient(t, handler, "")
	resp, err := c.Login(context.Background(), "asha@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", resp.Token)

	u := resp.User.ToDomain()
	assert.Equal(t, 10, u.ID)
	assert.Equal(t, 20, u.ManagerID)
}

func TestAuthedCall_CarriesBearerToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"type_id":1,"name":"Casual Leave","requires_approval":true,"is_balance_based":true}]`))
	})

	c := newTestClient(t, handler, "tok-abc")
	types, err := c.LeaveTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Casual Leave", types[0].Name)
}

func TestAuthedCall_NoTokenFailsLocally(t *testing.T) {
	// GIVEN: no stored token
	// THEN: the call fails with ErrUnauthorized before touching the network
	reached := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })

	c := newTestClient(t, handler, "")
	_, err := c.MyBalances(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, reached)
}

func TestRejectedToken_MapsToUnauthorized(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	})

	c := newTestClient(t, handler, "stale")
	_, err := c.MyRequests(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsAuthError(err))

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "token expired", apiErr.Message)
}

func TestBackendError_SurfacesMessageWithFallback(t *testing.T) {
	// With a backend message: surface it. Without: fall back to status text.
	withMessage := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "insufficient balance"})
	})
	c := newTestClient(t, withMessage, "tok")
	_, err := c.SubmitLeave(context.Background(), client.SubmitLeaveRequest{})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "insufficient balance", apiErr.Message)
	assert.False(t, client.IsAuthError(err))

	bare := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	c = newTestClient(t, bare, "tok")
	_, err = c.SubmitLeave(context.Background(), client.SubmitLeaveRequest{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusText(http.StatusConflict), apiErr.Message)
}

func TestNetworkFailure_WrapsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	c := client.New(srv.URL, staticToken("tok"), nil)
	_, err := c.LeaveTypes(context.Background())
	assert.ErrorIs(t, err, client.ErrTransport)
}

func TestBalances_DecodesStringDecimals(t *testing.T) {
	// The backend serializes decimal columns as strings; numbers also appear.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"balance_id":1,"user_id":10,"type_id":1,"year":2025,
			"total_days":"12.50","used_days":2,
			"leaveType":{"type_id":1,"name":"Casual Leave"}}]`))
	})

	c := newTestClient(t, handler, "tok")
	balances, err := c.MyBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 1)

	bal := balances[0].ToDomain()
	assert.True(t, bal.TotalDays.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, bal.AvailableDays().Equal(decimal.RequireFromString("10.5")))
}

func TestCancel_UsesPathAndPutMethod(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/leaves/my/42/cancel", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"message": "cancelled", "leaveId": 42, "newStatus": "Cancelled"})
	})

	c := newTestClient(t, handler, "tok")
	resp, err := c.CancelMyRequest(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, resp.LeaveID)
	assert.Equal(t, "Cancelled", resp.NewStatus)
}

func TestAdminListUsers_RoleFilter(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("role_id"))
		w.Write([]byte(`[{"user_id":20,"name":"Mohan","email":"mohan@example.com","role_id":3}]`))
	})

	c := newTestClient(t, handler, "tok")
	users, err := c.AdminListUsers(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.False(t, users[0].ToDomain().HasManager())
}
