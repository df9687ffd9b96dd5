/*
Package store is the SQLite persistence behind the development server.

Decimal day counts are stored as TEXT and parsed with shopspring/decimal;
dates as "2006-01-02" TEXT; timestamps as RFC3339. The schema is auto-migrated
on New(), which is all a dev fixture needs.
*/
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/attendly/leavecore/workflow"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at path. Use ":memory:" for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL, -- dev fixture: stored as-is, never do this in production
		role_id INTEGER NOT NULL,
		manager_id INTEGER REFERENCES users(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS leave_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		requires_approval INTEGER NOT NULL DEFAULT 1,
		is_balance_based INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS leave_balances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type_id INTEGER NOT NULL REFERENCES leave_types(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		total_days TEXT NOT NULL,
		used_days TEXT NOT NULL DEFAULT '0',
		UNIQUE(user_id, type_id, year)
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type_id INTEGER NOT NULL REFERENCES leave_types(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL,
		required_approvals INTEGER NOT NULL,
		applied_at TEXT NOT NULL,
		processed_by_id INTEGER,
		processed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_requests_user ON leave_requests(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON leave_requests(status);

	-- Append-only: approvals are only ever inserted.
	CREATE TABLE IF NOT EXISTS leave_approvals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		leave_id INTEGER NOT NULL REFERENCES leave_requests(id) ON DELETE CASCADE,
		approver_id INTEGER NOT NULL,
		action TEXT NOT NULL,
		comments TEXT,
		approved_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USERS
// =============================================================================

// UserRecord is a user row including the login credential.
type UserRecord struct {
	workflow.User
	Password string
}

func (s *Store) CreateUser(ctx context.Context, u UserRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password, role_id, manager_id) VALUES (?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Password, int(u.Role), nullableID(u.ManagerID))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (s *Store) GetUser(ctx context.Context, id int) (*UserRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, role_id, manager_id FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, role_id, manager_id FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// ListUsers returns all users, or only those with the given role when
// roleID is non-zero.
func (s *Store) ListUsers(ctx context.Context, roleID int) ([]UserRecord, error) {
	query := `SELECT id, name, email, password, role_id, manager_id FROM users ORDER BY id`
	args := []any{}
	if roleID != 0 {
		query = `SELECT id, name, email, password, role_id, manager_id FROM users WHERE role_id = ? ORDER BY id`
		args = append(args, roleID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DirectReports returns the users managed by managerID.
func (s *Store) DirectReports(ctx context.Context, managerID int) ([]UserRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, password, role_id, manager_id FROM users WHERE manager_id = ? ORDER BY id`,
		managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, role_id = ?, manager_id = ? WHERE id = ?`,
		u.Name, u.Email, int(u.Role), nullableID(u.ManagerID), u.ID)
	return err
}

func (s *Store) DeleteUser(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*UserRecord, error) {
	var (
		u         UserRecord
		roleID    int
		managerID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &roleID, &managerID); err != nil {
		return nil, err
	}
	u.Role = workflow.Role(roleID)
	if managerID.Valid {
		u.ManagerID = int(managerID.Int64)
	}
	return &u, nil
}

func nullableID(id int) any {
	if id == 0 {
		return nil
	}
	return id
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (s *Store) CreateLeaveType(ctx context.Context, t workflow.LeaveType) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leave_types (name, requires_approval, is_balance_based) VALUES (?, ?, ?)`,
		t.Name, t.RequiresApproval, t.IsBalanceBased)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (s *Store) GetLeaveType(ctx context.Context, id int) (*workflow.LeaveType, error) {
	var t workflow.LeaveType
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, requires_approval, is_balance_based FROM leave_types WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.RequiresApproval, &t.IsBalanceBased)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]workflow.LeaveType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, requires_approval, is_balance_based FROM leave_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []workflow.LeaveType
	for rows.Next() {
		var t workflow.LeaveType
		if err := rows.Scan(&t.ID, &t.Name, &t.RequiresApproval, &t.IsBalanceBased); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) DeleteLeaveType(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM leave_types WHERE id = ?`, id)
	return err
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) CreateBalance(ctx context.Context, b workflow.LeaveBalance) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leave_balances (user_id, type_id, year, total_days, used_days) VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.TypeID, b.Year, b.TotalDays.String(), b.UsedDays.String())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (s *Store) BalancesForUser(ctx context.Context, userID int) ([]workflow.LeaveBalance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, type_id, year, total_days, used_days
		 FROM leave_balances WHERE user_id = ? ORDER BY type_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []workflow.LeaveBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, *b)
	}
	return balances, rows.Err()
}

func (s *Store) GetBalance(ctx context.Context, userID, typeID, year int) (*workflow.LeaveBalance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, type_id, year, total_days, used_days
		 FROM leave_balances WHERE user_id = ? AND type_id = ? AND year = ?`,
		userID, typeID, year)
	return scanBalance(row)
}

// SetUsedDays overwrites the used counter; callers compute the new value
// through the workflow ledger.
func (s *Store) SetUsedDays(ctx context.Context, balanceID int, used decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE leave_balances SET used_days = ? WHERE id = ?`, used.String(), balanceID)
	return err
}

func scanBalance(row rowScanner) (*workflow.LeaveBalance, error) {
	var (
		b           workflow.LeaveBalance
		total, used string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.TypeID, &b.Year, &total, &used); err != nil {
		return nil, err
	}
	var err error
	if b.TotalDays, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("corrupt total_days %q: %w", total, err)
	}
	if b.UsedDays, err = decimal.NewFromString(used); err != nil {
		return nil, fmt.Errorf("corrupt used_days %q: %w", used, err)
	}
	return &b, nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (s *Store) CreateRequest(ctx context.Context, r workflow.LeaveRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leave_requests
		 (user_id, type_id, start_date, end_date, reason, status, required_approvals, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.TypeID, r.StartDate.String(), r.EndDate.String(), r.Reason,
		string(r.Status), r.RequiredApprovals, r.AppliedAt.Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (s *Store) GetRequest(ctx context.Context, id int) (*workflow.LeaveRequest, error) {
	row := s.db.QueryRowContext(ctx, selectRequest+` WHERE id = ?`, id)
	return scanRequest(row)
}

func (s *Store) RequestsForUser(ctx context.Context, userID int) ([]workflow.LeaveRequest, error) {
	return s.queryRequests(ctx, selectRequest+` WHERE user_id = ? ORDER BY applied_at DESC`, userID)
}

// PendingForManager returns Pending requests from the manager's direct
// reports, excluding requesters whose approvals route straight to the admin.
func (s *Store) PendingForManager(ctx context.Context, managerID int) ([]workflow.LeaveRequest, error) {
	return s.queryRequests(ctx,
		selectRequest+` WHERE status = ? AND user_id IN
		 (SELECT id FROM users WHERE manager_id = ? AND role_id != ?)
		 ORDER BY applied_at`,
		string(workflow.StatusPending), managerID, int(workflow.RoleManager))
}

// PendingForAdmin returns requests awaiting admin sign-off plus Pending
// requests from users with no manager (or who are managers themselves).
func (s *Store) PendingForAdmin(ctx context.Context) ([]workflow.LeaveRequest, error) {
	return s.queryRequests(ctx,
		selectRequest+` WHERE status = ? OR (status = ? AND user_id IN
		 (SELECT id FROM users WHERE manager_id IS NULL OR role_id = ?))
		 ORDER BY applied_at`,
		string(workflow.StatusAwaitingAdmin), string(workflow.StatusPending), int(workflow.RoleManager))
}

// VisibleRequests returns every request that should appear on the calendar.
func (s *Store) VisibleRequests(ctx context.Context) ([]workflow.LeaveRequest, error) {
	return s.queryRequests(ctx,
		selectRequest+` WHERE status IN (?, ?, ?) ORDER BY start_date`,
		string(workflow.StatusPending), string(workflow.StatusAwaitingAdmin), string(workflow.StatusApproved))
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id int, status workflow.Status, processedBy int, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE leave_requests SET status = ?, processed_by_id = ?, processed_at = ? WHERE id = ?`,
		string(status), nullableID(processedBy), processedAt.Format(time.RFC3339), id)
	return err
}

const selectRequest = `SELECT id, user_id, type_id, start_date, end_date, reason,
	status, required_approvals, applied_at, processed_by_id, processed_at
	FROM leave_requests`

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]workflow.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []workflow.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (*workflow.LeaveRequest, error) {
	var (
		r                   workflow.LeaveRequest
		start, end, applied string
		status              string
		processedBy         sql.NullInt64
		processedAt         sql.NullString
	)
	err := row.Scan(&r.ID, &r.UserID, &r.TypeID, &start, &end, &r.Reason,
		&status, &r.RequiredApprovals, &applied, &processedBy, &processedAt)
	if err != nil {
		return nil, err
	}

	if r.StartDate, err = workflow.ParseDate(start); err != nil {
		return nil, fmt.Errorf("corrupt start_date %q: %w", start, err)
	}
	if r.EndDate, err = workflow.ParseDate(end); err != nil {
		return nil, fmt.Errorf("corrupt end_date %q: %w", end, err)
	}
	if r.AppliedAt, err = time.Parse(time.RFC3339, applied); err != nil {
		return nil, fmt.Errorf("corrupt applied_at %q: %w", applied, err)
	}
	r.Status = workflow.Status(status)
	if processedBy.Valid {
		r.ProcessedByID = int(processedBy.Int64)
	}
	if processedAt.Valid && processedAt.String != "" {
		if r.ProcessedAt, err = time.Parse(time.RFC3339, processedAt.String); err != nil {
			return nil, fmt.Errorf("corrupt processed_at %q: %w", processedAt.String, err)
		}
	}
	return &r, nil
}

// =============================================================================
// APPROVAL AUDIT LOG (append-only)
// =============================================================================

func (s *Store) AppendApproval(ctx context.Context, a workflow.LeaveApproval) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leave_approvals (leave_id, approver_id, action, comments, approved_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.LeaveID, a.ApproverID, string(a.Action), a.Comments, a.ApprovedAt.Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (s *Store) ListApprovals(ctx context.Context) ([]workflow.LeaveApproval, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, leave_id, approver_id, action, comments, approved_at
		 FROM leave_approvals ORDER BY approved_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvals []workflow.LeaveApproval
	for rows.Next() {
		var (
			a        workflow.LeaveApproval
			action   string
			comments sql.NullString
			at       string
		)
		if err := rows.Scan(&a.ID, &a.LeaveID, &a.ApproverID, &action, &comments, &at); err != nil {
			return nil, err
		}
		a.Action = workflow.ApprovalAction(action)
		a.Comments = comments.String
		if a.ApprovedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("corrupt approved_at %q: %w", at, err)
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

func (s *Store) ApprovalsForLeave(ctx context.Context, leaveID int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leave_approvals WHERE leave_id = ?`, leaveID).Scan(&n)
	return n, err
}
