package devserver

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/attendly/leavecore/devserver/store"
	"github.com/attendly/leavecore/workflow"
)

// Seed loads the demo org chart into an empty store: an admin, a manager,
// two of the manager's reports, an intern, and a standard set of leave types
// with current-year balances. It is a no-op when users already exist, so
// restarting leaved against the same database is safe.
//
// Every account's password is "password".
func Seed(ctx context.Context, st *store.Store) error {
	existing, err := st.ListUsers(ctx, 0)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	types := []workflow.LeaveType{
		{Name: "Casual Leave", RequiresApproval: true, IsBalanceBased: true},
		{Name: "Sick Leave", RequiresApproval: true, IsBalanceBased: true},
		{Name: "Unpaid Leave", RequiresApproval: true, IsBalanceBased: false},
	}
	typeIDs := make([]int, len(types))
	for i, t := range types {
		if typeIDs[i], err = st.CreateLeaveType(ctx, t); err != nil {
			return fmt.Errorf("seed leave type %q: %w", t.Name, err)
		}
	}

	users := []store.UserRecord{
		{User: workflow.User{Name: "Ada Nkemelu", Email: "admin@attendly.test", Role: workflow.RoleAdmin}, Password: "password"},
		{User: workflow.User{Name: "Marta Keller", Email: "manager@attendly.test", Role: workflow.RoleManager}, Password: "password"},
	}
	ids := make([]int, 0, 5)
	for _, u := range users {
		id, err := st.CreateUser(ctx, u)
		if err != nil {
			return fmt.Errorf("seed user %q: %w", u.Email, err)
		}
		ids = append(ids, id)
	}
	managerID := ids[1]

	reports := []store.UserRecord{
		{User: workflow.User{Name: "Elio Fontaine", Email: "elio@attendly.test", Role: workflow.RoleEmployee, ManagerID: managerID}, Password: "password"},
		{User: workflow.User{Name: "Priya Raman", Email: "priya@attendly.test", Role: workflow.RoleEmployee, ManagerID: managerID}, Password: "password"},
		{User: workflow.User{Name: "Jonas Brandt", Email: "intern@attendly.test", Role: workflow.RoleIntern, ManagerID: managerID}, Password: "password"},
	}
	for _, u := range reports {
		id, err := st.CreateUser(ctx, u)
		if err != nil {
			return fmt.Errorf("seed user %q: %w", u.Email, err)
		}
		ids = append(ids, id)
	}

	// Current-year allowances for the balance-based types. Unpaid leave has
	// no row on purpose: it is unlimited.
	year := time.Now().Year()
	allowances := map[string]decimal.Decimal{
		"Casual Leave": decimal.NewFromInt(12),
		"Sick Leave":   decimal.NewFromInt(8),
	}
	for i, t := range types {
		total, ok := allowances[t.Name]
		if !ok {
			continue
		}
		for _, userID := range ids {
			_, err := st.CreateBalance(ctx, workflow.LeaveBalance{
				UserID:    userID,
				TypeID:    typeIDs[i],
				Year:      year,
				TotalDays: total,
				UsedDays:  decimal.Zero,
			})
			if err != nil {
				return fmt.Errorf("seed balance: %w", err)
			}
		}
	}
	return nil
}
