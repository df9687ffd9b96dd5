package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/attendly/leavecore/client"
	"github.com/attendly/leavecore/engine"
	"github.com/attendly/leavecore/workflow"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "User and leave type administration",
}

// adminClient is the raw client for admin surfaces the engine does not wrap.
func adminClient(eng *engine.Engine) *client.Client {
	return eng.Client()
}

// =============================================================================
// USERS
// =============================================================================

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersListFlags struct{ roleID int }

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts, optionally by role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		users, err := adminClient(eng).AdminListUsers(cmd.Context(), usersListFlags.roleID)
		if err != nil {
			return err
		}
		rows := make([][]string, len(users))
		for i, u := range users {
			manager := "-"
			if u.ManagerID != nil {
				manager = strconv.Itoa(*u.ManagerID)
			}
			rows[i] = []string{
				strconv.Itoa(u.UserID),
				u.Name,
				u.Email,
				workflow.Role(u.RoleID).String(),
				manager,
			}
		}
		table([]string{"ID", "NAME", "EMAIL", "ROLE", "MANAGER"}, rows)
		return nil
	},
}

var createUserFlags struct {
	name      string
	email     string
	password  string
	roleID    int
	managerID int
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		req := client.CreateUserRequest{
			Name:     createUserFlags.name,
			Email:    createUserFlags.email,
			Password: createUserFlags.password,
			RoleID:   createUserFlags.roleID,
		}
		if createUserFlags.managerID != 0 {
			req.ManagerID = &createUserFlags.managerID
		}

		created, err := adminClient(eng).AdminCreateUser(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Created user #%d (%s)\n", created.UserID, created.Email)
		return nil
	},
}

var promoteFlags struct{ roleID int }

var usersPromoteCmd = &cobra.Command{
	Use:   "promote <user-id>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("user id must be numeric")
		}

		// The update body carries the whole profile; fetch the current one.
		users, err := adminClient(eng).AdminListUsers(cmd.Context(), 0)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.UserID != id {
				continue
			}
			updated, err := adminClient(eng).AdminUpdateUser(cmd.Context(), id, client.UpdateUserRequest{
				Name:      u.Name,
				Email:     u.Email,
				RoleID:    promoteFlags.roleID,
				ManagerID: u.ManagerID,
			})
			if err != nil {
				return err
			}
			fmt.Printf("User #%d is now %s\n", updated.UserID, workflow.Role(updated.RoleID))
			return nil
		}
		return fmt.Errorf("user %d not found", id)
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("user id must be numeric")
		}
		if err := adminClient(eng).AdminDeleteUser(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted user #%d\n", id)
		return nil
	},
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

var leaveTypesCmd = &cobra.Command{
	Use:   "leave-types",
	Short: "Manage leave types",
}

var createTypeFlags struct {
	name             string
	requiresApproval bool
	balanceBased     bool
}

var leaveTypesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a leave type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		created, err := adminClient(eng).AdminCreateLeaveType(cmd.Context(), client.CreateLeaveTypeRequest{
			Name:             createTypeFlags.name,
			RequiresApproval: createTypeFlags.requiresApproval,
			IsBalanceBased:   createTypeFlags.balanceBased,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created leave type #%d (%s)\n", created.TypeID, created.Name)
		return nil
	},
}

var leaveTypesRemoveCmd = &cobra.Command{
	Use:   "remove <type-id>",
	Short: "Delete a leave type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("type id must be numeric")
		}
		if err := adminClient(eng).AdminDeleteLeaveType(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted leave type #%d\n", id)
		return nil
	},
}

func init() {
	usersListCmd.Flags().IntVar(&usersListFlags.roleID, "role", 0, "filter by role id (0 = all)")

	usersCreateCmd.Flags().StringVar(&createUserFlags.name, "name", "", "full name")
	usersCreateCmd.Flags().StringVar(&createUserFlags.email, "email", "", "login email")
	usersCreateCmd.Flags().StringVar(&createUserFlags.password, "password", "", "initial password")
	usersCreateCmd.Flags().IntVar(&createUserFlags.roleID, "role", int(workflow.RoleEmployee), "role id")
	usersCreateCmd.Flags().IntVar(&createUserFlags.managerID, "manager", 0, "manager's user id")
	usersCreateCmd.MarkFlagRequired("name")
	usersCreateCmd.MarkFlagRequired("email")
	usersCreateCmd.MarkFlagRequired("password")

	usersPromoteCmd.Flags().IntVar(&promoteFlags.roleID, "to", 0, "new role id")
	usersPromoteCmd.MarkFlagRequired("to")

	leaveTypesAddCmd.Flags().StringVar(&createTypeFlags.name, "name", "", "type name")
	leaveTypesAddCmd.Flags().BoolVar(&createTypeFlags.requiresApproval, "requires-approval", true, "requests need sign-off")
	leaveTypesAddCmd.Flags().BoolVar(&createTypeFlags.balanceBased, "balance-based", true, "requests draw from an allowance")
	leaveTypesAddCmd.MarkFlagRequired("name")

	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersPromoteCmd, usersDeleteCmd)
	leaveTypesCmd.AddCommand(leaveTypesAddCmd, leaveTypesRemoveCmd)
	adminCmd.AddCommand(usersCmd, leaveTypesCmd)
}
