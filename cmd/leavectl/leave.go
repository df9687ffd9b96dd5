package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/attendly/leavecore/workflow"
)

var applyFlags struct {
	typeID int
	from   string
	to     string
	reason string
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Submit a leave request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		sub := workflow.Submission{TypeID: applyFlags.typeID, Reason: applyFlags.reason}
		if sub.StartDate, err = workflow.ParseDate(applyFlags.from); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		if sub.EndDate, err = workflow.ParseDate(applyFlags.to); err != nil {
			return fmt.Errorf("--to: %w", err)
		}

		req, err := eng.SubmitLeave(cmd.Context(), sub)
		if err != nil {
			return err
		}
		fmt.Printf("Request #%d submitted: %s to %s (%d working days, %d approval(s) needed)\n",
			req.ID, req.StartDate, req.EndDate, req.Duration(), req.RequiredApprovals)
		return nil
	},
}

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show your leave balances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		balances, err := eng.Balances(cmd.Context())
		if err != nil {
			return err
		}
		types, err := eng.LeaveTypes(cmd.Context())
		if err != nil {
			return err
		}
		names := make(map[int]string, len(types))
		for _, t := range types {
			names[t.ID] = t.Name
		}

		rows := make([][]string, len(balances))
		for i, b := range balances {
			rows[i] = []string{
				names[b.TypeID],
				strconv.Itoa(b.Year),
				b.TotalDays.String(),
				b.UsedDays.String(),
				b.AvailableDays().String(),
			}
		}
		table([]string{"TYPE", "YEAR", "TOTAL", "USED", "AVAILABLE"}, rows)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your leave requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		mine, err := eng.History(cmd.Context())
		if err != nil {
			return err
		}

		rows := make([][]string, len(mine))
		for i, r := range mine {
			typeName := ""
			if r.LeaveType != nil {
				typeName = r.LeaveType.Name
			}
			rows[i] = []string{
				strconv.Itoa(r.LeaveID),
				typeName,
				r.StartDate.String(),
				r.EndDate.String(),
				r.Status,
				r.Reason,
			}
		}
		table([]string{"ID", "TYPE", "FROM", "TO", "STATUS", "REASON"}, rows)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <request-id>",
	Short: "Cancel one of your leave requests",
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
			return fmt.Errorf("request id must be numeric")
		}

		// The engine plans against the authoritative copy, so fetch it first.
		mine, err := eng.History(cmd.Context())
		if err != nil {
			return err
		}
		var target *workflow.LeaveRequest
		for _, dto := range mine {
			if dto.LeaveID == id {
				req := dto.ToDomain()
				target = &req
				break
			}
		}
		if target == nil {
			return fmt.Errorf("request %d not found in your history", id)
		}

		cancelled, err := eng.CancelLeave(cmd.Context(), *target)
		if err != nil {
			return err
		}
		fmt.Printf("Request #%d is now %s\n", cancelled.ID, cancelled.Status)
		return nil
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List available leave types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		types, err := eng.LeaveTypes(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, len(types))
		for i, t := range types {
			rows[i] = []string{strconv.Itoa(t.ID), t.Name, yesNo(t.RequiresApproval), yesNo(t.IsBalanceBased)}
		}
		table([]string{"ID", "NAME", "NEEDS APPROVAL", "BALANCE BASED"}, rows)
		return nil
	},
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show who is out and when",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		events, err := eng.Calendar(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, len(events))
		for i, ev := range events {
			rows[i] = []string{ev.Start.String(), ev.End.String(), ev.UserName, ev.LeaveTypeName, ev.Status}
		}
		table([]string{"FROM", "TO", "WHO", "TYPE", "STATUS"}, rows)
		return nil
	},
}

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Show your direct reports' balances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		members, err := eng.Team(cmd.Context())
		if err != nil {
			return err
		}
		var rows [][]string
		for _, m := range members {
			for _, b := range m.Balances {
				rows = append(rows, []string{m.Name, b.TypeName, b.UsedDays.String(), b.AvailableDays.String()})
			}
		}
		table([]string{"MEMBER", "TYPE", "USED", "AVAILABLE"}, rows)
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	applyCmd.Flags().IntVar(&applyFlags.typeID, "type", 0, "leave type id (see: leavectl types)")
	applyCmd.Flags().StringVar(&applyFlags.from, "from", "", "first day of leave (YYYY-MM-DD)")
	applyCmd.Flags().StringVar(&applyFlags.to, "to", "", "last day of leave (YYYY-MM-DD)")
	applyCmd.Flags().StringVar(&applyFlags.reason, "reason", "", "reason for the request")
	applyCmd.MarkFlagRequired("type")
	applyCmd.MarkFlagRequired("from")
	applyCmd.MarkFlagRequired("to")
	applyCmd.MarkFlagRequired("reason")
}
