package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/attendly/leavecore/workflow"
)

var approvalComments string

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "View and process the approval queue",
}

var approvalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show requests waiting on you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		queue, err := eng.PendingApprovals(cmd.Context())
		if err != nil {
			return err
		}

		rows := make([][]string, len(queue))
		for i, r := range queue {
			who := strconv.Itoa(r.UserID)
			if r.User != nil {
				who = r.User.Name
			}
			typeName := ""
			if r.LeaveType != nil {
				typeName = r.LeaveType.Name
			}
			rows[i] = []string{
				strconv.Itoa(r.LeaveID),
				who,
				typeName,
				r.StartDate.String(),
				r.EndDate.String(),
				strconv.Itoa(r.ToDomain().Duration()),
				r.Status,
			}
		}
		table([]string{"ID", "WHO", "TYPE", "FROM", "TO", "DAYS", "STATUS"}, rows)
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Approve a request from your queue",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return processQueued(cmd, args[0], workflow.ActionApproved) },
}

var rejectCmd = &cobra.Command{
	Use:   "reject <request-id>",
	Short: "Reject a request from your queue",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return processQueued(cmd, args[0], workflow.ActionRejected) },
}

var approvalHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the approval audit trail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		if err := requireLogin(eng); err != nil {
			return err
		}

		records, err := eng.ApprovalHistory(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, len(records))
		for i, rec := range records {
			rows[i] = []string{
				strconv.Itoa(rec.LeaveID),
				strconv.Itoa(rec.ApproverID),
				rec.Action,
				rec.ApprovedAt.Local().Format("2006-01-02 15:04"),
				rec.Comments,
			}
		}
		table([]string{"REQUEST", "APPROVER", "ACTION", "WHEN", "COMMENTS"}, rows)
		return nil
	},
}

// processQueued resolves the request and its requester from the caller's own
// queue, so the engine can run the eligibility checks before anything is sent.
func processQueued(cmd *cobra.Command, rawID string, action workflow.ApprovalAction) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	if err := requireLogin(eng); err != nil {
		return err
	}

	id, err := strconv.Atoi(rawID)
	if err != nil {
		return fmt.Errorf("request id must be numeric")
	}

	queue, err := eng.PendingApprovals(cmd.Context())
	if err != nil {
		return err
	}
	for _, dto := range queue {
		if dto.LeaveID != id {
			continue
		}
		if dto.User == nil {
			return fmt.Errorf("request %d has no requester attached", id)
		}
		status, err := eng.ProcessApproval(cmd.Context(), dto.ToDomain(), dto.User.ToDomain(), action, approvalComments)
		if err != nil {
			return err
		}
		fmt.Printf("Request #%d is now %s\n", id, status)
		return nil
	}
	return fmt.Errorf("request %d is not in your approval queue", id)
}

func init() {
	approveCmd.Flags().StringVar(&approvalComments, "comments", "", "note for the audit trail")
	rejectCmd.Flags().StringVar(&approvalComments, "comments", "", "note for the audit trail")

	approvalsCmd.AddCommand(approvalsListCmd)
	approvalsCmd.AddCommand(approveCmd)
	approvalsCmd.AddCommand(rejectCmd)
	approvalsCmd.AddCommand(approvalHistoryCmd)
}
