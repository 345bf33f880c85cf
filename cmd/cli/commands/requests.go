package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/services"
)

func printRequest(r *model.WorkerHourRequest) {
	fmt.Printf("Request:     %s\n", r.ID)
	fmt.Printf("Type:        %s (%s priority)\n", r.Type, r.Priority)
	fmt.Printf("Template:    %s\n", r.TemplateID)
	fmt.Printf("Date:        %s\n", r.Date)
	if len(r.Hours) > 0 {
		fmt.Printf("Hours:       %s\n", formatHours(r.Hours))
	}
	fmt.Printf("Status:      %s\n", r.Status)
	if r.CreatedAssignmentID != "" {
		fmt.Printf("Assignment:  %s\n", r.CreatedAssignmentID)
	}
}

// RequestJoinShiftCmd creates the requestJoinShift command
func RequestJoinShiftCmd(app *AppContext) *cobra.Command {
	var reason, priority string

	cmd := &cobra.Command{
		Use:   "requestJoinShift <template_id> <date> <hours>",
		Short: "Ask to join a shift for the given hours",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := parseHours(args[2])
			if err != nil {
				return err
			}

			request, err := services.RequestJoinShift(app.Ctx, app.Database, app.Logger, app.Subject, services.HourRequestInput{
				TemplateID: args[0],
				Date:       args[1],
				Hours:      hours,
				Reason:     reason,
				Priority:   model.RequestPriority(priority),
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Request submitted\n\n")
			printRequest(request)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why you want to join")
	cmd.Flags().StringVar(&priority, "priority", "", "low, normal or urgent (default normal)")
	return cmd
}

// SubmitRequestCmd creates the submitRequest command
func SubmitRequestCmd(app *AppContext) *cobra.Command {
	var hours, reason, priority string

	cmd := &cobra.Command{
		Use:   "submitRequest <type> <template_id> <date>",
		Short: "Submit a join_shift, leave_shift, swap_shift or extend_hours request",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := services.HourRequestInput{
				Type:       model.RequestType(args[0]),
				TemplateID: args[1],
				Date:       args[2],
				Reason:     reason,
				Priority:   model.RequestPriority(priority),
			}
			if hours != "" {
				parsed, err := parseHours(hours)
				if err != nil {
					return err
				}
				input.Hours = parsed
			}

			request, err := services.SubmitHourRequest(app.Ctx, app.Database, app.Logger, app.Subject, input)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Request submitted\n\n")
			printRequest(request)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&hours, "hours", "", "Requested hours, e.g. 12:00-19:00")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason for the request")
	cmd.Flags().StringVar(&priority, "priority", "", "low, normal or urgent (default normal)")
	return cmd
}

func reviewRequestCmd(app *AppContext, use, short, verb string, review func(app *AppContext, id, notes string) (*services.RequestDecision, error)) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision, err := review(app, args[0], notes)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Request %s\n\n", verb)
			printRequest(decision.Request)
			if decision.Assignment != nil {
				fmt.Println()
				printAssignment(decision.Assignment)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Review notes")
	return cmd
}

// ApproveRequestCmd creates the approveRequest command
func ApproveRequestCmd(app *AppContext) *cobra.Command {
	return reviewRequestCmd(app, "approveRequest <request_id>", "Approve a pending hour request", "approved",
		func(app *AppContext, id, notes string) (*services.RequestDecision, error) {
			return services.ApproveRequest(app.Ctx, app.Database, app.GmailClient, app.Logger, app.Subject, id, notes)
		})
}

// RejectRequestCmd creates the rejectRequest command
func RejectRequestCmd(app *AppContext) *cobra.Command {
	return reviewRequestCmd(app, "rejectRequest <request_id>", "Reject a pending hour request", "rejected",
		func(app *AppContext, id, notes string) (*services.RequestDecision, error) {
			return services.RejectRequest(app.Ctx, app.Database, app.GmailClient, app.Logger, app.Subject, id, notes)
		})
}

// ListRequestsCmd creates the listRequests command
func ListRequestsCmd(app *AppContext) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "listRequests",
		Short: "List hour requests, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, err := services.ListHourRequests(app.Ctx, app.Database, app.Logger, app.Subject, model.RequestStatus(status))
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				fmt.Println("No requests")
				return nil
			}

			fmt.Printf("\n%-36s  %-12s  %-10s  %-8s  %-9s  %s\n", "ID", "TYPE", "DATE", "PRIORITY", "STATUS", "REQUESTER")
			for _, r := range requests {
				fmt.Printf("%-36s  %-12s  %-10s  %-8s  %-9s  %s\n", r.ID, r.Type, r.Date, r.Priority, r.Status, r.RequesterID)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: pending, approved, rejected")
	return cmd
}
