package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/services"
)

func printAssignment(a *model.ShiftAssignment) {
	fmt.Printf("Assignment:  %s\n", a.ID)
	fmt.Printf("Template:    %s\n", a.TemplateID)
	fmt.Printf("Worker:      %s\n", a.WorkerID)
	fmt.Printf("Date:        %s\n", a.Date)
	fmt.Printf("Hours:       %s\n", formatHours(a.Hours))
	fmt.Printf("Status:      %s\n", a.Status)
	fmt.Printf("Manager ok:  %s\n", formatTime(a.ManagerApprovedAt))
	fmt.Printf("Worker ok:   %s\n", formatTime(a.WorkerApprovedAt))
	if a.Notes != "" {
		fmt.Printf("Notes:       %s\n", a.Notes)
	}
}

// CreateAssignmentCmd creates the createAssignment command
func CreateAssignmentCmd(app *AppContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:     "createAssignment <worker_id> <template_id> <date> <hours>",
		Short:   "Assign a worker to shift hours, pending the worker's approval",
		Example: "  createAssignment 3f2c... tmpl-front-desk 2025-09-22 09:00-13:00,14:00-17:00",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := parseHours(args[3])
			if err != nil {
				return err
			}

			assignment, err := services.CreateAssignment(app.Ctx, app.Database, app.GmailClient, app.Logger, app.Subject, services.AssignmentInput{
				WorkerID:        args[0],
				ShiftHoursInput: services.ShiftHoursInput{TemplateID: args[1], Date: args[2], Hours: hours, Notes: notes},
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Assignment created\n\n")
			printAssignment(assignment)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the worker")
	return cmd
}

// ProposeAssignmentCmd creates the proposeAssignment command
func ProposeAssignmentCmd(app *AppContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "proposeAssignment <template_id> <date> <hours>",
		Short: "Propose yourself for shift hours, pending a manager's approval",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := parseHours(args[2])
			if err != nil {
				return err
			}

			assignment, err := services.ProposeAssignment(app.Ctx, app.Database, app.Logger, app.Subject, services.ShiftHoursInput{
				TemplateID: args[0], Date: args[1], Hours: hours, Notes: notes,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Assignment proposed\n\n")
			printAssignment(assignment)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the manager")
	return cmd
}

// ApproveAssignmentCmd creates the approveAssignment command
func ApproveAssignmentCmd(app *AppContext) *cobra.Command {
	var asManager bool

	cmd := &cobra.Command{
		Use:   "approveAssignment <assignment_id>",
		Short: "Approve an assignment as its worker, or as a manager with --manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			approve := services.WorkerApproveAssignment
			if asManager {
				approve = services.ManagerApproveAssignment
			}

			assignment, err := approve(app.Ctx, app.Database, app.GmailClient, app.Logger, app.Subject, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Assignment approved\n\n")
			printAssignment(assignment)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asManager, "manager", false, "Approve a worker's proposal as manager")
	return cmd
}

// RejectAssignmentCmd creates the rejectAssignment command
func RejectAssignmentCmd(app *AppContext) *cobra.Command {
	var asManager bool
	var notes string

	cmd := &cobra.Command{
		Use:   "rejectAssignment <assignment_id>",
		Short: "Reject an assignment as its worker, or as a manager with --manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reject := services.WorkerRejectAssignment
			if asManager {
				reject = services.ManagerRejectAssignment
			}

			assignment, err := reject(app.Ctx, app.Database, app.GmailClient, app.Logger, app.Subject, args[0], notes)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Assignment rejected\n\n")
			printAssignment(assignment)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asManager, "manager", false, "Reject a worker's proposal as manager")
	cmd.Flags().StringVar(&notes, "notes", "", "Reason for rejecting")
	return cmd
}

// ListAssignmentsCmd creates the listAssignments command
func ListAssignmentsCmd(app *AppContext) *cobra.Command {
	var filter services.AssignmentFilter
	var status string

	cmd := &cobra.Command{
		Use:   "listAssignments",
		Short: "List assignments visible to the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = model.AssignmentStatus(status)

			views, err := services.ListAssignments(app.Ctx, app.Database, app.Logger, app.Subject, filter)
			if err != nil {
				return err
			}
			if len(views) == 0 {
				fmt.Println("No assignments")
				return nil
			}

			fmt.Printf("\n%-36s  %-10s  %-20s  %-20s  %-17s  %s\n", "ID", "DATE", "TEMPLATE", "WORKER", "HOURS", "STATUS")
			for _, v := range views {
				worker, template := v.WorkerName, v.TemplateName
				if worker == "" {
					worker = "(missing " + v.WorkerID + ")"
				}
				if template == "" {
					template = "(missing " + v.TemplateID + ")"
				}
				fmt.Printf("%-36s  %-10s  %-20s  %-20s  %-17s  %s\n", v.ID, v.Date, template, worker, formatHours(v.Hours), v.Status)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.WorkerID, "worker", "", "Filter by worker id")
	cmd.Flags().StringVar(&filter.TemplateID, "template", "", "Filter by template id")
	cmd.Flags().StringVar(&filter.Date, "date", "", "Filter by date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	return cmd
}
