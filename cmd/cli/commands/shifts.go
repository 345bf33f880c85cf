package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/services"
	"github.com/jakechorley/staff-ops/pkg/core/staffing"
)

// CreateTemplateCmd creates the createTemplate command
func CreateTemplateCmd(app *AppContext) *cobra.Command {
	var weekdays, overrides string
	var minWorkers, optimalWorkers int

	cmd := &cobra.Command{
		Use:   "createTemplate <name> <start_time> <end_time>",
		Short: "Create a recurring shift template",
		Long: `Create a recurring shift template running from start_time to end_time (HH:MM, on the hour)
on the given weekdays. Every hour gets --min/--optimal workers unless overridden with --hours,
e.g. --hours 19=2/3,20=2/4.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := parseWeekdays(weekdays)
			if err != nil {
				return err
			}
			requirements, err := buildRequirements(args[1], args[2], minWorkers, optimalWorkers, overrides)
			if err != nil {
				return err
			}

			template, err := services.CreateShiftTemplate(app.Ctx, app.Database, app.Logger, app.Subject, services.ShiftTemplateInput{
				Name:               args[0],
				StartTime:          args[1],
				EndTime:            args[2],
				Weekdays:           days,
				HourlyRequirements: requirements,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Template created: %s\n", template.ID)
			printTemplate(template)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&weekdays, "weekdays", "", "Comma separated weekdays, e.g. mon,wed,fri (required)")
	cmd.Flags().IntVar(&minWorkers, "min", 1, "Minimum workers per hour")
	cmd.Flags().IntVar(&optimalWorkers, "optimal", 1, "Optimal workers per hour")
	cmd.Flags().StringVar(&overrides, "hours", "", "Per-hour overrides, e.g. 19=2/3")
	return cmd
}

func printTemplate(t *model.ShiftTemplate) {
	days := make([]string, len(t.Weekdays))
	for i, d := range t.Weekdays {
		days[i] = d.String()[:3]
	}
	fmt.Printf("  %s  %s-%s  %s  active=%t\n", t.Name, t.StartTime, t.EndTime, strings.Join(days, ","), t.Active)
	for _, r := range t.HourlyRequirements {
		fmt.Printf("    %02d:00  min %d  optimal %d\n", r.Hour, r.MinWorkers, r.OptimalWorkers)
	}
}

// ListTemplatesCmd creates the listTemplates command
func ListTemplatesCmd(app *AppContext) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "listTemplates",
		Short: "List shift templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := services.ListShiftTemplates(app.Ctx, app.Database, app.Logger, app.Subject, activeOnly)
			if err != nil {
				return err
			}
			if len(templates) == 0 {
				fmt.Println("No templates")
				return nil
			}
			for i := range templates {
				fmt.Printf("\n%s\n", templates[i].ID)
				printTemplate(&templates[i])
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list active templates")
	return cmd
}

// UpcomingShiftsCmd creates the upcomingShifts command
func UpcomingShiftsCmd(app *AppContext) *cobra.Command {
	var from string
	var count int

	cmd := &cobra.Command{
		Use:   "upcomingShifts <template_id>",
		Short: "List the next dates a template runs, skipping blackout days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if from != "" {
				parsed, err := time.Parse(model.DateLayout, from)
				if err != nil {
					return fmt.Errorf("from must be YYYY-MM-DD: %w", err)
				}
				start = parsed
			}

			shifts, err := services.UpcomingShifts(app.Ctx, app.Database, app.Calendar, app.Logger, app.Subject, args[0], start, count)
			if err != nil {
				return err
			}
			for i, s := range shifts {
				date, _ := time.Parse(model.DateLayout, s.Date)
				fmt.Printf("  %2d. %s  %s-%s  %s\n", i+1, date.Format("2006-01-02 (Monday)"), s.StartTime, s.EndTime, s.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First date to consider (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&count, "count", 5, "Number of dates")
	return cmd
}

// StaffingStatusCmd creates the staffingStatus command
func StaffingStatusCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "staffingStatus <template_id> <date>",
		Short: "Show per-hour staffing from confirmed assignments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := services.GetStaffingStatus(app.Ctx, app.Database, app.Logger, app.Subject, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("\nStaffing for %s on %s: %s\n\n", status.TemplateID, status.Date, levelLabel(status.Overall))
			for _, h := range status.Hours {
				fmt.Printf("  %02d:00  %d assigned (min %d, optimal %d)  %s\n", h.Hour, h.Assigned, h.MinWorkers, h.OptimalWorkers, levelLabel(h.Level))
			}
			fmt.Println()
			return nil
		},
	}
}

// levelLabel colours a staffing level for the terminal
func levelLabel(level staffing.Level) string {
	const (
		red    = "\033[31m"
		yellow = "\033[33m"
		green  = "\033[32m"
		blue   = "\033[34m"
		reset  = "\033[0m"
	)
	color := reset
	switch level {
	case staffing.Understaffed:
		color = red
	case staffing.Adequate:
		color = yellow
	case staffing.Optimal:
		color = green
	case staffing.Overstaffed:
		color = blue
	}
	return color + string(level) + reset
}
