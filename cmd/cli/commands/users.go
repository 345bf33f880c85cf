package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/services"
)

// WhoAmICmd creates the whoami command
func WhoAmICmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user, effective role and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := services.GetCurrentUser(app.Ctx, app.Database, app.Logger, app.Subject)
			if err != nil {
				return err
			}
			if current == nil {
				fmt.Println("Not signed in (use --as <subject> with a known subject)")
				return nil
			}

			fmt.Printf("\nUser:           %s (%s)\n", current.User.Name, current.User.ID)
			fmt.Printf("Role:           %s\n", current.User.Role)
			fmt.Printf("Effective role: %s", current.EffectiveRole)
			if current.Emulating {
				fmt.Printf(" (emulating)")
			}
			fmt.Printf("\nPermissions:\n")
			for _, p := range current.Permissions {
				fmt.Printf("  - %s\n", p)
			}
			fmt.Println()
			return nil
		},
	}
}

// UpsertUserCmd creates the upsertUser command
func UpsertUserCmd(app *AppContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "upsertUser <name>",
		Short: "Register the current subject, or update its name and email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := services.UpsertUser(app.Ctx, app.Database, app.Logger, app.Subject, services.UpsertUserInput{Name: args[0], Email: email})
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ User %s saved (id %s, role %s)\n\n", user.Name, user.ID, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address for notifications")
	return cmd
}

// SwitchEmulationCmd creates the switchEmulation command
func SwitchEmulationCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "switchEmulation [role]",
		Short: "Testers only: emulate a role, or clear emulation when no role is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var role *model.Role
			if len(args) == 1 {
				r := model.Role(args[0])
				role = &r
			}

			user, err := services.SwitchEmulatingRole(app.Ctx, app.Database, app.Logger, app.Subject, role)
			if err != nil {
				return err
			}
			if user.EmulatingRole == nil {
				fmt.Printf("\n✓ Emulation cleared for %s\n\n", user.Name)
			} else {
				fmt.Printf("\n✓ %s is now emulating %s\n\n", user.Name, *user.EmulatingRole)
			}
			return nil
		},
	}
}

// UpdateRoleCmd creates the updateRole command
func UpdateRoleCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "updateRole <user_id> <role>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := services.UpdateUserRole(app.Ctx, app.Database, app.Logger, app.Subject, args[0], model.Role(args[1]))
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ %s is now %s\n\n", user.Name, user.Role)
			return nil
		},
	}
}

// SetTagsCmd creates the setTags command
func SetTagsCmd(app *AppContext) *cobra.Command {
	var tags string

	cmd := &cobra.Command{
		Use:   "setTags <user_id>",
		Short: "Replace a user's capability tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capabilities, err := parseTags(tags)
			if err != nil {
				return err
			}

			user, err := services.SetCapabilityTags(app.Ctx, app.Database, app.Logger, app.Subject, args[0], capabilities)
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Tags updated for %s: %+v\n\n", user.Name, user.Tags)
			return nil
		},
	}

	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags: worker,manager,instructor,rental,staff,dev,pro (empty clears all)")
	return cmd
}

// CheckPermissionCmd creates the checkPermission command
func CheckPermissionCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "checkPermission <action>",
		Short: "Check whether the current user may perform an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			allowed, err := services.CheckPermission(app.Ctx, app.Database, app.Logger, app.Subject, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %t\n", args[0], allowed)
			return nil
		},
	}
}
