package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/cmd/cli/commands"
	"github.com/jakechorley/staff-ops/internal/config"
	"github.com/jakechorley/staff-ops/internal/metrics"
	"github.com/jakechorley/staff-ops/pkg/clients/gmailclient"
	"github.com/jakechorley/staff-ops/pkg/core/services"
	"github.com/jakechorley/staff-ops/pkg/core/staffing"
	"github.com/jakechorley/staff-ops/pkg/db"
	"github.com/jakechorley/staff-ops/pkg/postgres"
	"github.com/jakechorley/staff-ops/pkg/utils"
	"github.com/jakechorley/staff-ops/pkg/utils/logging"
)

var (
	env     string
	subject string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "staff-ops",
		Short: "Staff ops CLI - roles, shifts, assignments, hour requests and suggestions",
		Long:  `A CLI for resolving roles and permissions, managing shift assignments and worker hour requests, and triaging suggestions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Database != nil {
				app.Database.Close()
			}
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&subject, "as", "", "Identity subject to act as")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(
		commands.WhoAmICmd(app),
		commands.UpsertUserCmd(app),
		commands.SwitchEmulationCmd(app),
		commands.UpdateRoleCmd(app),
		commands.SetTagsCmd(app),
		commands.CheckPermissionCmd(app),
		commands.CreateSuggestionCmd(app),
		commands.ListSuggestionsCmd(app),
		commands.ReviewSuggestionCmd(app),
		commands.CreateTemplateCmd(app),
		commands.ListTemplatesCmd(app),
		commands.UpcomingShiftsCmd(app),
		commands.StaffingStatusCmd(app),
		commands.CreateAssignmentCmd(app),
		commands.ProposeAssignmentCmd(app),
		commands.ApproveAssignmentCmd(app),
		commands.RejectAssignmentCmd(app),
		commands.ListAssignmentsCmd(app),
		commands.RequestJoinShiftCmd(app),
		commands.SubmitRequestCmd(app),
		commands.ApproveRequestCmd(app),
		commands.RejectRequestCmd(app),
		commands.ListRequestsCmd(app),
		commands.MigrateCmd(app),
		commands.ServeCmd(app),
		commands.InteractiveCmd(app),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, storage, calendar, metrics and notifications
func initApp() error {
	var err error
	app.Ctx = context.Background()
	app.Env = env
	app.Subject = subject

	app.Logger, err = logging.InitLogger(env, logging.WithVerbose(verbose))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully", zap.String("storage", app.Cfg.Storage))

	app.Metrics = metrics.New()

	if err := openDatabase(); err != nil {
		return err
	}

	if len(app.Cfg.SeedUsers) > 0 {
		created, err := services.SeedUsers(app.Ctx, app.Database, app.Logger, app.Cfg.Seeds())
		if err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
		app.Logger.Debug("Seed users applied", zap.Int("created", created))
	}

	app.Calendar, err = staffing.NewCalendar(app.Cfg.BlackoutRules())
	if err != nil {
		return fmt.Errorf("failed to build shift calendar: %w", err)
	}

	if app.Cfg.Notifications.Enabled {
		if err := initGmail(); err != nil {
			return err
		}
	}

	return nil
}

func openDatabase() error {
	switch app.Cfg.Storage {
	case config.StoragePostgres:
		app.Logger.Info("Connecting to postgres")
		pg, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.Metrics.RegisterDBPoolCollector(pg.PoolStats)
		app.Database = pg
	default:
		app.Logger.Info("Using in-memory storage")
		app.Database = db.NewMemoryDB()
	}
	return nil
}

func initGmail() error {
	app.Logger.Info("Initializing gmail client")

	oauthCfg, err := config.LoadOAuthClientWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return fmt.Errorf("failed to build oauth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(app.Ctx, oauthConfig, env, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to get gmail token: %w", err)
	}

	client, err := gmailclient.NewClient(app.Ctx, oauthCfg, token, app.Cfg.Notifications.GmailSender)
	if err != nil {
		return fmt.Errorf("failed to create gmail client: %w", err)
	}
	app.GmailClient = client
	app.Logger.Debug("Gmail client initialized successfully")

	return nil
}
