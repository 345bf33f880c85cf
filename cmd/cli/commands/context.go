package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/internal/config"
	"github.com/jakechorley/staff-ops/internal/metrics"
	"github.com/jakechorley/staff-ops/pkg/core/services"
	"github.com/jakechorley/staff-ops/pkg/core/staffing"
	"github.com/jakechorley/staff-ops/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg         *config.Config
	Database    db.Database
	GmailClient services.GmailClient // nil when notifications are disabled
	Calendar    *staffing.Calendar
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Ctx         context.Context
	Env         string
	Subject     string // Identity the commands act as, set by --as
}
