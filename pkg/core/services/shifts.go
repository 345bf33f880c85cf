package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/pkg/core/access"
	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/staffing"
	"github.com/jakechorley/staff-ops/pkg/db"
)

// ShiftServiceStore defines the database operations needed for shift templates and staffing
type ShiftServiceStore interface {
	db.UserStore
	db.ShiftTemplateStore
	db.AssignmentStore
}

// ShiftTemplateInput describes a new recurring shift
type ShiftTemplateInput struct {
	Name               string                  `json:"name" validate:"required"`
	StartTime          string                  `json:"startTime" validate:"required,datetime=15:04"`
	EndTime            string                  `json:"endTime" validate:"required,datetime=15:04"`
	Weekdays           []time.Weekday          `json:"weekdays" validate:"required,min=1,dive,min=0,max=6"`
	HourlyRequirements []model.HourRequirement `json:"hourlyRequirements" validate:"required,dive"`
}

// UpcomingShift is one concrete occurrence of a template
type UpcomingShift struct {
	TemplateID string `json:"templateId"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// CreateShiftTemplate stores a new active template. The per-hour requirements
// must cover the window exactly.
func CreateShiftTemplate(ctx context.Context, database ShiftServiceStore, logger *zap.Logger, subject string, input ShiftTemplateInput) (*model.ShiftTemplate, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if !access.Can(actor, access.ActionManageShifts) {
		return nil, fmt.Errorf("user %s cannot manage shifts: %w", actor.ID, model.ErrPermissionDenied)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	template := &model.ShiftTemplate{
		ID:                 newID(),
		Name:               input.Name,
		StartTime:          input.StartTime,
		EndTime:            input.EndTime,
		Weekdays:           input.Weekdays,
		HourlyRequirements: input.HourlyRequirements,
		Active:             true,
		OwnerID:            actor.ID,
		CreatedAt:          timeNow(),
	}
	if err := staffing.ValidateRequirements(template); err != nil {
		return nil, err
	}

	if err := database.InsertShiftTemplate(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to insert shift template: %w", err)
	}

	logger.Info("Created shift template",
		zap.String("template_id", template.ID),
		zap.String("name", template.Name),
		zap.String("window", template.StartTime+"-"+template.EndTime))
	return template, nil
}

// ListShiftTemplates returns the templates visible to shift viewers
func ListShiftTemplates(ctx context.Context, database ShiftServiceStore, logger *zap.Logger, subject string, activeOnly bool) ([]model.ShiftTemplate, error) {
	if _, err := requireShiftViewer(ctx, database, subject); err != nil {
		return nil, err
	}

	templates, err := database.GetShiftTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift templates: %w", err)
	}

	if !activeOnly {
		return templates, nil
	}

	active := make([]model.ShiftTemplate, 0, len(templates))
	for _, t := range templates {
		if t.Active {
			active = append(active, t)
		}
	}
	logger.Debug("Filtered active templates", zap.Int("total", len(templates)), zap.Int("active", len(active)))
	return active, nil
}

// UpcomingShifts expands a template into its next dates, skipping blackout days
func UpcomingShifts(ctx context.Context, database ShiftServiceStore, calendar *staffing.Calendar, logger *zap.Logger, subject, templateID string, from time.Time, count int) ([]UpcomingShift, error) {
	if _, err := requireShiftViewer(ctx, database, subject); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d: %w", count, model.ErrValidation)
	}

	template, err := loadTemplate(ctx, database, templateID)
	if err != nil {
		return nil, err
	}

	dates, err := calendar.UpcomingDates(template, from, count)
	if err != nil {
		return nil, fmt.Errorf("failed to expand template %s: %w", template.ID, err)
	}

	shifts := make([]UpcomingShift, len(dates))
	for i, d := range dates {
		shifts[i] = UpcomingShift{
			TemplateID: template.ID,
			Name:       template.Name,
			Date:       d.Format(model.DateLayout),
			StartTime:  template.StartTime,
			EndTime:    template.EndTime,
		}
	}

	logger.Debug("Expanded upcoming shifts",
		zap.String("template_id", template.ID),
		zap.Int("requested", count),
		zap.Int("found", len(shifts)))
	return shifts, nil
}

// GetStaffingStatus classifies every hour of a template on a date against its requirements
func GetStaffingStatus(ctx context.Context, database ShiftServiceStore, logger *zap.Logger, subject, templateID, date string) (*staffing.Status, error) {
	if _, err := requireShiftViewer(ctx, database, subject); err != nil {
		return nil, err
	}
	if _, err := model.ParseDate(date); err != nil {
		return nil, err
	}

	template, err := loadTemplate(ctx, database, templateID)
	if err != nil {
		return nil, err
	}

	assignments, err := database.GetAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	status, err := staffing.ComputeStatus(template, date, assignments)
	if err != nil {
		return nil, err
	}

	logger.Debug("Computed staffing status",
		zap.String("template_id", template.ID),
		zap.String("date", date),
		zap.String("overall", string(status.Overall)))
	return status, nil
}

func requireShiftViewer(ctx context.Context, database db.UserStore, subject string) (*model.User, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if !access.Can(actor, access.ActionViewShifts) {
		return nil, fmt.Errorf("user %s cannot view shifts: %w", actor.ID, model.ErrPermissionDenied)
	}
	return actor, nil
}

func loadTemplate(ctx context.Context, database db.ShiftTemplateStore, id string) (*model.ShiftTemplate, error) {
	templates, err := database.GetShiftTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift templates: %w", err)
	}
	template := findTemplate(templates, id)
	if template == nil {
		return nil, fmt.Errorf("shift template %s: %w", id, model.ErrNotFound)
	}
	return template, nil
}
