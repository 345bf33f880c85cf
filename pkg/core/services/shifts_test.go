package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/staffing"
)

func eveningTemplate() ShiftTemplateInput {
	return ShiftTemplateInput{
		Name:      "Evening bar",
		StartTime: "18:00",
		EndTime:   "21:00",
		Weekdays:  []time.Weekday{time.Wednesday, time.Friday},
		HourlyRequirements: []model.HourRequirement{
			{Hour: 18, MinWorkers: 1, OptimalWorkers: 1},
			{Hour: 19, MinWorkers: 2, OptimalWorkers: 3},
			{Hour: 20, MinWorkers: 1, OptimalWorkers: 2},
		},
	}
}

func TestCreateShiftTemplate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	template, err := CreateShiftTemplate(ctx, store, logger, subManager, eveningTemplate())
	require.NoError(t, err)
	assert.True(t, template.Active)
	assert.Equal(t, "manager", template.OwnerID)

	templates, err := ListShiftTemplates(ctx, store, logger, subWorker, true)
	require.NoError(t, err)
	assert.Len(t, templates, 2)
}

func TestCreateShiftTemplate_Errors(t *testing.T) {
	missingHour := eveningTemplate()
	missingHour.HourlyRequirements = missingHour.HourlyRequirements[:2]

	offHour := eveningTemplate()
	offHour.EndTime = "21:30"

	noWeekdays := eveningTemplate()
	noWeekdays.Weekdays = nil

	badOptimal := eveningTemplate()
	badOptimal.HourlyRequirements[0].OptimalWorkers = 0

	tests := []struct {
		name    string
		subject string
		input   ShiftTemplateInput
		wantErr error
	}{
		{name: "worker cannot manage shifts", subject: subWorker, input: eveningTemplate(), wantErr: model.ErrPermissionDenied},
		{name: "requirements do not cover window", subject: subManager, input: missingHour, wantErr: model.ErrValidation},
		{name: "window off the hour", subject: subManager, input: offHour, wantErr: model.ErrValidation},
		{name: "no weekdays", subject: subManager, input: noWeekdays, wantErr: model.ErrValidation},
		{name: "optimal below minimum", subject: subManager, input: badOptimal, wantErr: model.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupStore(t)

			_, err := CreateShiftTemplate(context.Background(), store, zap.NewNop(), tt.subject, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListShiftTemplates_GuestDenied(t *testing.T) {
	store := setupStore(t)

	_, err := ListShiftTemplates(context.Background(), store, zap.NewNop(), subGuest, false)
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestUpcomingShifts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	calendar, err := staffing.NewCalendar([]string{"FREQ=YEARLY;BYMONTH=9;BYMONTHDAY=29"})
	require.NoError(t, err)

	shifts, err := UpcomingShifts(ctx, store, calendar, zap.NewNop(), subWorker, templateID, fixedNow, 3)
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, "2025-09-22", shifts[0].Date)
	assert.Equal(t, "2025-10-06", shifts[1].Date)
	assert.Equal(t, "2025-10-13", shifts[2].Date)
	assert.Equal(t, "Front desk", shifts[0].Name)

	_, err = UpcomingShifts(ctx, store, calendar, zap.NewNop(), subWorker, "missing", fixedNow, 3)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = UpcomingShifts(ctx, store, calendar, zap.NewNop(), subWorker, templateID, fixedNow, 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestGetStaffingStatus_CountsConfirmedOnly(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	first, err := CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker", "2025-09-22", "09:00", "20:00"))
	require.NoError(t, err)
	_, err = WorkerApproveAssignment(ctx, store, nil, logger, subWorker, first.ID)
	require.NoError(t, err)

	// Still pending, so it must not count
	_, err = CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker2", "2025-09-22", "12:00", "14:00"))
	require.NoError(t, err)

	status, err := GetStaffingStatus(ctx, store, logger, subManager, templateID, "2025-09-22")
	require.NoError(t, err)
	require.Len(t, status.Hours, 11)
	for _, h := range status.Hours {
		assert.Equal(t, 1, h.Assigned, "hour %d", h.Hour)
		assert.Equal(t, staffing.Adequate, h.Level, "hour %d", h.Hour)
	}
	assert.Equal(t, staffing.Adequate, status.Overall)

	_, err = GetStaffingStatus(ctx, store, logger, subManager, templateID, "Monday")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = GetStaffingStatus(ctx, store, logger, subGuest, templateID, "2025-09-22")
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}
