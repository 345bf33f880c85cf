package staffing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

func cafeTemplate() *model.ShiftTemplate {
	return &model.ShiftTemplate{
		ID:        "tmpl-cafe",
		Name:      "Cafe",
		StartTime: "12:00",
		EndTime:   "15:00",
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
		HourlyRequirements: []model.HourRequirement{
			{Hour: 12, MinWorkers: 1, OptimalWorkers: 2},
			{Hour: 13, MinWorkers: 2, OptimalWorkers: 2},
			{Hour: 14, MinWorkers: 1, OptimalWorkers: 1},
		},
		Active: true,
	}
}

func confirmed(id, worker string, hours ...model.HourRange) model.ShiftAssignment {
	return model.ShiftAssignment{
		ID:         id,
		TemplateID: "tmpl-cafe",
		WorkerID:   worker,
		Date:       "2025-09-22",
		Hours:      hours,
		Status:     model.AssignmentConfirmed,
	}
}

func TestClassify(t *testing.T) {
	req := model.HourRequirement{Hour: 9, MinWorkers: 2, OptimalWorkers: 4}
	assert.Equal(t, Understaffed, Classify(1, req))
	assert.Equal(t, Adequate, Classify(2, req))
	assert.Equal(t, Adequate, Classify(3, req))
	assert.Equal(t, Optimal, Classify(4, req))
	assert.Equal(t, Overstaffed, Classify(5, req))
}

func TestComputeStatus(t *testing.T) {
	assignments := []model.ShiftAssignment{
		confirmed("a", "alice", model.HourRange{Start: "12:00", End: "15:00"}),
		confirmed("b", "bob", model.HourRange{Start: "13:00", End: "14:00"}),
		confirmed("c", "carol", model.HourRange{Start: "14:00", End: "15:00"}),
	}
	pending := confirmed("d", "dave", model.HourRange{Start: "12:00", End: "15:00"})
	pending.Status = model.AssignmentPendingWorker
	otherDay := confirmed("e", "eve", model.HourRange{Start: "12:00", End: "15:00"})
	otherDay.Date = "2025-09-24"
	assignments = append(assignments, pending, otherDay)

	status, err := ComputeStatus(cafeTemplate(), "2025-09-22", assignments)
	require.NoError(t, err)
	require.Len(t, status.Hours, 3)

	assert.Equal(t, 1, status.Hours[0].Assigned)
	assert.Equal(t, Adequate, status.Hours[0].Level)

	assert.Equal(t, 2, status.Hours[1].Assigned)
	assert.Equal(t, Optimal, status.Hours[1].Level)
	assert.ElementsMatch(t, []string{"alice", "bob"}, status.Hours[1].WorkerIDs)

	assert.Equal(t, 2, status.Hours[2].Assigned)
	assert.Equal(t, Overstaffed, status.Hours[2].Level)

	assert.Equal(t, Overstaffed, status.Overall)
}

func TestComputeStatus_PartialHourDoesNotCount(t *testing.T) {
	assignments := []model.ShiftAssignment{
		confirmed("a", "alice", model.HourRange{Start: "12:30", End: "13:30"}),
	}

	status, err := ComputeStatus(cafeTemplate(), "2025-09-22", assignments)
	require.NoError(t, err)

	assert.Equal(t, 0, status.Hours[0].Assigned)
	assert.Equal(t, 0, status.Hours[1].Assigned)
	assert.Equal(t, Understaffed, status.Overall)
}

func TestValidateRequirements(t *testing.T) {
	assert.NoError(t, ValidateRequirements(cafeTemplate()))

	gap := cafeTemplate()
	gap.HourlyRequirements = gap.HourlyRequirements[:2]
	assert.ErrorIs(t, ValidateRequirements(gap), model.ErrValidation)

	outside := cafeTemplate()
	outside.HourlyRequirements = append(outside.HourlyRequirements, model.HourRequirement{Hour: 16})
	assert.ErrorIs(t, ValidateRequirements(outside), model.ErrValidation)

	dup := cafeTemplate()
	dup.HourlyRequirements = append(dup.HourlyRequirements, model.HourRequirement{Hour: 12})
	assert.ErrorIs(t, ValidateRequirements(dup), model.ErrValidation)

	halfHour := cafeTemplate()
	halfHour.EndTime = "15:30"
	assert.ErrorIs(t, ValidateRequirements(halfHour), model.ErrValidation)

	inverted := cafeTemplate()
	inverted.HourlyRequirements[0].OptimalWorkers = 0
	assert.ErrorIs(t, ValidateRequirements(inverted), model.ErrValidation)
}

func TestUpcomingDates(t *testing.T) {
	cal, err := NewCalendar(nil)
	require.NoError(t, err)

	// 2025-09-20 is a Saturday
	from := time.Date(2025, 9, 20, 15, 0, 0, 0, time.UTC)
	dates, err := cal.UpcomingDates(cafeTemplate(), from, 3)
	require.NoError(t, err)

	require.Len(t, dates, 3)
	assert.Equal(t, "2025-09-22", dates[0].Format(model.DateLayout))
	assert.Equal(t, "2025-09-24", dates[1].Format(model.DateLayout))
	assert.Equal(t, "2025-09-29", dates[2].Format(model.DateLayout))
}

func TestUpcomingDates_SkipsBlackouts(t *testing.T) {
	cal, err := NewCalendar([]string{"FREQ=YEARLY;BYMONTH=9;BYMONTHDAY=24"})
	require.NoError(t, err)

	from := time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)
	dates, err := cal.UpcomingDates(cafeTemplate(), from, 2)
	require.NoError(t, err)

	require.Len(t, dates, 2)
	assert.Equal(t, "2025-09-22", dates[0].Format(model.DateLayout))
	assert.Equal(t, "2025-09-29", dates[1].Format(model.DateLayout))

	blocked, err := cal.IsBlackout(time.Date(2025, 9, 24, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestUpcomingDates_InactiveTemplate(t *testing.T) {
	cal, err := NewCalendar(nil)
	require.NoError(t, err)

	tmpl := cafeTemplate()
	tmpl.Active = false
	dates, err := cal.UpcomingDates(tmpl, time.Now(), 5)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestRunsOn(t *testing.T) {
	cal, err := NewCalendar(nil)
	require.NoError(t, err)

	runs, err := cal.RunsOn(cafeTemplate(), time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, runs)

	runs, err = cal.RunsOn(cafeTemplate(), time.Date(2025, 9, 23, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, runs)
}

func TestNewCalendar_InvalidRule(t *testing.T) {
	_, err := NewCalendar([]string{"NOT_A_RULE"})
	assert.Error(t, err)
}
