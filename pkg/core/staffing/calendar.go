package staffing

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// lookahead bounds how far ahead upcoming dates are searched
const lookahead = 366

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Calendar expands shift templates into concrete dates, skipping blackout days
type Calendar struct {
	blackouts []*rrule.ROption
}

// NewCalendar parses blackout recurrence rules (RFC 5545 RRULE syntax, no DTSTART)
func NewCalendar(blackoutRules []string) (*Calendar, error) {
	cal := &Calendar{}
	for i, rule := range blackoutRules {
		opt, err := rrule.StrToROption(rule)
		if err != nil {
			return nil, fmt.Errorf("invalid blackout rule [%d] %q: %w", i, rule, err)
		}
		cal.blackouts = append(cal.blackouts, opt)
	}
	return cal, nil
}

// UpcomingDates returns up to count dates on or after from on which the
// template runs. Inactive templates never run.
func (c *Calendar) UpcomingDates(template *model.ShiftTemplate, from time.Time, count int) ([]time.Time, error) {
	if !template.Active || count <= 0 || len(template.Weekdays) == 0 {
		return nil, nil
	}

	start := midnight(from)
	end := start.AddDate(0, 0, lookahead)

	byDay := make([]rrule.Weekday, 0, len(template.Weekdays))
	for _, wd := range template.Weekdays {
		byDay = append(byDay, rruleWeekdays[wd])
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Byweekday: byDay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence for template %s: %w", template.ID, err)
	}

	blocked, err := c.blockedDates(start, end)
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	for _, d := range rule.Between(start, end, true) {
		if blocked[d.Format(model.DateLayout)] {
			continue
		}
		dates = append(dates, d)
		if len(dates) == count {
			break
		}
	}
	return dates, nil
}

// IsBlackout reports whether the date falls on a blackout rule
func (c *Calendar) IsBlackout(date time.Time) (bool, error) {
	day := midnight(date)
	blocked, err := c.blockedDates(day, day.AddDate(0, 0, 1))
	if err != nil {
		return false, err
	}
	return blocked[day.Format(model.DateLayout)], nil
}

// RunsOn reports whether the template is scheduled on the given date
func (c *Calendar) RunsOn(template *model.ShiftTemplate, date time.Time) (bool, error) {
	dates, err := c.UpcomingDates(template, date, 1)
	if err != nil {
		return false, err
	}
	return len(dates) == 1 && dates[0].Equal(midnight(date)), nil
}

func (c *Calendar) blockedDates(start, end time.Time) (map[string]bool, error) {
	blocked := make(map[string]bool)
	for _, opt := range c.blackouts {
		o := *opt
		// Anchor each rule a year back so yearly and monthly rules land on their
		// own calendar positions rather than the query start.
		o.Dtstart = start.AddDate(-1, 0, 0)
		rule, err := rrule.NewRRule(o)
		if err != nil {
			return nil, fmt.Errorf("failed to build blackout rule: %w", err)
		}
		for _, d := range rule.Between(start, end, true) {
			blocked[d.Format(model.DateLayout)] = true
		}
	}
	return blocked, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
