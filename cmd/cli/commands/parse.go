package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// parseHours reads ranges written as 09:00-13:00,14:00-16:00
func parseHours(s string) ([]model.HourRange, error) {
	var ranges []model.HourRange
	for _, part := range splitList(s) {
		start, end, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("hours %q must look like 09:00-13:00", part)
		}
		r := model.HourRange{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}
		if _, _, err := r.Minutes(); err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("at least one hour range is required")
	}
	return ranges, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// parseWeekdays reads days written as mon,wed,fri
func parseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range splitList(s) {
		key := strings.ToLower(part)
		if len(key) > 3 {
			key = key[:3]
		}
		day, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}

// buildRequirements gives every hour of the window the default min/optimal
// counts, then applies overrides written as 19=2/3,20=1/2
func buildRequirements(startTime, endTime string, min, optimal int, overrides string) ([]model.HourRequirement, error) {
	start, end, err := model.HourRange{Start: startTime, End: endTime}.Minutes()
	if err != nil {
		return nil, err
	}

	byHour := make(map[int]*model.HourRequirement)
	var reqs []model.HourRequirement
	for hour := start / 60; hour*60 < end; hour++ {
		reqs = append(reqs, model.HourRequirement{Hour: hour, MinWorkers: min, OptimalWorkers: optimal})
	}
	for i := range reqs {
		byHour[reqs[i].Hour] = &reqs[i]
	}

	for _, part := range splitList(overrides) {
		hourStr, counts, ok := strings.Cut(part, "=")
		minStr, optStr, ok2 := strings.Cut(counts, "/")
		if !ok || !ok2 {
			return nil, fmt.Errorf("hour requirement %q must look like 19=2/3", part)
		}
		hour, err1 := strconv.Atoi(hourStr)
		minWorkers, err2 := strconv.Atoi(minStr)
		optWorkers, err3 := strconv.Atoi(optStr)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("hour requirement %q must be numeric", part)
		}
		req, exists := byHour[hour]
		if !exists {
			return nil, fmt.Errorf("hour %d is outside %s-%s", hour, startTime, endTime)
		}
		req.MinWorkers = minWorkers
		req.OptimalWorkers = optWorkers
	}

	return reqs, nil
}

// parseTags reads capability tags written as worker,manager,dev
func parseTags(s string) (model.Capabilities, error) {
	var tags model.Capabilities
	for _, part := range splitList(s) {
		switch strings.ToLower(part) {
		case "worker":
			tags.Worker = true
		case "manager":
			tags.Manager = true
		case "instructor":
			tags.Instructor = true
		case "rental", "rentalapproved":
			tags.RentalApproved = true
		case "staff":
			tags.Staff = true
		case "dev":
			tags.Dev = true
		case "pro":
			tags.Pro = true
		default:
			return tags, fmt.Errorf("unknown tag %q", part)
		}
	}
	return tags, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatHours(ranges []model.HourRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.Start + "-" + r.End
	}
	return strings.Join(parts, ",")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
