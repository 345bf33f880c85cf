package staffing

import (
	"fmt"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// Level classifies how well one hour is staffed
type Level string

const (
	Understaffed Level = "understaffed"
	Adequate     Level = "adequate"
	Optimal      Level = "optimal"
	Overstaffed  Level = "overstaffed"
)

// HourStatus is the staffing of one clock hour of a shift
type HourStatus struct {
	Hour           int      `json:"hour"`
	Assigned       int      `json:"assigned"`
	MinWorkers     int      `json:"minWorkers"`
	OptimalWorkers int      `json:"optimalWorkers"`
	Level          Level    `json:"level"`
	WorkerIDs      []string `json:"workerIds"`
}

// Status is the staffing picture of one template on one date
type Status struct {
	TemplateID string       `json:"templateId"`
	Date       string       `json:"date"`
	Hours      []HourStatus `json:"hours"`
	Overall    Level        `json:"overall"` // The worst hour
}

// Classify maps a head count onto the requirement
func Classify(assigned int, req model.HourRequirement) Level {
	switch {
	case assigned < req.MinWorkers:
		return Understaffed
	case assigned > req.OptimalWorkers:
		return Overstaffed
	case assigned == req.OptimalWorkers:
		return Optimal
	default:
		return Adequate
	}
}

var severity = map[Level]int{Understaffed: 3, Overstaffed: 2, Adequate: 1, Optimal: 0}

// ComputeStatus counts confirmed assignments covering each hour of the template
// window on the date. Pending and rejected assignments do not count.
func ComputeStatus(template *model.ShiftTemplate, date string, assignments []model.ShiftAssignment) (*Status, error) {
	if err := ValidateRequirements(template); err != nil {
		return nil, err
	}

	winStart, winEnd, _ := template.Window()
	reqs := make(map[int]model.HourRequirement, len(template.HourlyRequirements))
	for _, r := range template.HourlyRequirements {
		reqs[r.Hour] = r
	}

	status := &Status{TemplateID: template.ID, Date: date, Overall: Optimal}
	for hour := winStart / 60; hour*60 < winEnd; hour++ {
		hs := HourStatus{
			Hour:           hour,
			MinWorkers:     reqs[hour].MinWorkers,
			OptimalWorkers: reqs[hour].OptimalWorkers,
			WorkerIDs:      []string{},
		}

		for _, a := range assignments {
			if a.TemplateID != template.ID || a.Date != date || a.Status != model.AssignmentConfirmed {
				continue
			}
			for _, r := range a.Hours {
				if r.CoversHour(hour) {
					hs.Assigned++
					hs.WorkerIDs = append(hs.WorkerIDs, a.WorkerID)
					break
				}
			}
		}

		hs.Level = Classify(hs.Assigned, reqs[hour])
		if severity[hs.Level] > severity[status.Overall] {
			status.Overall = hs.Level
		}
		status.Hours = append(status.Hours, hs)
	}

	return status, nil
}

// ValidateRequirements checks the per-hour requirements cover the template
// window contiguously, one entry per hour, and nothing outside it.
func ValidateRequirements(template *model.ShiftTemplate) error {
	winStart, winEnd, err := template.Window()
	if err != nil {
		return err
	}
	if winStart%60 != 0 || winEnd%60 != 0 {
		return fmt.Errorf("shift window %s-%s must start and end on the hour: %w", template.StartTime, template.EndTime, model.ErrValidation)
	}

	seen := make(map[int]bool, len(template.HourlyRequirements))
	for _, r := range template.HourlyRequirements {
		if r.Hour*60 < winStart || r.Hour*60 >= winEnd {
			return fmt.Errorf("requirement for hour %d is outside shift %s-%s: %w", r.Hour, template.StartTime, template.EndTime, model.ErrValidation)
		}
		if seen[r.Hour] {
			return fmt.Errorf("duplicate requirement for hour %d: %w", r.Hour, model.ErrValidation)
		}
		if r.MinWorkers < 0 || r.OptimalWorkers < r.MinWorkers {
			return fmt.Errorf("requirement for hour %d needs 0 <= min <= optimal: %w", r.Hour, model.ErrValidation)
		}
		seen[r.Hour] = true
	}

	for hour := winStart / 60; hour*60 < winEnd; hour++ {
		if !seen[hour] {
			return fmt.Errorf("missing requirement for hour %d: %w", hour, model.ErrValidation)
		}
	}
	return nil
}
