package workflow

import (
	"fmt"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// AssignmentRule checks a candidate assignment against the assignments that
// already exist. Rules never mutate their inputs.
type AssignmentRule interface {
	Name() string
	Validate(candidate *model.ShiftAssignment, template *model.ShiftTemplate, existing []model.ShiftAssignment) error
}

// DefaultRules are applied to every newly opened assignment
func DefaultRules() []AssignmentRule {
	return []AssignmentRule{
		WellFormedHoursRule{},
		WithinTemplateWindowRule{},
		NoOverlappingHoursRule{},
	}
}

// ValidateAssignment runs every rule and returns the first violation
func ValidateAssignment(candidate *model.ShiftAssignment, template *model.ShiftTemplate, existing []model.ShiftAssignment, rules []AssignmentRule) error {
	for _, rule := range rules {
		if err := rule.Validate(candidate, template, existing); err != nil {
			return fmt.Errorf("%s: %w", rule.Name(), err)
		}
	}
	return nil
}

// WellFormedHoursRule requires at least one valid range and a valid date
type WellFormedHoursRule struct{}

func (WellFormedHoursRule) Name() string { return "WellFormedHours" }

func (WellFormedHoursRule) Validate(candidate *model.ShiftAssignment, _ *model.ShiftTemplate, _ []model.ShiftAssignment) error {
	if _, err := model.ParseDate(candidate.Date); err != nil {
		return err
	}
	if len(candidate.Hours) == 0 {
		return fmt.Errorf("at least one hour range is required: %w", model.ErrValidation)
	}
	for i, r := range candidate.Hours {
		if _, _, err := r.Minutes(); err != nil {
			return err
		}
		for _, other := range candidate.Hours[i+1:] {
			if r.Overlaps(other) {
				return fmt.Errorf("ranges %s-%s and %s-%s overlap: %w", r.Start, r.End, other.Start, other.End, model.ErrValidation)
			}
		}
	}
	return nil
}

// WithinTemplateWindowRule keeps every range inside the template's time window
type WithinTemplateWindowRule struct{}

func (WithinTemplateWindowRule) Name() string { return "WithinTemplateWindow" }

func (WithinTemplateWindowRule) Validate(candidate *model.ShiftAssignment, template *model.ShiftTemplate, _ []model.ShiftAssignment) error {
	if template == nil {
		return nil
	}
	winStart, winEnd, err := template.Window()
	if err != nil {
		return err
	}
	for _, r := range candidate.Hours {
		start, end, err := r.Minutes()
		if err != nil {
			return err
		}
		if start < winStart || end > winEnd {
			return fmt.Errorf("range %s-%s is outside shift %s-%s: %w", r.Start, r.End, template.StartTime, template.EndTime, model.ErrValidation)
		}
	}
	return nil
}

// NoOverlappingHoursRule prevents a worker holding two live assignments whose
// hours overlap on the same date. Rejected assignments do not count.
type NoOverlappingHoursRule struct{}

func (NoOverlappingHoursRule) Name() string { return "NoOverlappingHours" }

func (NoOverlappingHoursRule) Validate(candidate *model.ShiftAssignment, _ *model.ShiftTemplate, existing []model.ShiftAssignment) error {
	for _, other := range existing {
		if other.ID == candidate.ID || other.WorkerID != candidate.WorkerID || other.Date != candidate.Date {
			continue
		}
		if other.Status == model.AssignmentRejected {
			continue
		}
		for _, mine := range candidate.Hours {
			for _, theirs := range other.Hours {
				if mine.Overlaps(theirs) {
					return fmt.Errorf("worker %s already holds %s-%s on %s (assignment %s): %w",
						candidate.WorkerID, theirs.Start, theirs.End, candidate.Date, other.ID, model.ErrConflict)
				}
			}
		}
	}
	return nil
}
