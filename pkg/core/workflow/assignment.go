package workflow

import (
	"fmt"
	"time"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// AssignmentDraft holds the fields needed to open a new assignment
type AssignmentDraft struct {
	ID         string
	TemplateID string
	WorkerID   string
	Date       string
	Hours      []model.HourRange
	AssignedBy string
	Notes      string
}

func (d AssignmentDraft) build(status model.AssignmentStatus, now time.Time) *model.ShiftAssignment {
	hours := make([]model.HourRange, len(d.Hours))
	copy(hours, d.Hours)
	return &model.ShiftAssignment{
		ID:         d.ID,
		TemplateID: d.TemplateID,
		WorkerID:   d.WorkerID,
		Date:       d.Date,
		Hours:      hours,
		AssignedBy: d.AssignedBy,
		Status:     status,
		Notes:      d.Notes,
		CreatedAt:  now,
	}
}

// NewManagerAssignment opens an assignment the manager has already agreed to
func NewManagerAssignment(d AssignmentDraft, now time.Time) *model.ShiftAssignment {
	a := d.build(model.AssignmentPendingWorker, now)
	a.ManagerApprovedAt = timePtr(now)
	return a
}

// NewWorkerProposal opens an assignment the worker has already agreed to
func NewWorkerProposal(d AssignmentDraft, now time.Time) *model.ShiftAssignment {
	a := d.build(model.AssignmentPendingManager, now)
	a.WorkerApprovedAt = timePtr(now)
	return a
}

// NewConfirmedAssignment opens an assignment both sides agreed to through an
// approved hour request, so it skips the pending states.
func NewConfirmedAssignment(d AssignmentDraft, approvedAt time.Time) *model.ShiftAssignment {
	a := d.build(model.AssignmentConfirmed, approvedAt)
	a.ManagerApprovedAt = timePtr(approvedAt)
	a.WorkerApprovedAt = timePtr(approvedAt)
	return a
}

// WorkerApprove moves pending_worker_approval to confirmed.
// On error the assignment is left untouched.
func WorkerApprove(a *model.ShiftAssignment, now time.Time) error {
	if err := requireStatus(a, model.AssignmentPendingWorker); err != nil {
		return err
	}
	a.WorkerApprovedAt = timePtr(now)
	a.Status = model.AssignmentConfirmed
	return nil
}

// WorkerReject moves pending_worker_approval to rejected
func WorkerReject(a *model.ShiftAssignment, notes string) error {
	if err := requireStatus(a, model.AssignmentPendingWorker); err != nil {
		return err
	}
	a.Status = model.AssignmentRejected
	appendNotes(a, notes)
	return nil
}

// ManagerApprove moves pending_manager_approval to confirmed
func ManagerApprove(a *model.ShiftAssignment, now time.Time) error {
	if err := requireStatus(a, model.AssignmentPendingManager); err != nil {
		return err
	}
	a.ManagerApprovedAt = timePtr(now)
	a.Status = model.AssignmentConfirmed
	return nil
}

// ManagerReject moves pending_manager_approval to rejected
func ManagerReject(a *model.ShiftAssignment, notes string) error {
	if err := requireStatus(a, model.AssignmentPendingManager); err != nil {
		return err
	}
	a.Status = model.AssignmentRejected
	appendNotes(a, notes)
	return nil
}

// CheckConfirmedInvariant verifies confirmed assignments carry both approvals
func CheckConfirmedInvariant(a *model.ShiftAssignment) error {
	if a.Status != model.AssignmentConfirmed {
		return nil
	}
	if a.ManagerApprovedAt == nil || a.WorkerApprovedAt == nil {
		return fmt.Errorf("assignment %s is confirmed without both approvals", a.ID)
	}
	return nil
}

func requireStatus(a *model.ShiftAssignment, want model.AssignmentStatus) error {
	if a.Status != want {
		return fmt.Errorf("assignment %s is %s, expected %s: %w", a.ID, a.Status, want, model.ErrInvalidTransition)
	}
	return nil
}

func appendNotes(a *model.ShiftAssignment, notes string) {
	if notes == "" {
		return
	}
	if a.Notes == "" {
		a.Notes = notes
		return
	}
	a.Notes = a.Notes + "\n" + notes
}

func timePtr(t time.Time) *time.Time {
	return &t
}
