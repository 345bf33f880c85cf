package workflow

import (
	"fmt"
	"time"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// Review carries the manager's decision on an hour request
type Review struct {
	ReviewerID string
	Notes      string
	At         time.Time
}

// WarrantsAssignment reports whether approving the request creates an assignment.
// Only join_shift requests that name hours do.
func WarrantsAssignment(r *model.WorkerHourRequest) bool {
	return r.Type == model.RequestJoinShift && len(r.Hours) > 0
}

// ApproveRequest marks a pending request approved and returns the confirmed
// assignment it produces, or nil when the request type warrants none.
// newID supplies the identifier for the created assignment.
func ApproveRequest(r *model.WorkerHourRequest, review Review, newID func() string) (*model.ShiftAssignment, error) {
	if err := requirePending(r); err != nil {
		return nil, err
	}

	var created *model.ShiftAssignment
	if WarrantsAssignment(r) {
		created = NewConfirmedAssignment(AssignmentDraft{
			ID:         newID(),
			TemplateID: r.TemplateID,
			WorkerID:   r.RequesterID,
			Date:       r.Date,
			Hours:      r.Hours,
			AssignedBy: review.ReviewerID,
			Notes:      fmt.Sprintf("Created from request %s", r.ID),
		}, review.At)
	}

	applyReview(r, model.RequestApproved, review)
	if created != nil {
		r.CreatedAssignmentID = created.ID
	}

	return created, nil
}

// RejectRequest marks a pending request rejected
func RejectRequest(r *model.WorkerHourRequest, review Review) error {
	if err := requirePending(r); err != nil {
		return err
	}
	applyReview(r, model.RequestRejected, review)
	return nil
}

func applyReview(r *model.WorkerHourRequest, status model.RequestStatus, review Review) {
	r.Status = status
	r.ReviewedBy = review.ReviewerID
	r.ReviewedAt = timePtr(review.At)
	r.ReviewNotes = review.Notes
}

func requirePending(r *model.WorkerHourRequest) error {
	if r.Status != model.RequestPending {
		return fmt.Errorf("request %s is %s, expected %s: %w", r.ID, r.Status, model.RequestPending, model.ErrInvalidTransition)
	}
	return nil
}
