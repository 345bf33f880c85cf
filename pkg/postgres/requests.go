package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// GetHourRequests retrieves all worker hour request records
func (d *DB) GetHourRequests(ctx context.Context) ([]model.WorkerHourRequest, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, requester_id, template_id, date, request_type, hours, reason, priority, status,
		       reviewed_by, reviewed_at, review_notes, created_assignment_id, created_at
		FROM worker_hour_request
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hour requests: %w", err)
	}
	defer rows.Close()

	var requests []model.WorkerHourRequest
	for rows.Next() {
		var r model.WorkerHourRequest
		var date time.Time
		var hours []byte
		var reviewedBy, reviewNotes, createdAssignmentID *string
		if err := rows.Scan(&r.ID, &r.RequesterID, &r.TemplateID, &date, &r.Type, &hours, &r.Reason, &r.Priority,
			&r.Status, &reviewedBy, &r.ReviewedAt, &reviewNotes, &createdAssignmentID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hour request: %w", err)
		}
		r.Date = date.Format(model.DateLayout)
		r.ReviewedBy = stringOrEmpty(reviewedBy)
		r.ReviewNotes = stringOrEmpty(reviewNotes)
		r.CreatedAssignmentID = stringOrEmpty(createdAssignmentID)
		if err := json.Unmarshal(hours, &r.Hours); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hours for request %s: %w", r.ID, err)
		}
		requests = append(requests, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hour requests: %w", err)
	}

	return requests, nil
}

// InsertHourRequest inserts a new worker hour request
func (d *DB) InsertHourRequest(ctx context.Context, request *model.WorkerHourRequest) error {
	hours, err := json.Marshal(request.Hours)
	if err != nil {
		return fmt.Errorf("failed to marshal hours: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO worker_hour_request (id, requester_id, template_id, date, request_type, hours, reason,
		                                 priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, request.ID, request.RequesterID, request.TemplateID, request.Date, string(request.Type), hours,
		request.Reason, string(request.Priority), string(request.Status), request.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert hour request: %w", err)
	}
	return nil
}

// ReviewHourRequest stores the reviewed request and the assignment it created in one transaction
func (d *DB) ReviewHourRequest(ctx context.Context, request *model.WorkerHourRequest, created *model.ShiftAssignment) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		var current model.RequestStatus
		err := tx.QueryRow(ctx, `SELECT status FROM worker_hour_request WHERE id = $1 FOR UPDATE`, request.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("request %s: %w", request.ID, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock hour request: %w", err)
		}
		if current != model.RequestPending {
			return fmt.Errorf("request %s is now %s: %w", request.ID, current, model.ErrInvalidTransition)
		}

		if created != nil {
			if err := insertAssignment(ctx, tx, created); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE worker_hour_request
			SET status = $2, reviewed_by = $3, reviewed_at = $4, review_notes = $5, created_assignment_id = $6
			WHERE id = $1
		`, request.ID, string(request.Status), nullIfEmpty(request.ReviewedBy), request.ReviewedAt,
			nullIfEmpty(request.ReviewNotes), nullIfEmpty(request.CreatedAssignmentID))
		if err != nil {
			return fmt.Errorf("failed to update hour request: %w", err)
		}
		return nil
	})
}
