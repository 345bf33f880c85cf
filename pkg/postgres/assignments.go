package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// GetAssignments retrieves all shift assignment records
func (d *DB) GetAssignments(ctx context.Context) ([]model.ShiftAssignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, template_id, worker_id, date, hours, assigned_by, status,
		       manager_approved_at, worker_approved_at, notes, created_at
		FROM shift_assignment
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.ShiftAssignment
	for rows.Next() {
		var a model.ShiftAssignment
		var date time.Time
		var hours []byte
		if err := rows.Scan(&a.ID, &a.TemplateID, &a.WorkerID, &date, &hours, &a.AssignedBy, &a.Status,
			&a.ManagerApprovedAt, &a.WorkerApprovedAt, &a.Notes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Date = date.Format(model.DateLayout)
		if err := json.Unmarshal(hours, &a.Hours); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hours for assignment %s: %w", a.ID, err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

// InsertAssignment inserts a new shift assignment
func (d *DB) InsertAssignment(ctx context.Context, assignment *model.ShiftAssignment) error {
	return insertAssignment(ctx, d.pool, assignment)
}

// UpdateAssignment stores a transition, guarded on the previous status
func (d *DB) UpdateAssignment(ctx context.Context, assignment *model.ShiftAssignment, from model.AssignmentStatus) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		var current model.AssignmentStatus
		err := tx.QueryRow(ctx, `SELECT status FROM shift_assignment WHERE id = $1 FOR UPDATE`, assignment.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("assignment %s: %w", assignment.ID, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock assignment: %w", err)
		}
		if current != from {
			return fmt.Errorf("assignment %s is now %s: %w", assignment.ID, current, model.ErrInvalidTransition)
		}

		_, err = tx.Exec(ctx, `
			UPDATE shift_assignment
			SET status = $2, manager_approved_at = $3, worker_approved_at = $4, notes = $5
			WHERE id = $1
		`, assignment.ID, string(assignment.Status), assignment.ManagerApprovedAt, assignment.WorkerApprovedAt, assignment.Notes)
		if err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		return nil
	})
}

// execer is satisfied by both the pool and a transaction
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertAssignment(ctx context.Context, conn execer, a *model.ShiftAssignment) error {
	hours, err := json.Marshal(a.Hours)
	if err != nil {
		return fmt.Errorf("failed to marshal hours: %w", err)
	}

	_, err = conn.Exec(ctx, `
		INSERT INTO shift_assignment (id, template_id, worker_id, date, hours, assigned_by, status,
		                              manager_approved_at, worker_approved_at, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.TemplateID, a.WorkerID, a.Date, hours, a.AssignedBy, string(a.Status),
		a.ManagerApprovedAt, a.WorkerApprovedAt, a.Notes, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}
