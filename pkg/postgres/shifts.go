package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// GetShiftTemplates retrieves all shift template records
func (d *DB) GetShiftTemplates(ctx context.Context) ([]model.ShiftTemplate, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, start_time, end_time, weekdays, hourly_requirements, active, owner_id, created_at
		FROM shift_template
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift templates: %w", err)
	}
	defer rows.Close()

	var templates []model.ShiftTemplate
	for rows.Next() {
		var t model.ShiftTemplate
		var weekdays []int16
		var requirements []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.StartTime, &t.EndTime, &weekdays, &requirements, &t.Active, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift template: %w", err)
		}
		for _, wd := range weekdays {
			t.Weekdays = append(t.Weekdays, time.Weekday(wd))
		}
		if err := json.Unmarshal(requirements, &t.HourlyRequirements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal requirements for template %s: %w", t.ID, err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift templates: %w", err)
	}

	return templates, nil
}

// InsertShiftTemplate inserts a new shift template
func (d *DB) InsertShiftTemplate(ctx context.Context, template *model.ShiftTemplate) error {
	weekdays := make([]int16, 0, len(template.Weekdays))
	for _, wd := range template.Weekdays {
		weekdays = append(weekdays, int16(wd))
	}

	requirements, err := json.Marshal(template.HourlyRequirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO shift_template (id, name, start_time, end_time, weekdays, hourly_requirements, active, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, template.ID, template.Name, template.StartTime, template.EndTime, weekdays, requirements, template.Active, template.OwnerID, template.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert shift template: %w", err)
	}
	return nil
}
