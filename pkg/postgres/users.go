package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// GetUsers retrieves all user records
func (d *DB) GetUsers(ctx context.Context) ([]model.User, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, subject, name, email, role, emulating_role, tags, created_at
		FROM app_user
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var emulating *string
		var tags []byte
		if err := rows.Scan(&u.ID, &u.Subject, &u.Name, &u.Email, &u.Role, &emulating, &tags, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if emulating != nil {
			r := model.Role(*emulating)
			u.EmulatingRole = &r
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &u.Tags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tags for user %s: %w", u.ID, err)
			}
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// InsertUser inserts a new user record
func (d *DB) InsertUser(ctx context.Context, user *model.User) error {
	tags, err := json.Marshal(user.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO app_user (id, subject, name, email, role, emulating_role, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.Subject, user.Name, user.Email, string(user.Role), rolePtrToString(user.EmulatingRole), tags, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateUser overwrites an existing user record
func (d *DB) UpdateUser(ctx context.Context, user *model.User) error {
	tags, err := json.Marshal(user.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	tag, err := d.pool.Exec(ctx, `
		UPDATE app_user
		SET name = $2, email = $3, role = $4, emulating_role = $5, tags = $6
		WHERE id = $1
	`, user.ID, user.Name, user.Email, string(user.Role), rolePtrToString(user.EmulatingRole), tags)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", user.ID, model.ErrNotFound)
	}
	return nil
}

func rolePtrToString(r *model.Role) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}
