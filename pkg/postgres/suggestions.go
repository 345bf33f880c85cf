package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/db"
)

// GetSuggestions retrieves all suggestion records in creation order
func (d *DB) GetSuggestions(ctx context.Context) ([]model.Suggestion, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, seq, author_id, location, page_context, problem, solution, status,
		       similarity_hash, related_suggestions, reviewed_by, review_notes,
		       implementation_date, created_at
		FROM suggestion
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []model.Suggestion
	for rows.Next() {
		var s model.Suggestion
		var reviewedBy, reviewNotes *string
		var implementationDate *time.Time
		if err := rows.Scan(&s.ID, &s.Seq, &s.AuthorID, &s.Location, &s.PageContext, &s.Problem, &s.Solution,
			&s.Status, &s.SimilarityHash, &s.RelatedSuggestions, &reviewedBy, &reviewNotes,
			&implementationDate, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		if reviewedBy != nil {
			s.ReviewedBy = *reviewedBy
		}
		if reviewNotes != nil {
			s.ReviewNotes = *reviewNotes
		}
		if implementationDate != nil {
			s.ImplementationDate = implementationDate.Format(model.DateLayout)
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}

	return suggestions, nil
}

// InsertSuggestionGrouped inserts a new suggestion and relinks its similarity group
// in one transaction. A transaction-scoped advisory lock on the hash serializes
// concurrent inserts into the same group across processes.
func (d *DB) InsertSuggestionGrouped(ctx context.Context, suggestion *model.Suggestion, link db.LinkFunc) (map[string][]string, error) {
	related := suggestion.RelatedSuggestions
	if related == nil {
		related = []string{}
	}

	var mesh map[string][]string
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, suggestion.SimilarityHash); err != nil {
			return fmt.Errorf("failed to lock similarity group: %w", err)
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO suggestion (id, author_id, location, page_context, problem, solution, status,
			                        similarity_hash, related_suggestions, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING seq
		`, suggestion.ID, suggestion.AuthorID, suggestion.Location, suggestion.PageContext, suggestion.Problem,
			suggestion.Solution, string(suggestion.Status), suggestion.SimilarityHash, related, suggestion.CreatedAt,
		).Scan(&suggestion.Seq)
		if err != nil {
			return fmt.Errorf("failed to insert suggestion: %w", err)
		}

		rows, err := tx.Query(ctx, `SELECT id FROM suggestion WHERE similarity_hash = $1 ORDER BY seq`, suggestion.SimilarityHash)
		if err != nil {
			return fmt.Errorf("failed to query similarity group: %w", err)
		}
		members, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to scan similarity group: %w", err)
		}

		mesh = link(members)
		for id, ids := range mesh {
			if ids == nil {
				ids = []string{}
			}
			tag, err := tx.Exec(ctx, `UPDATE suggestion SET related_suggestions = $2 WHERE id = $1`, id, ids)
			if err != nil {
				return fmt.Errorf("failed to update related suggestions: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("suggestion %s: %w", id, model.ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ids, ok := mesh[suggestion.ID]; ok {
		suggestion.RelatedSuggestions = ids
	}
	return mesh, nil
}

// UpdateSuggestionReview stores the review fields of a suggestion
func (d *DB) UpdateSuggestionReview(ctx context.Context, suggestion *model.Suggestion) error {
	var implementationDate *string
	if suggestion.ImplementationDate != "" {
		implementationDate = &suggestion.ImplementationDate
	}

	tag, err := d.pool.Exec(ctx, `
		UPDATE suggestion
		SET status = $2, reviewed_by = $3, review_notes = $4, implementation_date = $5
		WHERE id = $1
	`, suggestion.ID, string(suggestion.Status), nullIfEmpty(suggestion.ReviewedBy), nullIfEmpty(suggestion.ReviewNotes), implementationDate)
	if err != nil {
		return fmt.Errorf("failed to update suggestion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("suggestion %s: %w", suggestion.ID, model.ErrNotFound)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
