package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/pkg/core/access"
	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/similarity"
	"github.com/jakechorley/staff-ops/pkg/db"
)

// SuggestionServiceStore defines the database operations needed for suggestions
type SuggestionServiceStore interface {
	db.UserStore
	db.SuggestionStore
}

// CreateSuggestionInput is the feedback submitted by a user
type CreateSuggestionInput struct {
	Location    string `json:"location"`
	PageContext string `json:"pageContext"`
	Problem     string `json:"problem" validate:"required"`
	Solution    string `json:"solution" validate:"required"`
}

// SuggestionFilter narrows a suggestion listing. A zero Limit means no limit.
type SuggestionFilter struct {
	Status model.SuggestionStatus `validate:"omitempty,oneof=pending reviewed implemented rejected"`
	Limit  int                    `validate:"min=0"`
}

// ReviewSuggestionInput is a reviewer's decision on a suggestion
type ReviewSuggestionInput struct {
	Status             model.SuggestionStatus `json:"status" validate:"required,oneof=pending reviewed implemented rejected"`
	Notes              string                 `json:"reviewNotes"`
	ImplementationDate string                 `json:"implementationDate" validate:"omitempty,datetime=2006-01-02"`
}

// SuggestionGroup is a set of suggestions sharing one fingerprint
type SuggestionGroup struct {
	Fingerprint string             `json:"similarityHash"`
	Suggestions []model.Suggestion `json:"suggestions"`
}

// Creates in the same similarity group queue here before reaching the store.
var regroupLocks = newKeyedMutex()

// CreateSuggestion stores a pending suggestion and relinks every suggestion
// sharing its fingerprint into a full mesh. The insert and the relink are one
// store call, so a failure leaves nothing behind.
func CreateSuggestion(ctx context.Context, database SuggestionServiceStore, logger *zap.Logger, subject string, input CreateSuggestionInput) (*model.Suggestion, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	fingerprint := similarity.Fingerprint(input.Problem, input.Solution)
	logger.Debug("Computed suggestion fingerprint", zap.String("similarity_hash", fingerprint))

	unlock := regroupLocks.Lock(fingerprint)
	defer unlock()

	suggestion := &model.Suggestion{
		ID:                 newID(),
		AuthorID:           actor.ID,
		Location:           input.Location,
		PageContext:        input.PageContext,
		Problem:            input.Problem,
		Solution:           input.Solution,
		Status:             model.SuggestionPending,
		SimilarityHash:     fingerprint,
		RelatedSuggestions: []string{},
		CreatedAt:          timeNow(),
	}
	related, err := database.InsertSuggestionGrouped(ctx, suggestion, similarity.RelatedMesh)
	if err != nil {
		return nil, fmt.Errorf("failed to insert suggestion: %w", err)
	}

	logger.Info("Created suggestion", zap.String("suggestion_id", suggestion.ID), zap.String("author_id", actor.ID))
	if len(related) > 0 {
		logger.Debug("Regrouped similar suggestions",
			zap.String("similarity_hash", fingerprint),
			zap.Int("group_size", len(related)))
	}

	return suggestion, nil
}

// ListSuggestions returns suggestions newest first. Reviewers see every
// suggestion, everyone else only their own.
func ListSuggestions(ctx context.Context, database SuggestionServiceStore, logger *zap.Logger, subject string, filter SuggestionFilter) ([]model.Suggestion, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if err := validateInput(filter); err != nil {
		return nil, err
	}

	suggestions, err := database.GetSuggestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	reviewer := access.IsReviewer(actor)
	visible := make([]model.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if !reviewer && s.AuthorID != actor.ID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		visible = append(visible, s)
	}

	sort.Slice(visible, func(i, j int) bool { return visible[i].Seq > visible[j].Seq })
	if filter.Limit > 0 && len(visible) > filter.Limit {
		visible = visible[:filter.Limit]
	}

	logger.Debug("Listed suggestions",
		zap.String("actor_id", actor.ID),
		zap.Bool("reviewer", reviewer),
		zap.Int("count", len(visible)))
	return visible, nil
}

// ListSuggestionsGrouped returns the same suggestions as ListSuggestions,
// bucketed by fingerprint with the largest groups first.
func ListSuggestionsGrouped(ctx context.Context, database SuggestionServiceStore, logger *zap.Logger, subject string, filter SuggestionFilter) ([]SuggestionGroup, error) {
	suggestions, err := ListSuggestions(ctx, database, logger, subject, filter)
	if err != nil {
		return nil, err
	}

	groups := similarity.GroupBy(suggestions, func(s model.Suggestion) string { return s.SimilarityHash })
	result := make([]SuggestionGroup, len(groups))
	for i, g := range groups {
		result[i] = SuggestionGroup{Fingerprint: g.Fingerprint, Suggestions: g.Items}
	}
	return result, nil
}

// ReviewSuggestion records a reviewer's decision. Related links are left alone.
func ReviewSuggestion(ctx context.Context, database SuggestionServiceStore, logger *zap.Logger, subject, suggestionID string, input ReviewSuggestionInput) (*model.Suggestion, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if !access.IsReviewer(actor) {
		return nil, fmt.Errorf("user %s cannot review suggestions: %w", actor.ID, model.ErrPermissionDenied)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	suggestions, err := database.GetSuggestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	var suggestion *model.Suggestion
	for i := range suggestions {
		if suggestions[i].ID == suggestionID {
			suggestion = &suggestions[i]
			break
		}
	}
	if suggestion == nil {
		return nil, fmt.Errorf("suggestion %s: %w", suggestionID, model.ErrNotFound)
	}

	suggestion.Status = input.Status
	suggestion.ReviewedBy = actor.ID
	suggestion.ReviewNotes = input.Notes
	suggestion.ImplementationDate = input.ImplementationDate

	if err := database.UpdateSuggestionReview(ctx, suggestion); err != nil {
		return nil, fmt.Errorf("failed to update suggestion: %w", err)
	}

	logger.Info("Reviewed suggestion",
		zap.String("suggestion_id", suggestion.ID),
		zap.String("reviewer_id", actor.ID),
		zap.String("status", string(suggestion.Status)))
	return suggestion, nil
}
