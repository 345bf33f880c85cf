package db

import (
	"context"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// UserStore defines the interface for user database operations
type UserStore interface {
	GetUsers(ctx context.Context) ([]model.User, error)
	InsertUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
}

// LinkFunc maps the members of a similarity group to their related lists
type LinkFunc func(memberIDs []string) map[string][]string

// SuggestionStore defines the interface for suggestion database operations
type SuggestionStore interface {
	GetSuggestions(ctx context.Context) ([]model.Suggestion, error)
	// InsertSuggestionGrouped stores the suggestion, sets its creation sequence and
	// rewrites the related lists of its similarity group, all in one transaction.
	// link receives the group's ids in creation order, the new suggestion last, and
	// returns the related lists to store. The stored lists are returned.
	InsertSuggestionGrouped(ctx context.Context, suggestion *model.Suggestion, link LinkFunc) (map[string][]string, error)
	UpdateSuggestionReview(ctx context.Context, suggestion *model.Suggestion) error
}

// ShiftTemplateStore defines the interface for shift template database operations
type ShiftTemplateStore interface {
	GetShiftTemplates(ctx context.Context) ([]model.ShiftTemplate, error)
	InsertShiftTemplate(ctx context.Context, template *model.ShiftTemplate) error
}

// AssignmentStore defines the interface for shift assignment database operations
type AssignmentStore interface {
	GetAssignments(ctx context.Context) ([]model.ShiftAssignment, error)
	InsertAssignment(ctx context.Context, assignment *model.ShiftAssignment) error
	// UpdateAssignment persists a transition. It fails with model.ErrInvalidTransition
	// when the stored status is no longer from.
	UpdateAssignment(ctx context.Context, assignment *model.ShiftAssignment, from model.AssignmentStatus) error
}

// HourRequestStore defines the interface for worker hour request database operations
type HourRequestStore interface {
	GetHourRequests(ctx context.Context) ([]model.WorkerHourRequest, error)
	InsertHourRequest(ctx context.Context, request *model.WorkerHourRequest) error
	// ReviewHourRequest persists a reviewed request together with the assignment it
	// created, if any, in one transaction. It fails with model.ErrInvalidTransition
	// when the stored request is no longer pending.
	ReviewHourRequest(ctx context.Context, request *model.WorkerHourRequest, created *model.ShiftAssignment) error
}

// Database defines the interface for all database operations.
// Both the in-memory MemoryDB and postgres.DB implement this interface.
type Database interface {
	UserStore
	SuggestionStore
	ShiftTemplateStore
	AssignmentStore
	HourRequestStore
	Close()
}
