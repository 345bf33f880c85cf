package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/pkg/core/access"
	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/workflow"
	"github.com/jakechorley/staff-ops/pkg/db"
)

// RequestServiceStore defines the database operations needed for worker hour requests
type RequestServiceStore interface {
	db.UserStore
	db.ShiftTemplateStore
	db.HourRequestStore
}

// HourRequestInput is a worker's ask to change their hours on a shift
type HourRequestInput struct {
	TemplateID string                `json:"templateId" validate:"required"`
	Date       string                `json:"date" validate:"required,datetime=2006-01-02"`
	Type       model.RequestType     `json:"requestType" validate:"required,oneof=join_shift leave_shift swap_shift extend_hours"`
	Hours      []model.HourRange     `json:"requestedHours" validate:"omitempty,dive"`
	Reason     string                `json:"reason"`
	Priority   model.RequestPriority `json:"priority" validate:"omitempty,oneof=low normal urgent"`
}

// RequestDecision is a reviewed request and the assignment its approval created, if any
type RequestDecision struct {
	Request    *model.WorkerHourRequest `json:"request"`
	Assignment *model.ShiftAssignment   `json:"assignment,omitempty"`
}

// requestHourRules check requested hours the same way a new assignment's hours are checked
var requestHourRules = []workflow.AssignmentRule{
	workflow.WellFormedHoursRule{},
	workflow.WithinTemplateWindowRule{},
}

// RequestJoinShift submits a join_shift request for the caller
func RequestJoinShift(ctx context.Context, database RequestServiceStore, logger *zap.Logger, subject string, input HourRequestInput) (*model.WorkerHourRequest, error) {
	input.Type = model.RequestJoinShift
	return SubmitHourRequest(ctx, database, logger, subject, input)
}

// SubmitHourRequest stores a pending request of any type for the caller
func SubmitHourRequest(ctx context.Context, database RequestServiceStore, logger *zap.Logger, subject string, input HourRequestInput) (*model.WorkerHourRequest, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if !access.Can(actor, access.ActionRequestShiftHours) {
		return nil, fmt.Errorf("user %s cannot request shift hours: %w", actor.ID, model.ErrPermissionDenied)
	}
	if input.Priority == "" {
		input.Priority = model.PriorityNormal
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	template, err := loadTemplate(ctx, database, input.TemplateID)
	if err != nil {
		return nil, err
	}

	if len(input.Hours) > 0 {
		candidate := &model.ShiftAssignment{TemplateID: template.ID, WorkerID: actor.ID, Date: input.Date, Hours: input.Hours}
		if err := workflow.ValidateAssignment(candidate, template, nil, requestHourRules); err != nil {
			return nil, err
		}
	}

	request := &model.WorkerHourRequest{
		ID:          newID(),
		RequesterID: actor.ID,
		TemplateID:  template.ID,
		Date:        input.Date,
		Type:        input.Type,
		Hours:       input.Hours,
		Reason:      input.Reason,
		Priority:    input.Priority,
		Status:      model.RequestPending,
		CreatedAt:   timeNow(),
	}
	if err := database.InsertHourRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to insert hour request: %w", err)
	}

	logger.Info("Submitted hour request",
		zap.String("request_id", request.ID),
		zap.String("requester_id", actor.ID),
		zap.String("type", string(request.Type)),
		zap.String("priority", string(request.Priority)))
	return request, nil
}

// ApproveRequest approves a pending request. A join_shift request with hours
// also produces a confirmed assignment, stored in the same transaction.
func ApproveRequest(ctx context.Context, database RequestServiceStore, gmail GmailClient, logger *zap.Logger, subject, requestID, notes string) (*RequestDecision, error) {
	return reviewRequest(ctx, database, gmail, logger, subject, requestID,
		func(r *model.WorkerHourRequest, review workflow.Review) (*model.ShiftAssignment, error) {
			return workflow.ApproveRequest(r, review, newID)
		}, notes)
}

// RejectRequest rejects a pending request
func RejectRequest(ctx context.Context, database RequestServiceStore, gmail GmailClient, logger *zap.Logger, subject, requestID, notes string) (*RequestDecision, error) {
	return reviewRequest(ctx, database, gmail, logger, subject, requestID,
		func(r *model.WorkerHourRequest, review workflow.Review) (*model.ShiftAssignment, error) {
			return nil, workflow.RejectRequest(r, review)
		}, notes)
}

func reviewRequest(
	ctx context.Context,
	database RequestServiceStore,
	gmail GmailClient,
	logger *zap.Logger,
	subject, requestID string,
	decide func(r *model.WorkerHourRequest, review workflow.Review) (*model.ShiftAssignment, error),
	notes string,
) (*RequestDecision, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if !access.Can(actor, access.ActionApproveWorkerRequests) {
		return nil, fmt.Errorf("user %s cannot review worker requests: %w", actor.ID, model.ErrPermissionDenied)
	}

	requests, err := database.GetHourRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hour requests: %w", err)
	}
	request := findRequest(requests, requestID)
	if request == nil {
		return nil, fmt.Errorf("request %s: %w", requestID, model.ErrNotFound)
	}

	created, err := decide(request, workflow.Review{ReviewerID: actor.ID, Notes: notes, At: timeNow()})
	if err != nil {
		return nil, err
	}

	if err := database.ReviewHourRequest(ctx, request, created); err != nil {
		return nil, fmt.Errorf("failed to store request review: %w", err)
	}

	fields := []zap.Field{
		zap.String("request_id", request.ID),
		zap.String("reviewer_id", actor.ID),
		zap.String("status", string(request.Status)),
	}
	if created != nil {
		fields = append(fields, zap.String("assignment_id", created.ID))
	}
	logger.Info("Reviewed hour request", fields...)

	users, err := database.GetUsers(ctx)
	if err != nil {
		logger.Warn("Failed to load notification recipient", zap.Error(err))
	} else {
		notify(logger, gmail, findUserByID(users, request.RequesterID), "Hour request "+string(request.Status),
			fmt.Sprintf("Your %s request for %s was %s.", request.Type, request.Date, request.Status))
	}

	return &RequestDecision{Request: request, Assignment: created}, nil
}

// ListHourRequests returns requests oldest first. Reviewers see every
// request, everyone else only their own.
func ListHourRequests(ctx context.Context, database RequestServiceStore, logger *zap.Logger, subject string, status model.RequestStatus) ([]model.WorkerHourRequest, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	switch status {
	case "", model.RequestPending, model.RequestApproved, model.RequestRejected:
	default:
		return nil, fmt.Errorf("unknown request status %q: %w", status, model.ErrValidation)
	}

	requests, err := database.GetHourRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hour requests: %w", err)
	}

	seeAll := access.Can(actor, access.ActionApproveWorkerRequests) || access.IsSuperuser(actor)
	visible := make([]model.WorkerHourRequest, 0, len(requests))
	for _, r := range requests {
		if !seeAll && r.RequesterID != actor.ID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		visible = append(visible, r)
	}

	sort.SliceStable(visible, func(i, j int) bool { return visible[i].CreatedAt.Before(visible[j].CreatedAt) })

	logger.Debug("Listed hour requests", zap.String("actor_id", actor.ID), zap.Int("count", len(visible)))
	return visible, nil
}
