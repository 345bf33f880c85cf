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

// AssignmentServiceStore defines the database operations needed for shift assignments
type AssignmentServiceStore interface {
	db.UserStore
	db.ShiftTemplateStore
	db.AssignmentStore
}

// ShiftHoursInput names hours on one occurrence of a template
type ShiftHoursInput struct {
	TemplateID string            `json:"templateId" validate:"required"`
	Date       string            `json:"date" validate:"required,datetime=2006-01-02"`
	Hours      []model.HourRange `json:"hours" validate:"required,min=1,dive"`
	Notes      string            `json:"notes"`
}

// AssignmentInput is a manager assigning a worker to shift hours
type AssignmentInput struct {
	WorkerID string `json:"workerId" validate:"required"`
	ShiftHoursInput
}

// AssignmentFilter narrows an assignment listing. Empty fields match everything.
type AssignmentFilter struct {
	WorkerID   string
	TemplateID string
	Date       string                 `validate:"omitempty,datetime=2006-01-02"`
	Status     model.AssignmentStatus `validate:"omitempty,oneof=pending_worker_approval pending_manager_approval confirmed rejected"`
}

// AssignmentView is an assignment enriched with display names. References
// that no longer resolve leave the name empty and are listed in MissingReferences.
type AssignmentView struct {
	model.ShiftAssignment
	WorkerName        string   `json:"workerName"`
	TemplateName      string   `json:"templateName"`
	MissingReferences []string `json:"missingReferences,omitempty"`
}

// CreateAssignment opens a manager-initiated assignment awaiting the worker's approval
func CreateAssignment(ctx context.Context, database AssignmentServiceStore, gmail GmailClient, logger *zap.Logger, subject string, input AssignmentInput) (*model.ShiftAssignment, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if !access.Can(actor, access.ActionAssignWorkers) {
		return nil, fmt.Errorf("user %s cannot assign workers: %w", actor.ID, model.ErrPermissionDenied)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	worker, err := loadUser(ctx, database, input.WorkerID)
	if err != nil {
		return nil, err
	}

	assignment := workflow.NewManagerAssignment(workflow.AssignmentDraft{
		ID:         newID(),
		TemplateID: input.TemplateID,
		WorkerID:   worker.ID,
		Date:       input.Date,
		Hours:      input.Hours,
		AssignedBy: actor.ID,
		Notes:      input.Notes,
	}, timeNow())

	if err := openAssignment(ctx, database, logger, assignment); err != nil {
		return nil, err
	}

	notify(logger, gmail, worker, "New shift assignment",
		fmt.Sprintf("You have been assigned to a shift on %s. Please approve or reject it.", assignment.Date))
	return assignment, nil
}

// ProposeAssignment opens a worker-initiated assignment awaiting a manager's approval
func ProposeAssignment(ctx context.Context, database AssignmentServiceStore, logger *zap.Logger, subject string, input ShiftHoursInput) (*model.ShiftAssignment, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if !access.Can(actor, access.ActionRequestShiftHours) {
		return nil, fmt.Errorf("user %s cannot request shift hours: %w", actor.ID, model.ErrPermissionDenied)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	assignment := workflow.NewWorkerProposal(workflow.AssignmentDraft{
		ID:         newID(),
		TemplateID: input.TemplateID,
		WorkerID:   actor.ID,
		Date:       input.Date,
		Hours:      input.Hours,
		AssignedBy: actor.ID,
		Notes:      input.Notes,
	}, timeNow())

	if err := openAssignment(ctx, database, logger, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// openAssignment checks a new assignment against its template and the
// worker's other assignments, then stores it.
func openAssignment(ctx context.Context, database AssignmentServiceStore, logger *zap.Logger, assignment *model.ShiftAssignment) error {
	template, err := loadTemplate(ctx, database, assignment.TemplateID)
	if err != nil {
		return err
	}

	existing, err := database.GetAssignments(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch assignments: %w", err)
	}

	if err := workflow.ValidateAssignment(assignment, template, existing, workflow.DefaultRules()); err != nil {
		return err
	}

	if err := database.InsertAssignment(ctx, assignment); err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	logger.Info("Created assignment",
		zap.String("assignment_id", assignment.ID),
		zap.String("worker_id", assignment.WorkerID),
		zap.String("template_id", assignment.TemplateID),
		zap.String("date", assignment.Date),
		zap.String("status", string(assignment.Status)))
	return nil
}

// WorkerApproveAssignment confirms an assignment awaiting the worker
func WorkerApproveAssignment(ctx context.Context, database AssignmentServiceStore, gmail GmailClient, logger *zap.Logger, subject, assignmentID string) (*model.ShiftAssignment, error) {
	return transitionAssignment(ctx, database, gmail, logger, subject, assignmentID, authorizeAssignedWorker,
		func(a *model.ShiftAssignment) error { return workflow.WorkerApprove(a, timeNow()) },
		func(a *model.ShiftAssignment) string { return a.AssignedBy })
}

// WorkerRejectAssignment declines an assignment awaiting the worker
func WorkerRejectAssignment(ctx context.Context, database AssignmentServiceStore, gmail GmailClient, logger *zap.Logger, subject, assignmentID, notes string) (*model.ShiftAssignment, error) {
	return transitionAssignment(ctx, database, gmail, logger, subject, assignmentID, authorizeAssignedWorker,
		func(a *model.ShiftAssignment) error { return workflow.WorkerReject(a, notes) },
		func(a *model.ShiftAssignment) string { return a.AssignedBy })
}

// ManagerApproveAssignment confirms a worker's proposal
func ManagerApproveAssignment(ctx context.Context, database AssignmentServiceStore, gmail GmailClient, logger *zap.Logger, subject, assignmentID string) (*model.ShiftAssignment, error) {
	return transitionAssignment(ctx, database, gmail, logger, subject, assignmentID, authorizeAssigner,
		func(a *model.ShiftAssignment) error { return workflow.ManagerApprove(a, timeNow()) },
		func(a *model.ShiftAssignment) string { return a.WorkerID })
}

// ManagerRejectAssignment declines a worker's proposal
func ManagerRejectAssignment(ctx context.Context, database AssignmentServiceStore, gmail GmailClient, logger *zap.Logger, subject, assignmentID, notes string) (*model.ShiftAssignment, error) {
	return transitionAssignment(ctx, database, gmail, logger, subject, assignmentID, authorizeAssigner,
		func(a *model.ShiftAssignment) error { return workflow.ManagerReject(a, notes) },
		func(a *model.ShiftAssignment) string { return a.WorkerID })
}

func authorizeAssignedWorker(actor *model.User, a *model.ShiftAssignment) error {
	if actor.ID == a.WorkerID || access.IsSuperuser(actor) {
		return nil
	}
	return fmt.Errorf("user %s is not the assigned worker: %w", actor.ID, model.ErrPermissionDenied)
}

func authorizeAssigner(actor *model.User, _ *model.ShiftAssignment) error {
	if access.Can(actor, access.ActionAssignWorkers) {
		return nil
	}
	return fmt.Errorf("user %s cannot assign workers: %w", actor.ID, model.ErrPermissionDenied)
}

// transitionAssignment loads the assignment, applies one state machine step and
// stores it guarded on the status it was loaded with. The counterparty named by
// notifyWho is told about the decision.
func transitionAssignment(
	ctx context.Context,
	database AssignmentServiceStore,
	gmail GmailClient,
	logger *zap.Logger,
	subject, assignmentID string,
	authorize func(actor *model.User, a *model.ShiftAssignment) error,
	transition func(a *model.ShiftAssignment) error,
	notifyWho func(a *model.ShiftAssignment) string,
) (*model.ShiftAssignment, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}

	assignments, err := database.GetAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	assignment := findAssignment(assignments, assignmentID)
	if assignment == nil {
		return nil, fmt.Errorf("assignment %s: %w", assignmentID, model.ErrNotFound)
	}

	if err := authorize(actor, assignment); err != nil {
		return nil, err
	}

	from := assignment.Status
	if err := transition(assignment); err != nil {
		logger.Debug("Rejected assignment transition",
			zap.String("assignment_id", assignment.ID),
			zap.String("status", string(from)),
			zap.Error(err))
		return nil, err
	}

	if err := database.UpdateAssignment(ctx, assignment, from); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	logger.Info("Assignment transitioned",
		zap.String("assignment_id", assignment.ID),
		zap.String("actor_id", actor.ID),
		zap.String("from", string(from)),
		zap.String("to", string(assignment.Status)))

	if recipientID := notifyWho(assignment); recipientID != "" && recipientID != actor.ID {
		users, err := database.GetUsers(ctx)
		if err != nil {
			logger.Warn("Failed to load notification recipient", zap.Error(err))
		} else {
			notify(logger, gmail, findUserByID(users, recipientID), "Shift assignment "+string(assignment.Status),
				fmt.Sprintf("The assignment for %s is now %s.", assignment.Date, assignment.Status))
		}
	}

	return assignment, nil
}

// ListAssignments returns assignments with worker and template names.
// Workers without assign_workers see only their own.
func ListAssignments(ctx context.Context, database AssignmentServiceStore, logger *zap.Logger, subject string, filter AssignmentFilter) ([]AssignmentView, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}
	if !access.Can(actor, access.ActionViewShifts) {
		return nil, fmt.Errorf("user %s cannot view shifts: %w", actor.ID, model.ErrPermissionDenied)
	}
	if err := validateInput(filter); err != nil {
		return nil, err
	}

	seeAll := access.Can(actor, access.ActionAssignWorkers) || access.IsSuperuser(actor)

	assignments, err := database.GetAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	users, err := database.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	templates, err := database.GetShiftTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift templates: %w", err)
	}

	views := make([]AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		if !seeAll && a.WorkerID != actor.ID {
			continue
		}
		if !matchesAssignmentFilter(a, filter) {
			continue
		}
		views = append(views, enrichAssignment(a, users, templates))
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Date != views[j].Date {
			return views[i].Date < views[j].Date
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})

	logger.Debug("Listed assignments", zap.String("actor_id", actor.ID), zap.Int("count", len(views)))
	return views, nil
}

func matchesAssignmentFilter(a model.ShiftAssignment, filter AssignmentFilter) bool {
	if filter.WorkerID != "" && a.WorkerID != filter.WorkerID {
		return false
	}
	if filter.TemplateID != "" && a.TemplateID != filter.TemplateID {
		return false
	}
	if filter.Date != "" && a.Date != filter.Date {
		return false
	}
	if filter.Status != "" && a.Status != filter.Status {
		return false
	}
	return true
}

func enrichAssignment(a model.ShiftAssignment, users []model.User, templates []model.ShiftTemplate) AssignmentView {
	view := AssignmentView{ShiftAssignment: a}
	if worker := findUserByID(users, a.WorkerID); worker != nil {
		view.WorkerName = worker.Name
	} else {
		view.MissingReferences = append(view.MissingReferences, "worker:"+a.WorkerID)
	}
	if template := findTemplate(templates, a.TemplateID); template != nil {
		view.TemplateName = template.Name
	} else {
		view.MissingReferences = append(view.MissingReferences, "template:"+a.TemplateID)
	}
	return view
}
