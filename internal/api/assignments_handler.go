package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/services"
)

type assignmentsHandler struct {
	*base
}

type notesBody struct {
	Notes string `json:"notes"`
}

// CreateAssignment handles POST /api/v1/assignments.
func (h *assignmentsHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var input services.AssignmentInput
	if err := readJSON(r, &input); err != nil {
		h.respond(w, "createAssignment", start, 0, nil, invalidBody(err))
		return
	}

	assignment, err := services.CreateAssignment(r.Context(), h.Database, h.Gmail, h.Logger, subjectFromContext(r.Context()), input)
	h.respond(w, "createAssignment", start, http.StatusCreated, assignment, err)
}

// ProposeAssignment handles POST /api/v1/assignments/proposals.
func (h *assignmentsHandler) ProposeAssignment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var input services.ShiftHoursInput
	if err := readJSON(r, &input); err != nil {
		h.respond(w, "proposeAssignment", start, 0, nil, invalidBody(err))
		return
	}

	assignment, err := services.ProposeAssignment(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), input)
	h.respond(w, "proposeAssignment", start, http.StatusCreated, assignment, err)
}

// ListAssignments handles GET /api/v1/assignments?workerId=&templateId=&date=&status=.
func (h *assignmentsHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()
	filter := services.AssignmentFilter{
		WorkerID:   query.Get("workerId"),
		TemplateID: query.Get("templateId"),
		Date:       query.Get("date"),
		Status:     model.AssignmentStatus(query.Get("status")),
	}

	assignments, err := services.ListAssignments(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), filter)
	h.respond(w, "listAssignments", start, http.StatusOK, assignments, err)
}

type assignmentDecision func(ctx context.Context, database services.AssignmentServiceStore, gmail services.GmailClient, logger *zap.Logger, subject, assignmentID, notes string) (*model.ShiftAssignment, error)

// ignoreNotes adapts an approval, which takes no notes, to assignmentDecision
func ignoreNotes(approve func(context.Context, services.AssignmentServiceStore, services.GmailClient, *zap.Logger, string, string) (*model.ShiftAssignment, error)) assignmentDecision {
	return func(ctx context.Context, database services.AssignmentServiceStore, gmail services.GmailClient, logger *zap.Logger, subject, assignmentID, _ string) (*model.ShiftAssignment, error) {
		return approve(ctx, database, gmail, logger, subject, assignmentID)
	}
}

func (h *assignmentsHandler) decide(op string, decision assignmentDecision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var body notesBody
		if err := readJSON(r, &body); err != nil {
			h.respond(w, op, start, 0, nil, invalidBody(err))
			return
		}

		assignment, err := decision(r.Context(), h.Database, h.Gmail, h.Logger, subjectFromContext(r.Context()), chi.URLParam(r, "id"), body.Notes)
		h.respond(w, op, start, http.StatusOK, assignment, err)
	}
}

// WorkerApprove handles POST /api/v1/assignments/{id}/worker-approve.
func (h *assignmentsHandler) WorkerApprove(w http.ResponseWriter, r *http.Request) {
	h.decide("workerApproveAssignment", ignoreNotes(services.WorkerApproveAssignment))(w, r)
}

// WorkerReject handles POST /api/v1/assignments/{id}/worker-reject.
func (h *assignmentsHandler) WorkerReject(w http.ResponseWriter, r *http.Request) {
	h.decide("workerRejectAssignment", services.WorkerRejectAssignment)(w, r)
}

// ManagerApprove handles POST /api/v1/assignments/{id}/manager-approve.
func (h *assignmentsHandler) ManagerApprove(w http.ResponseWriter, r *http.Request) {
	h.decide("managerApproveAssignment", ignoreNotes(services.ManagerApproveAssignment))(w, r)
}

// ManagerReject handles POST /api/v1/assignments/{id}/manager-reject.
func (h *assignmentsHandler) ManagerReject(w http.ResponseWriter, r *http.Request) {
	h.decide("managerRejectAssignment", services.ManagerRejectAssignment)(w, r)
}
