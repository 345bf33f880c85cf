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

type requestsHandler struct {
	*base
}

type submitFunc func(ctx context.Context, database services.RequestServiceStore, logger *zap.Logger, subject string, input services.HourRequestInput) (*model.WorkerHourRequest, error)

func (h *requestsHandler) submit(w http.ResponseWriter, r *http.Request, op string, submit submitFunc) {
	start := time.Now()
	var input services.HourRequestInput
	if err := readJSON(r, &input); err != nil {
		h.respond(w, op, start, 0, nil, invalidBody(err))
		return
	}

	request, err := submit(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), input)
	h.respond(w, op, start, http.StatusCreated, request, err)
}

// SubmitHourRequest handles POST /api/v1/requests.
func (h *requestsHandler) SubmitHourRequest(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "submitHourRequest", services.SubmitHourRequest)
}

// RequestJoinShift handles POST /api/v1/requests/join-shift.
func (h *requestsHandler) RequestJoinShift(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "requestJoinShift", services.RequestJoinShift)
}

// ListHourRequests handles GET /api/v1/requests?status=.
func (h *requestsHandler) ListHourRequests(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := model.RequestStatus(r.URL.Query().Get("status"))

	requests, err := services.ListHourRequests(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), status)
	h.respond(w, "listHourRequests", start, http.StatusOK, requests, err)
}

type reviewFunc func(ctx context.Context, database services.RequestServiceStore, gmail services.GmailClient, logger *zap.Logger, subject, requestID, notes string) (*services.RequestDecision, error)

func (h *requestsHandler) review(w http.ResponseWriter, r *http.Request, op string, review reviewFunc) {
	start := time.Now()
	var body notesBody
	if err := readJSON(r, &body); err != nil {
		h.respond(w, op, start, 0, nil, invalidBody(err))
		return
	}

	decision, err := review(r.Context(), h.Database, h.Gmail, h.Logger, subjectFromContext(r.Context()), chi.URLParam(r, "id"), body.Notes)
	h.respond(w, op, start, http.StatusOK, decision, err)
}

// ApproveRequest handles POST /api/v1/requests/{id}/approve.
func (h *requestsHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "approveRequest", services.ApproveRequest)
}

// RejectRequest handles POST /api/v1/requests/{id}/reject.
func (h *requestsHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "rejectRequest", services.RejectRequest)
}
