package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/services"
)

const defaultUpcomingCount = 5

type shiftsHandler struct {
	*base
}

// CreateShiftTemplate handles POST /api/v1/templates.
func (h *shiftsHandler) CreateShiftTemplate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var input services.ShiftTemplateInput
	if err := readJSON(r, &input); err != nil {
		h.respond(w, "createShiftTemplate", start, 0, nil, invalidBody(err))
		return
	}

	template, err := services.CreateShiftTemplate(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), input)
	h.respond(w, "createShiftTemplate", start, http.StatusCreated, template, err)
}

// ListShiftTemplates handles GET /api/v1/templates?active=true.
func (h *shiftsHandler) ListShiftTemplates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	activeOnly := r.URL.Query().Get("active") == "true"

	templates, err := services.ListShiftTemplates(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), activeOnly)
	h.respond(w, "listShiftTemplates", start, http.StatusOK, templates, err)
}

// UpcomingShifts handles GET /api/v1/templates/{id}/upcoming?from=YYYY-MM-DD&count=N.
func (h *shiftsHandler) UpcomingShifts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()

	from := time.Now()
	if raw := query.Get("from"); raw != "" {
		parsed, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			h.respond(w, "upcomingShifts", start, 0, nil, fmt.Errorf("%w: from must be YYYY-MM-DD", model.ErrValidation))
			return
		}
		from = parsed
	}

	count := defaultUpcomingCount
	if raw := query.Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respond(w, "upcomingShifts", start, 0, nil, fmt.Errorf("%w: count must be a number", model.ErrValidation))
			return
		}
		count = parsed
	}

	shifts, err := services.UpcomingShifts(r.Context(), h.Database, h.Calendar, h.Logger, subjectFromContext(r.Context()), chi.URLParam(r, "id"), from, count)
	h.respond(w, "upcomingShifts", start, http.StatusOK, shifts, err)
}

// GetStaffingStatus handles GET /api/v1/templates/{id}/staffing?date=YYYY-MM-DD.
func (h *shiftsHandler) GetStaffingStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status, err := services.GetStaffingStatus(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), chi.URLParam(r, "id"), r.URL.Query().Get("date"))
	h.respond(w, "getStaffingStatus", start, http.StatusOK, status, err)
}
