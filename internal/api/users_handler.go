package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/services"
)

type usersHandler struct {
	*base
}

// invalidBody reports an undecodable request body as a validation failure
func invalidBody(err error) error {
	return fmt.Errorf("%w: invalid request body: %v", model.ErrValidation, err)
}

// GetCurrentUser handles GET /api/v1/me. Anonymous callers get null.
func (h *usersHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	current, err := services.GetCurrentUser(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()))
	h.respond(w, "getCurrentUser", start, http.StatusOK, current, err)
}

// UpsertUser handles PUT /api/v1/me.
func (h *usersHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var input services.UpsertUserInput
	if err := readJSON(r, &input); err != nil {
		h.respond(w, "upsertUser", start, 0, nil, invalidBody(err))
		return
	}

	user, err := services.UpsertUser(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), input)
	h.respond(w, "upsertUser", start, http.StatusOK, user, err)
}

type emulationBody struct {
	EmulatingRole *model.Role `json:"emulatingRole"`
}

// SwitchEmulatingRole handles PUT /api/v1/me/emulation. A null role clears emulation.
func (h *usersHandler) SwitchEmulatingRole(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var body emulationBody
	if err := readJSON(r, &body); err != nil {
		h.respond(w, "switchEmulatingRole", start, 0, nil, invalidBody(err))
		return
	}

	user, err := services.SwitchEmulatingRole(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), body.EmulatingRole)
	h.respond(w, "switchEmulatingRole", start, http.StatusOK, user, err)
}

type roleBody struct {
	Role model.Role `json:"role"`
}

// UpdateUserRole handles PUT /api/v1/users/{id}/role.
func (h *usersHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var body roleBody
	if err := readJSON(r, &body); err != nil {
		h.respond(w, "updateUserRole", start, 0, nil, invalidBody(err))
		return
	}

	user, err := services.UpdateUserRole(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), chi.URLParam(r, "id"), body.Role)
	h.respond(w, "updateUserRole", start, http.StatusOK, user, err)
}

// SetCapabilityTags handles PUT /api/v1/users/{id}/tags.
func (h *usersHandler) SetCapabilityTags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var tags model.Capabilities
	if err := readJSON(r, &tags); err != nil {
		h.respond(w, "setCapabilityTags", start, 0, nil, invalidBody(err))
		return
	}

	user, err := services.SetCapabilityTags(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), chi.URLParam(r, "id"), tags)
	h.respond(w, "setCapabilityTags", start, http.StatusOK, user, err)
}

type permissionResult struct {
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
}

// CheckPermission handles GET /api/v1/permissions/{action}.
func (h *usersHandler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	action := chi.URLParam(r, "action")
	allowed, err := services.CheckPermission(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), action)
	h.respond(w, "checkPermission", start, http.StatusOK, permissionResult{Action: action, Allowed: allowed}, err)
}
