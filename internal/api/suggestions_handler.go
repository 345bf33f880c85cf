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

type suggestionsHandler struct {
	*base
}

type createdResult struct {
	ID string `json:"id"`
}

// CreateSuggestion handles POST /api/v1/suggestions.
func (h *suggestionsHandler) CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var input services.CreateSuggestionInput
	if err := readJSON(r, &input); err != nil {
		h.respond(w, "createSuggestion", start, 0, nil, invalidBody(err))
		return
	}

	suggestion, err := services.CreateSuggestion(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), input)
	var result any
	if suggestion != nil {
		result = createdResult{ID: suggestion.ID}
	}
	h.respond(w, "createSuggestion", start, http.StatusCreated, result, err)
}

func suggestionFilter(r *http.Request) (services.SuggestionFilter, error) {
	filter := services.SuggestionFilter{Status: model.SuggestionStatus(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: limit must be a number", model.ErrValidation)
		}
		filter.Limit = limit
	}
	return filter, nil
}

// ListSuggestions handles GET /api/v1/suggestions?status=&limit=.
func (h *suggestionsHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filter, err := suggestionFilter(r)
	if err != nil {
		h.respond(w, "listSuggestions", start, 0, nil, err)
		return
	}

	suggestions, err := services.ListSuggestions(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), filter)
	h.respond(w, "listSuggestions", start, http.StatusOK, suggestions, err)
}

// ListSuggestionsGrouped handles GET /api/v1/suggestions/grouped?status=&limit=.
func (h *suggestionsHandler) ListSuggestionsGrouped(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filter, err := suggestionFilter(r)
	if err != nil {
		h.respond(w, "listSuggestionsGrouped", start, 0, nil, err)
		return
	}

	groups, err := services.ListSuggestionsGrouped(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), filter)
	h.respond(w, "listSuggestionsGrouped", start, http.StatusOK, groups, err)
}

// ReviewSuggestion handles PATCH /api/v1/suggestions/{id}.
func (h *suggestionsHandler) ReviewSuggestion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var input services.ReviewSuggestionInput
	if err := readJSON(r, &input); err != nil {
		h.respond(w, "reviewSuggestion", start, 0, nil, invalidBody(err))
		return
	}

	suggestion, err := services.ReviewSuggestion(r.Context(), h.Database, h.Logger, subjectFromContext(r.Context()), chi.URLParam(r, "id"), input)
	h.respond(w, "reviewSuggestion", start, http.StatusOK, suggestion, err)
}
