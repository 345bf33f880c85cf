package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/internal/metrics"
	"github.com/jakechorley/staff-ops/pkg/core/services"
	"github.com/jakechorley/staff-ops/pkg/core/staffing"
	"github.com/jakechorley/staff-ops/pkg/db"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Database db.Database
	Gmail    services.GmailClient // nil disables notifications
	Calendar *staffing.Calendar
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// base carries what every handler group needs
type base struct {
	RouterDeps
}

// respond records the operation and writes either result or the mapped error
func (b *base) respond(w http.ResponseWriter, op string, start time.Time, status int, result any, err error) {
	b.Metrics.ObserveOperation(op, start, err)

	if err != nil {
		code, errCode := statusFor(err)
		message := err.Error()
		if code == http.StatusInternalServerError {
			b.Logger.Error("Operation failed", zap.String("operation", op), zap.Error(err))
			message = "internal error"
		}
		writeError(w, code, errCode, message)
		return
	}

	writeJSON(w, status, result)
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Calendar == nil {
		deps.Calendar, _ = staffing.NewCalendar(nil)
	}

	b := &base{RouterDeps: deps}
	users := &usersHandler{b}
	suggestions := &suggestionsHandler{b}
	shifts := &shiftsHandler{b}
	assignments := &assignmentsHandler{b}
	requests := &requestsHandler{b}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(deps.Logger))
	r.Use(metricsMiddleware(deps.Metrics))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api/v1", func(ar chi.Router) {
		ar.Use(identityMiddleware)

		ar.Get("/me", users.GetCurrentUser)
		ar.Put("/me", users.UpsertUser)
		ar.Put("/me/emulation", users.SwitchEmulatingRole)
		ar.Put("/users/{id}/role", users.UpdateUserRole)
		ar.Put("/users/{id}/tags", users.SetCapabilityTags)
		ar.Get("/permissions/{action}", users.CheckPermission)

		ar.Post("/suggestions", suggestions.CreateSuggestion)
		ar.Get("/suggestions", suggestions.ListSuggestions)
		ar.Get("/suggestions/grouped", suggestions.ListSuggestionsGrouped)
		ar.Patch("/suggestions/{id}", suggestions.ReviewSuggestion)

		ar.Post("/templates", shifts.CreateShiftTemplate)
		ar.Get("/templates", shifts.ListShiftTemplates)
		ar.Get("/templates/{id}/upcoming", shifts.UpcomingShifts)
		ar.Get("/templates/{id}/staffing", shifts.GetStaffingStatus)

		ar.Post("/assignments", assignments.CreateAssignment)
		ar.Post("/assignments/proposals", assignments.ProposeAssignment)
		ar.Get("/assignments", assignments.ListAssignments)
		ar.Post("/assignments/{id}/worker-approve", assignments.WorkerApprove)
		ar.Post("/assignments/{id}/worker-reject", assignments.WorkerReject)
		ar.Post("/assignments/{id}/manager-approve", assignments.ManagerApprove)
		ar.Post("/assignments/{id}/manager-reject", assignments.ManagerReject)

		ar.Post("/requests", requests.SubmitHourRequest)
		ar.Post("/requests/join-shift", requests.RequestJoinShift)
		ar.Get("/requests", requests.ListHourRequests)
		ar.Post("/requests/{id}/approve", requests.ApproveRequest)
		ar.Post("/requests/{id}/reject", requests.RejectRequest)
	})

	return r
}
