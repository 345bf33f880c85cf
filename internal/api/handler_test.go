package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/internal/metrics"
	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/db"
)

const (
	subManager = "sub-manager"
	subWorker  = "sub-worker"
	subTester  = "sub-tester"
	templateID = "tmpl-front-desk"
)

func setupRouter(t *testing.T) (http.Handler, *db.MemoryDB) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryDB()

	for _, u := range []model.User{
		{ID: "manager", Subject: subManager, Name: "Morgan Manager", Role: model.RoleManager},
		{ID: "worker", Subject: subWorker, Name: "Wren Worker", Role: model.RoleWorker},
		{ID: "tester", Subject: subTester, Name: "Tay Tester", Role: model.RoleTester},
	} {
		require.NoError(t, store.InsertUser(ctx, &u))
	}

	var requirements []model.HourRequirement
	for hour := 9; hour < 20; hour++ {
		requirements = append(requirements, model.HourRequirement{Hour: hour, MinWorkers: 1, OptimalWorkers: 2})
	}
	require.NoError(t, store.InsertShiftTemplate(ctx, &model.ShiftTemplate{
		ID:                 templateID,
		Name:               "Front desk",
		StartTime:          "09:00",
		EndTime:            "20:00",
		Weekdays:           []time.Weekday{time.Monday},
		HourlyRequirements: requirements,
		Active:             true,
		OwnerID:            "manager",
	}))

	router := NewRouter(RouterDeps{Database: store, Logger: zap.NewNop(), Metrics: metrics.New()})
	return router, store
}

func call(t *testing.T, router http.Handler, method, path, subject string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reader).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reader)
	if subject != "" {
		req.Header.Set(SubjectHeader, subject)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)

	rec := call(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetCurrentUser(t *testing.T) {
	router, _ := setupRouter(t)

	rec := call(t, router, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(bytes.TrimSpace(rec.Body.Bytes())))

	rec = call(t, router, http.MethodPut, "/api/v1/me/emulation", subTester, map[string]string{"emulatingRole": "worker"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, router, http.MethodGet, "/api/v1/me", subTester, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current struct {
		EffectiveRole string `json:"effectiveRole"`
		Emulating     bool   `json:"emulating"`
	}
	decodeInto(t, rec, &current)
	assert.Equal(t, "worker", current.EffectiveRole)
	assert.True(t, current.Emulating)
}

func TestCheckPermission(t *testing.T) {
	router, _ := setupRouter(t)

	rec := call(t, router, http.MethodGet, "/api/v1/permissions/manage_user_roles", subManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"action":"manage_user_roles","allowed":true}`, rec.Body.String())

	rec = call(t, router, http.MethodGet, "/api/v1/permissions/manage_user_roles", subWorker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"action":"manage_user_roles","allowed":false}`, rec.Body.String())
}

func TestErrorStatusMapping(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name     string
		method   string
		path     string
		subject  string
		body     any
		wantCode int
		wantErr  string
	}{
		{name: "anonymous write", method: http.MethodPost, path: "/api/v1/suggestions", body: map[string]string{"problem": "a", "solution": "b"}, wantCode: http.StatusUnauthorized, wantErr: "unauthenticated"},
		{name: "unknown subject", method: http.MethodPost, path: "/api/v1/suggestions", subject: "sub-stranger", body: map[string]string{"problem": "a", "solution": "b"}, wantCode: http.StatusUnauthorized, wantErr: "unauthenticated"},
		{name: "worker manages roles", method: http.MethodPut, path: "/api/v1/users/manager/role", subject: subWorker, body: map[string]string{"role": "guest"}, wantCode: http.StatusForbidden, wantErr: "permission_denied"},
		{name: "missing assignment", method: http.MethodPost, path: "/api/v1/assignments/nope/worker-approve", subject: subWorker, wantCode: http.StatusNotFound, wantErr: "not_found"},
		{name: "missing fields", method: http.MethodPost, path: "/api/v1/suggestions", subject: subWorker, body: map[string]string{"problem": "a"}, wantCode: http.StatusBadRequest, wantErr: "validation_error"},
		{name: "bad limit", method: http.MethodGet, path: "/api/v1/suggestions?limit=ten", subject: subWorker, wantCode: http.StatusBadRequest, wantErr: "validation_error"},
		{name: "bad body", method: http.MethodPut, path: "/api/v1/me", subject: subWorker, body: []int{1}, wantCode: http.StatusBadRequest, wantErr: "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, router, tt.method, tt.path, tt.subject, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)

			var envelope errorEnvelope
			decodeInto(t, rec, &envelope)
			assert.Equal(t, tt.wantErr, envelope.Error.Code)
		})
	}
}

func TestAssignmentFlow(t *testing.T) {
	router, _ := setupRouter(t)

	rec := call(t, router, http.MethodPost, "/api/v1/assignments", subManager, map[string]any{
		"workerId":   "worker",
		"templateId": templateID,
		"date":       "2025-09-22",
		"hours":      []map[string]string{{"startTime": "09:00", "endTime": "13:00"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.ShiftAssignment
	decodeInto(t, rec, &created)
	assert.Equal(t, model.AssignmentPendingWorker, created.Status)

	rec = call(t, router, http.MethodPost, "/api/v1/assignments/"+created.ID+"/worker-approve", subWorker, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved model.ShiftAssignment
	decodeInto(t, rec, &approved)
	assert.Equal(t, model.AssignmentConfirmed, approved.Status)
	assert.NotNil(t, approved.ManagerApprovedAt)
	assert.NotNil(t, approved.WorkerApprovedAt)

	rec = call(t, router, http.MethodPost, "/api/v1/assignments/"+created.ID+"/worker-approve", subWorker, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, router, http.MethodGet, "/api/v1/templates/"+templateID+"/staffing?date=2025-09-22", subManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `staff_ops_transition_failures_total{operation="workerApproveAssignment"} 1`)
	assert.Contains(t, rec.Body.String(), `path_pattern="/api/v1/assignments/{id}/worker-approve"`)
}

func TestJoinShiftRequestFlow(t *testing.T) {
	router, store := setupRouter(t)

	rec := call(t, router, http.MethodPost, "/api/v1/requests/join-shift", subWorker, map[string]any{
		"templateId":     templateID,
		"date":           "2025-09-22",
		"requestedHours": []map[string]string{{"startTime": "12:00", "endTime": "19:00"}},
		"reason":         "extra cover",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var request model.WorkerHourRequest
	decodeInto(t, rec, &request)
	assert.Equal(t, model.RequestPending, request.Status)

	rec = call(t, router, http.MethodPost, "/api/v1/requests/"+request.ID+"/approve", subManager, map[string]string{"notes": "thanks"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var decision struct {
		Request    model.WorkerHourRequest `json:"request"`
		Assignment *model.ShiftAssignment  `json:"assignment"`
	}
	decodeInto(t, rec, &decision)
	assert.Equal(t, model.RequestApproved, decision.Request.Status)
	require.NotNil(t, decision.Assignment)
	assert.Equal(t, model.AssignmentConfirmed, decision.Assignment.Status)
	assert.Equal(t, decision.Assignment.ID, decision.Request.CreatedAssignmentID)

	stored, err := store.GetAssignments(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	rec = call(t, router, http.MethodPost, "/api/v1/requests/"+request.ID+"/reject", subManager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSuggestionsGrouped(t *testing.T) {
	router, _ := setupRouter(t)

	for _, body := range []map[string]string{
		{"problem": "printer broken", "solution": "fix printer"},
		{"problem": "Printer Broken!!", "solution": "Fix Printer"},
	} {
		rec := call(t, router, http.MethodPost, "/api/v1/suggestions", subWorker, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := call(t, router, http.MethodGet, "/api/v1/suggestions/grouped", subTester, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var groups []struct {
		Hash        string             `json:"similarityHash"`
		Suggestions []model.Suggestion `json:"suggestions"`
	}
	decodeInto(t, rec, &groups)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Suggestions, 2)
}
