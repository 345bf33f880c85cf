package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/core/workflow"
)

func joinShift(date, start, end string) HourRequestInput {
	return HourRequestInput{
		TemplateID: templateID,
		Date:       date,
		Hours:      hours(start, end),
		Reason:     "extra hours",
	}
}

func TestRequestJoinShift_ApprovalCreatesConfirmedAssignment(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()
	gmail := &mockGmailClient{}

	request, err := RequestJoinShift(ctx, store, logger, subWorker, joinShift("2025-09-22", "12:00", "19:00"))
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, request.Status)
	assert.Equal(t, model.RequestJoinShift, request.Type)
	assert.Equal(t, model.PriorityNormal, request.Priority)

	decision, err := ApproveRequest(ctx, store, gmail, logger, subManager, request.ID, "welcome aboard")
	require.NoError(t, err)
	require.NotNil(t, decision.Assignment)

	approved := decision.Request
	assert.Equal(t, model.RequestApproved, approved.Status)
	assert.Equal(t, "manager", approved.ReviewedBy)
	assert.Equal(t, "welcome aboard", approved.ReviewNotes)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, decision.Assignment.ID, approved.CreatedAssignmentID)

	assignments, err := store.GetAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	created := assignments[0]
	assert.Equal(t, approved.CreatedAssignmentID, created.ID)
	assert.Equal(t, model.AssignmentConfirmed, created.Status)
	assert.Equal(t, "worker", created.WorkerID)
	assert.Equal(t, hours("12:00", "19:00"), created.Hours)
	require.NotNil(t, created.ManagerApprovedAt)
	require.NotNil(t, created.WorkerApprovedAt)
	assert.Equal(t, *approved.ReviewedAt, *created.ManagerApprovedAt)
	assert.NoError(t, workflow.CheckConfirmedInvariant(&created))

	requests, err := store.GetHourRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, created.ID, requests[0].CreatedAssignmentID)

	assert.Equal(t, []string{"worker@example.com"}, gmail.sentEmails)
}

func TestApproveRequest_OtherTypesCreateNoAssignment(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	for _, input := range []HourRequestInput{
		{TemplateID: templateID, Date: "2025-09-22", Type: model.RequestLeaveShift, Hours: hours("12:00", "13:00")},
		{TemplateID: templateID, Date: "2025-09-22", Type: model.RequestSwapShift},
		{TemplateID: templateID, Date: "2025-09-22", Type: model.RequestJoinShift},
	} {
		request, err := SubmitHourRequest(ctx, store, logger, subWorker, input)
		require.NoError(t, err)

		decision, err := ApproveRequest(ctx, store, nil, logger, subManager, request.ID, "")
		require.NoError(t, err)
		assert.Nil(t, decision.Assignment)
		assert.Equal(t, model.RequestApproved, decision.Request.Status)
		assert.Empty(t, decision.Request.CreatedAssignmentID)
	}

	assignments, err := store.GetAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestRejectRequest(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	request, err := RequestJoinShift(ctx, store, logger, subWorker, joinShift("2025-09-22", "12:00", "19:00"))
	require.NoError(t, err)

	decision, err := RejectRequest(ctx, store, nil, logger, subManager, request.ID, "fully staffed")
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, decision.Request.Status)
	assert.Equal(t, "fully staffed", decision.Request.ReviewNotes)
	assert.Nil(t, decision.Assignment)

	_, err = ApproveRequest(ctx, store, nil, logger, subManager, request.ID, "")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	assignments, err := store.GetAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestApproveRequest_Errors(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	request, err := RequestJoinShift(ctx, store, logger, subWorker, joinShift("2025-09-22", "12:00", "19:00"))
	require.NoError(t, err)

	_, err = ApproveRequest(ctx, store, nil, logger, subWorker, request.ID, "")
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = ApproveRequest(ctx, store, nil, logger, subManager, "missing", "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = ApproveRequest(ctx, store, nil, logger, "", request.ID, "")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = ApproveRequest(ctx, store, nil, logger, subManager, request.ID, "")
	require.NoError(t, err)

	_, err = ApproveRequest(ctx, store, nil, logger, subManager, request.ID, "")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	assignments, err := store.GetAssignments(ctx)
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestSubmitHourRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		input   HourRequestInput
		wantErr error
	}{
		{name: "guest cannot request", subject: subGuest, input: joinShift("2025-09-22", "12:00", "13:00"), wantErr: model.ErrPermissionDenied},
		{name: "hours outside window", subject: subWorker, input: joinShift("2025-09-22", "19:00", "21:00"), wantErr: model.ErrValidation},
		{name: "reversed hours", subject: subWorker, input: joinShift("2025-09-22", "13:00", "12:00"), wantErr: model.ErrValidation},
		{name: "bad date", subject: subWorker, input: joinShift("2025-13-01", "12:00", "13:00"), wantErr: model.ErrValidation},
		{name: "unknown template", subject: subWorker, input: HourRequestInput{TemplateID: "nope", Date: "2025-09-22", Type: model.RequestJoinShift}, wantErr: model.ErrNotFound},
		{name: "unknown type", subject: subWorker, input: HourRequestInput{TemplateID: templateID, Date: "2025-09-22", Type: "quit"}, wantErr: model.ErrValidation},
		{name: "unknown priority", subject: subWorker, input: HourRequestInput{TemplateID: templateID, Date: "2025-09-22", Type: model.RequestSwapShift, Priority: "asap"}, wantErr: model.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupStore(t)

			input := tt.input
			if input.Type == "" {
				input.Type = model.RequestJoinShift
			}
			_, err := SubmitHourRequest(context.Background(), store, zap.NewNop(), tt.subject, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListHourRequests(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	first, err := RequestJoinShift(ctx, store, logger, subWorker, joinShift("2025-09-22", "12:00", "13:00"))
	require.NoError(t, err)
	_, err = RequestJoinShift(ctx, store, logger, subWorker2, joinShift("2025-09-22", "12:00", "13:00"))
	require.NoError(t, err)
	_, err = RejectRequest(ctx, store, nil, logger, subManager, first.ID, "")
	require.NoError(t, err)

	mine, err := ListHourRequests(ctx, store, logger, subWorker, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	all, err := ListHourRequests(ctx, store, logger, subManager, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := ListHourRequests(ctx, store, logger, subManager, model.RequestPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "worker2", pending[0].RequesterID)

	_, err = ListHourRequests(ctx, store, logger, subManager, "lost")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = ListHourRequests(ctx, store, logger, "", "")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}
