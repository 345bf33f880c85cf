package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

func managerAssigns(workerID, date, start, end string) AssignmentInput {
	return AssignmentInput{
		WorkerID: workerID,
		ShiftHoursInput: ShiftHoursInput{
			TemplateID: templateID,
			Date:       date,
			Hours:      hours(start, end),
		},
	}
}

func TestAssignment_ManagerCreatesWorkerApproves(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()
	gmail := &mockGmailClient{}

	created, err := CreateAssignment(ctx, store, gmail, logger, subManager, managerAssigns("worker", "2025-09-22", "12:00", "19:00"))
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentPendingWorker, created.Status)
	require.NotNil(t, created.ManagerApprovedAt)
	assert.Nil(t, created.WorkerApprovedAt)
	assert.Equal(t, "manager", created.AssignedBy)
	assert.Equal(t, []string{"worker@example.com"}, gmail.sentEmails)

	confirmed, err := WorkerApproveAssignment(ctx, store, gmail, logger, subWorker, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ManagerApprovedAt)
	assert.NotNil(t, confirmed.WorkerApprovedAt)
	assert.Equal(t, []string{"worker@example.com", "manager@example.com"}, gmail.sentEmails)

	_, err = WorkerApproveAssignment(ctx, store, gmail, logger, subWorker, created.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	stored, err := store.GetAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.AssignmentConfirmed, stored[0].Status)
}

func TestAssignment_WorkerRejects(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	created, err := CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker", "2025-09-22", "09:00", "12:00"))
	require.NoError(t, err)

	rejected, err := WorkerRejectAssignment(ctx, store, nil, logger, subWorker, created.ID, "away that week")
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentRejected, rejected.Status)
	assert.Equal(t, "away that week", rejected.Notes)
	assert.Nil(t, rejected.WorkerApprovedAt)

	_, err = WorkerApproveAssignment(ctx, store, nil, logger, subWorker, created.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestAssignment_OnlyAssignedWorkerOrTesterMayDecide(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	created, err := CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker", "2025-09-22", "09:00", "12:00"))
	require.NoError(t, err)

	_, err = WorkerApproveAssignment(ctx, store, nil, logger, subWorker2, created.ID)
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = WorkerApproveAssignment(ctx, store, nil, logger, subManager, created.ID)
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	confirmed, err := WorkerApproveAssignment(ctx, store, nil, logger, subTester, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentConfirmed, confirmed.Status)
}

func TestCreateAssignment_Errors(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		input   AssignmentInput
		wantErr error
	}{
		{name: "worker cannot assign", subject: subWorker, input: managerAssigns("worker2", "2025-09-22", "09:00", "10:00"), wantErr: model.ErrPermissionDenied},
		{name: "missing worker", subject: subManager, input: managerAssigns("nobody", "2025-09-22", "09:00", "10:00"), wantErr: model.ErrNotFound},
		{name: "bad date", subject: subManager, input: managerAssigns("worker", "22/09/2025", "09:00", "10:00"), wantErr: model.ErrValidation},
		{name: "reversed hours", subject: subManager, input: managerAssigns("worker", "2025-09-22", "12:00", "10:00"), wantErr: model.ErrValidation},
		{name: "outside template window", subject: subManager, input: managerAssigns("worker", "2025-09-22", "07:00", "10:00"), wantErr: model.ErrValidation},
		{name: "no identity", subject: "", input: managerAssigns("worker", "2025-09-22", "09:00", "10:00"), wantErr: model.ErrUnauthenticated},
		{name: "no hours", subject: subManager, input: AssignmentInput{WorkerID: "worker", ShiftHoursInput: ShiftHoursInput{TemplateID: templateID, Date: "2025-09-22"}}, wantErr: model.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupStore(t)

			_, err := CreateAssignment(context.Background(), store, nil, zap.NewNop(), tt.subject, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateAssignment_MissingTemplate(t *testing.T) {
	store := setupStore(t)

	input := managerAssigns("worker", "2025-09-22", "09:00", "10:00")
	input.TemplateID = "tmpl-missing"
	_, err := CreateAssignment(context.Background(), store, nil, zap.NewNop(), subManager, input)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCreateAssignment_RejectsOverlappingHours(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	first, err := CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker", "2025-09-22", "12:00", "15:00"))
	require.NoError(t, err)

	_, err = CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker", "2025-09-22", "14:00", "16:00"))
	assert.ErrorIs(t, err, model.ErrConflict)

	// Adjacent hours and other workers are fine
	_, err = CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker", "2025-09-22", "15:00", "16:00"))
	assert.NoError(t, err)
	_, err = CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker2", "2025-09-22", "14:00", "16:00"))
	assert.NoError(t, err)

	// A rejected assignment frees its hours
	_, err = WorkerRejectAssignment(ctx, store, nil, logger, subWorker, first.ID, "")
	require.NoError(t, err)
	_, err = CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker", "2025-09-22", "12:00", "15:00"))
	assert.NoError(t, err)
}

func TestCreateAssignment_NotificationFailureDoesNotFail(t *testing.T) {
	store := setupStore(t)
	gmail := &mockGmailClient{err: errors.New("quota exceeded")}

	created, err := CreateAssignment(context.Background(), store, gmail, zap.NewNop(), subManager, managerAssigns("worker", "2025-09-22", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentPendingWorker, created.Status)
	assert.Empty(t, gmail.sentEmails)
}

func TestAssignment_WorkerProposesManagerDecides(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()
	gmail := &mockGmailClient{}

	proposal, err := ProposeAssignment(ctx, store, logger, subWorker, ShiftHoursInput{TemplateID: templateID, Date: "2025-09-22", Hours: hours("10:00", "14:00")})
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentPendingManager, proposal.Status)
	assert.Equal(t, "worker", proposal.WorkerID)
	require.NotNil(t, proposal.WorkerApprovedAt)
	assert.Nil(t, proposal.ManagerApprovedAt)

	// The worker-side transition does not apply to a proposal
	_, err = WorkerApproveAssignment(ctx, store, gmail, logger, subWorker, proposal.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = ManagerApproveAssignment(ctx, store, gmail, logger, subWorker2, proposal.ID)
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	confirmed, err := ManagerApproveAssignment(ctx, store, gmail, logger, subManager, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ManagerApprovedAt)
	assert.Equal(t, []string{"worker@example.com"}, gmail.sentEmails)

	_, err = ManagerRejectAssignment(ctx, store, gmail, logger, subManager, proposal.ID, "too late")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestProposeAssignment_GuestDenied(t *testing.T) {
	store := setupStore(t)

	_, err := ProposeAssignment(context.Background(), store, zap.NewNop(), subGuest, ShiftHoursInput{TemplateID: templateID, Date: "2025-09-22", Hours: hours("10:00", "14:00")})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestAssignmentTransition_NotFound(t *testing.T) {
	store := setupStore(t)

	_, err := WorkerApproveAssignment(context.Background(), store, nil, zap.NewNop(), subWorker, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListAssignments_DanglingReferences(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	created, err := CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker", "2025-09-22", "09:00", "10:00"))
	require.NoError(t, err)
	require.NoError(t, store.InsertAssignment(ctx, &model.ShiftAssignment{
		ID:         "orphan",
		TemplateID: "tmpl-deleted",
		WorkerID:   "user-deleted",
		Date:       "2025-09-21",
		Hours:      hours("09:00", "10:00"),
		Status:     model.AssignmentPendingWorker,
	}))

	views, err := ListAssignments(ctx, store, logger, subManager, AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	orphan := views[0]
	assert.Equal(t, "orphan", orphan.ID)
	assert.Empty(t, orphan.WorkerName)
	assert.Empty(t, orphan.TemplateName)
	assert.Equal(t, []string{"worker:user-deleted", "template:tmpl-deleted"}, orphan.MissingReferences)

	assert.Equal(t, created.ID, views[1].ID)
	assert.Equal(t, "Wren Worker", views[1].WorkerName)
	assert.Equal(t, "Front desk", views[1].TemplateName)
	assert.Empty(t, views[1].MissingReferences)
}

func TestListAssignments_VisibilityAndFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	_, err := CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker", "2025-09-22", "09:00", "10:00"))
	require.NoError(t, err)
	second, err := CreateAssignment(ctx, store, nil, logger, subManager, managerAssigns("worker2", "2025-09-29", "09:00", "10:00"))
	require.NoError(t, err)
	_, err = WorkerApproveAssignment(ctx, store, nil, logger, subWorker2, second.ID)
	require.NoError(t, err)

	mine, err := ListAssignments(ctx, store, logger, subWorker, AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "worker", mine[0].WorkerID)

	confirmed, err := ListAssignments(ctx, store, logger, subManager, AssignmentFilter{Status: model.AssignmentConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, second.ID, confirmed[0].ID)

	byDate, err := ListAssignments(ctx, store, logger, subManager, AssignmentFilter{Date: "2025-09-22"})
	require.NoError(t, err)
	assert.Len(t, byDate, 1)

	_, err = ListAssignments(ctx, store, logger, subGuest, AssignmentFilter{})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = ListAssignments(ctx, store, logger, subManager, AssignmentFilter{Status: "lost"})
	assert.ErrorIs(t, err, model.ErrValidation)
}
