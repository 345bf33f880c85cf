package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

func rolePtr(r model.Role) *model.Role {
	return &r
}

func TestResolveEffectiveRole(t *testing.T) {
	tests := []struct {
		name string
		user *model.User
		want model.Role
	}{
		{"nil user", nil, model.RoleGuest},
		{"unset role", &model.User{}, model.RoleGuest},
		{"plain worker", &model.User{Role: model.RoleWorker}, model.RoleWorker},
		{"tester without overlay", &model.User{Role: model.RoleTester}, model.RoleTester},
		{"tester emulating customer", &model.User{Role: model.RoleTester, EmulatingRole: rolePtr(model.RoleCustomer)}, model.RoleCustomer},
		{"tester with empty overlay", &model.User{Role: model.RoleTester, EmulatingRole: rolePtr("")}, model.RoleTester},
		{"manager overlay ignored", &model.User{Role: model.RoleManager, EmulatingRole: rolePtr(model.RoleGuest)}, model.RoleManager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveEffectiveRole(tt.user))
		})
	}
}

func TestApplyEmulation_TesterSetsAndClears(t *testing.T) {
	tester := &model.User{Role: model.RoleTester}

	require.NoError(t, ApplyEmulation(tester, rolePtr(model.RoleWorker)))
	assert.Equal(t, model.RoleWorker, ResolveEffectiveRole(tester))
	assert.True(t, IsEmulating(tester))

	require.NoError(t, ApplyEmulation(tester, nil))
	assert.Nil(t, tester.EmulatingRole)
	assert.Equal(t, model.RoleTester, ResolveEffectiveRole(tester))
}

func TestApplyEmulation_NonTesterDenied(t *testing.T) {
	manager := &model.User{Role: model.RoleManager}

	err := ApplyEmulation(manager, rolePtr(model.RoleGuest))
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
	assert.Nil(t, manager.EmulatingRole)
}

func TestApplyEmulation_UnknownRole(t *testing.T) {
	tester := &model.User{Role: model.RoleTester}

	err := ApplyEmulation(tester, rolePtr("overlord"))
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Nil(t, tester.EmulatingRole)
}

func TestHasPermission_ManageUserRoles(t *testing.T) {
	assert.False(t, HasPermission(model.RoleGuest, ActionManageUserRoles))
	assert.True(t, HasPermission(model.RoleManager, ActionManageUserRoles))
	assert.True(t, HasPermission(model.RoleTester, ActionManageUserRoles))
}

func TestHasPermission_TesterIsUnionPlusEmulate(t *testing.T) {
	for _, role := range []model.Role{model.RoleGuest, model.RoleCustomer, model.RoleWorker, model.RoleManager, model.RoleDev} {
		for _, action := range PermissionsFor(role) {
			assert.True(t, HasPermission(model.RoleTester, action), "tester should have %s from %s", action, role)
		}
	}
	assert.True(t, HasPermission(model.RoleTester, ActionEmulateRoles))

	for _, role := range []model.Role{model.RoleGuest, model.RoleCustomer, model.RoleWorker, model.RoleManager, model.RoleDev} {
		assert.False(t, HasPermission(role, ActionEmulateRoles), "%s should not emulate", role)
	}
}

func TestHasPermission_UnknownRole(t *testing.T) {
	assert.False(t, HasPermission("overlord", ActionViewEvents))
	assert.Empty(t, PermissionsFor("overlord"))
}

func TestCan_TagsGrantOnTopOfRole(t *testing.T) {
	customer := &model.User{Role: model.RoleCustomer, Tags: model.Capabilities{Worker: true}}

	assert.True(t, Can(customer, ActionRequestShiftHours))
	assert.False(t, Can(customer, ActionAssignWorkers))

	customer.Tags.Manager = true
	assert.True(t, Can(customer, ActionAssignWorkers))
}

func TestCan_TagsIgnoredWhileEmulating(t *testing.T) {
	tester := &model.User{
		Role:          model.RoleTester,
		EmulatingRole: rolePtr(model.RoleGuest),
		Tags:          model.Capabilities{Manager: true},
	}

	assert.False(t, Can(tester, ActionAssignWorkers))
	assert.True(t, IsSuperuser(tester))
}

func TestIsReviewer(t *testing.T) {
	assert.True(t, IsReviewer(&model.User{Role: model.RoleDev}))
	assert.True(t, IsReviewer(&model.User{Role: model.RoleWorker, Tags: model.Capabilities{Dev: true}}))
	assert.True(t, IsReviewer(&model.User{Role: model.RoleTester}))
	assert.False(t, IsReviewer(&model.User{Role: model.RoleManager}))
	assert.False(t, IsReviewer(nil))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("approve_events")
	assert.True(t, ok)
	assert.Equal(t, ActionApproveEvents, a)

	_, ok = ParseAction("launch_rockets")
	assert.False(t, ok)
}
