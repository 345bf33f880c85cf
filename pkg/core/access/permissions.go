package access

import (
	"sort"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// Action identifies one permission-gated operation
type Action string

const (
	ActionViewShifts            Action = "view_shifts"
	ActionRequestShiftHours     Action = "request_shift_hours"
	ActionApproveWorkerRequests Action = "approve_worker_requests"
	ActionAssignWorkers         Action = "assign_workers"
	ActionManageShifts          Action = "manage_shifts"
	ActionViewEvents            Action = "view_events"
	ActionCreateEvents          Action = "create_events"
	ActionApproveEvents         Action = "approve_events"
	ActionViewCourses           Action = "view_courses"
	ActionEnrollCourses         Action = "enroll_courses"
	ActionManageCourses         Action = "manage_courses"
	ActionRentTools             Action = "rent_tools"
	ActionApproveRentals        Action = "approve_rentals"
	ActionSubmitSuggestions     Action = "submit_suggestions"
	ActionReviewSuggestions     Action = "review_suggestions"
	ActionViewReports           Action = "view_reports"
	ActionManageUserRoles       Action = "manage_user_roles"
	ActionEmulateRoles          Action = "emulate_roles"
)

// ActionSet is an unordered set of actions
type ActionSet map[Action]struct{}

func newActionSet(actions ...Action) ActionSet {
	set := make(ActionSet, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

func union(sets ...ActionSet) ActionSet {
	out := make(ActionSet)
	for _, set := range sets {
		for a := range set {
			out[a] = struct{}{}
		}
	}
	return out
}

var (
	guestActions = newActionSet(
		ActionViewEvents,
		ActionViewCourses,
		ActionSubmitSuggestions,
	)

	customerActions = newActionSet(
		ActionViewEvents,
		ActionViewCourses,
		ActionEnrollCourses,
		ActionRentTools,
		ActionSubmitSuggestions,
	)

	workerActions = newActionSet(
		ActionViewEvents,
		ActionViewCourses,
		ActionViewShifts,
		ActionRequestShiftHours,
		ActionCreateEvents,
		ActionSubmitSuggestions,
	)

	managerActions = newActionSet(
		ActionViewEvents,
		ActionViewCourses,
		ActionViewShifts,
		ActionCreateEvents,
		ActionApproveEvents,
		ActionManageShifts,
		ActionAssignWorkers,
		ActionApproveWorkerRequests,
		ActionManageCourses,
		ActionApproveRentals,
		ActionViewReports,
		ActionManageUserRoles,
		ActionSubmitSuggestions,
	)

	devActions = union(guestActions, customerActions, workerActions, managerActions,
		newActionSet(ActionReviewSuggestions))

	testerActions = union(devActions, newActionSet(ActionEmulateRoles))
)

// rolePermissions is the static permission table. Adding a role or an action
// is an edit to this table only.
var rolePermissions = map[model.Role]ActionSet{
	model.RoleGuest:    guestActions,
	model.RoleCustomer: customerActions,
	model.RoleWorker:   workerActions,
	model.RoleManager:  managerActions,
	model.RoleDev:      devActions,
	model.RoleTester:   testerActions,
}

// tagPermissions lists what each capability tag grants on top of the role
var tagPermissions = []struct {
	has     func(model.Capabilities) bool
	actions ActionSet
}{
	{func(c model.Capabilities) bool { return c.Worker }, workerActions},
	{func(c model.Capabilities) bool { return c.Manager }, managerActions},
	{func(c model.Capabilities) bool { return c.Instructor }, newActionSet(ActionManageCourses)},
	{func(c model.Capabilities) bool { return c.RentalApproved }, newActionSet(ActionRentTools)},
	{func(c model.Capabilities) bool { return c.Dev }, newActionSet(ActionReviewSuggestions)},
}

// HasPermission looks the action up in the static table for the role.
// Unknown roles have no permissions.
func HasPermission(role model.Role, action Action) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return set.Has(action)
}

// Can reports whether the user may perform the action, combining the effective
// role with capability tags. Tags are ignored while a tester is emulating so the
// emulated role is seen exactly as that role.
func Can(user *model.User, action Action) bool {
	if user == nil {
		return false
	}
	if HasPermission(ResolveEffectiveRole(user), action) {
		return true
	}
	if IsEmulating(user) {
		return false
	}
	for _, grant := range tagPermissions {
		if grant.has(user.Tags) && grant.actions.Has(action) {
			return true
		}
	}
	return false
}

// ParseAction maps a boundary string to a known action
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	for _, set := range rolePermissions {
		if set.Has(a) {
			return a, true
		}
	}
	return "", false
}

// PermissionsFor returns the sorted actions granted to the role
func PermissionsFor(role model.Role) []Action {
	set := rolePermissions[role]
	actions := make([]Action, 0, len(set))
	for a := range set {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}
