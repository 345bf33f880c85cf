package access

import (
	"fmt"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// ResolveEffectiveRole returns the role used for permission checks.
// A tester with an emulating role set is treated as that role; everyone else
// gets their legacy role, or guest when none is recorded.
func ResolveEffectiveRole(user *model.User) model.Role {
	if user == nil {
		return model.RoleGuest
	}
	if user.Role == model.RoleTester && user.EmulatingRole != nil && *user.EmulatingRole != "" {
		return *user.EmulatingRole
	}
	if user.Role == "" {
		return model.RoleGuest
	}
	return user.Role
}

// IsEmulating reports whether the tester overlay is active for the user
func IsEmulating(user *model.User) bool {
	return ResolveEffectiveRole(user) != roleOrGuest(user)
}

// IsSuperuser reports whether the user holds the tester escape hatch.
// It reads the legacy role, not the effective role, so a tester emulating a
// guest can still switch back and still bypass the table for role updates.
func IsSuperuser(user *model.User) bool {
	return user != nil && user.Role == model.RoleTester
}

// IsReviewer reports whether the user may review and list every suggestion
func IsReviewer(user *model.User) bool {
	if user == nil {
		return false
	}
	if IsSuperuser(user) {
		return true
	}
	if ResolveEffectiveRole(user) == model.RoleDev {
		return true
	}
	return !IsEmulating(user) && user.Tags.Dev
}

// ApplyEmulation sets or clears the emulating role on the acting user's own record.
// Only testers may emulate.
func ApplyEmulation(actor *model.User, role *model.Role) error {
	if !IsSuperuser(actor) {
		return fmt.Errorf("only testers can emulate roles: %w", model.ErrPermissionDenied)
	}

	if role == nil || *role == "" {
		actor.EmulatingRole = nil
		return nil
	}

	if !role.IsValid() {
		return fmt.Errorf("unknown role %q: %w", *role, model.ErrValidation)
	}

	r := *role
	actor.EmulatingRole = &r
	return nil
}

func roleOrGuest(user *model.User) model.Role {
	if user == nil || user.Role == "" {
		return model.RoleGuest
	}
	return user.Role
}
