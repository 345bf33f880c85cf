package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/pkg/core/access"
	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/db"
)

// CurrentUser is a user together with the role their permissions are checked against
type CurrentUser struct {
	User          *model.User     `json:"user"`
	EffectiveRole model.Role      `json:"effectiveRole"`
	Emulating     bool            `json:"emulating"`
	Permissions   []access.Action `json:"permissions"`
}

// UpsertUserInput is the profile supplied by the identity provider
type UpsertUserInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

// GetCurrentUser returns the user behind the subject, or nil when the subject
// is empty or has never been seen.
func GetCurrentUser(ctx context.Context, database db.UserStore, logger *zap.Logger, subject string) (*CurrentUser, error) {
	actor, err := resolveActor(ctx, database, subject)
	if errors.Is(err, model.ErrUnauthenticated) {
		logger.Debug("No current user", zap.String("subject", subject))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	role := access.ResolveEffectiveRole(actor)
	return &CurrentUser{
		User:          actor,
		EffectiveRole: role,
		Emulating:     access.IsEmulating(actor),
		Permissions:   access.PermissionsFor(role),
	}, nil
}

// UpsertUser creates the user as a guest on first contact and refreshes the
// display name and email afterwards. Role and tags are never changed here.
func UpsertUser(ctx context.Context, database db.UserStore, logger *zap.Logger, subject string, input UpsertUserInput) (*model.User, error) {
	if subject == "" {
		return nil, fmt.Errorf("no identity supplied: %w", model.ErrUnauthenticated)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	users, err := database.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	if existing := findUserBySubject(users, subject); existing != nil {
		existing.Name = input.Name
		existing.Email = input.Email
		if err := database.UpdateUser(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		logger.Debug("Updated user profile", zap.String("user_id", existing.ID))
		return existing, nil
	}

	user := &model.User{
		ID:        newID(),
		Subject:   subject,
		Name:      input.Name,
		Email:     input.Email,
		Role:      model.RoleGuest,
		CreatedAt: timeNow(),
	}
	if err := database.InsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	logger.Info("Created user", zap.String("user_id", user.ID), zap.String("subject", subject))
	return user, nil
}

// SwitchEmulatingRole sets or clears the tester's emulated role on their own record.
// A nil role clears the overlay.
func SwitchEmulatingRole(ctx context.Context, database db.UserStore, logger *zap.Logger, subject string, role *model.Role) (*model.User, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}

	if err := access.ApplyEmulation(actor, role); err != nil {
		return nil, err
	}

	if err := database.UpdateUser(ctx, actor); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	logger.Info("Switched emulating role",
		zap.String("user_id", actor.ID),
		zap.String("effective_role", string(access.ResolveEffectiveRole(actor))))
	return actor, nil
}

// UpdateUserRole overwrites the target's legacy role. The actor needs
// manage_user_roles, or the tester escape hatch.
func UpdateUserRole(ctx context.Context, database db.UserStore, logger *zap.Logger, subject, targetID string, newRole model.Role) (*model.User, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}

	if !access.IsSuperuser(actor) && !access.Can(actor, access.ActionManageUserRoles) {
		return nil, fmt.Errorf("user %s cannot manage roles: %w", actor.ID, model.ErrPermissionDenied)
	}
	if !newRole.IsValid() {
		return nil, fmt.Errorf("unknown role %q: %w", newRole, model.ErrValidation)
	}

	target, err := loadUser(ctx, database, targetID)
	if err != nil {
		return nil, err
	}

	previous := target.Role
	target.Role = newRole
	if err := database.UpdateUser(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	logger.Info("Updated user role",
		zap.String("actor_id", actor.ID),
		zap.String("target_id", target.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(newRole)))
	return target, nil
}

// SetCapabilityTags replaces the target's capability tags without touching the role
func SetCapabilityTags(ctx context.Context, database db.UserStore, logger *zap.Logger, subject, targetID string, tags model.Capabilities) (*model.User, error) {
	actor, err := resolveActor(ctx, database, subject)
	if err != nil {
		return nil, err
	}

	if !access.IsSuperuser(actor) && !access.Can(actor, access.ActionManageUserRoles) {
		return nil, fmt.Errorf("user %s cannot manage tags: %w", actor.ID, model.ErrPermissionDenied)
	}

	target, err := loadUser(ctx, database, targetID)
	if err != nil {
		return nil, err
	}

	target.Tags = tags
	if err := database.UpdateUser(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	logger.Info("Updated capability tags", zap.String("actor_id", actor.ID), zap.String("target_id", target.ID))
	return target, nil
}

// CheckPermission reports whether the caller may perform the named action.
// Unknown actions and unknown callers are simply not permitted.
func CheckPermission(ctx context.Context, database db.UserStore, logger *zap.Logger, subject, action string) (bool, error) {
	a, ok := access.ParseAction(action)
	if !ok {
		logger.Debug("Unknown action", zap.String("action", action))
		return false, nil
	}

	actor, err := resolveActor(ctx, database, subject)
	if errors.Is(err, model.ErrUnauthenticated) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return access.Can(actor, a), nil
}

func loadUser(ctx context.Context, database db.UserStore, id string) (*model.User, error) {
	users, err := database.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	user := findUserByID(users, id)
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	return user, nil
}

// SeedUsers inserts each seed whose subject has no user yet and returns how
// many were created. Existing users are left untouched.
func SeedUsers(ctx context.Context, database db.UserStore, logger *zap.Logger, seeds []model.User) (int, error) {
	users, err := database.GetUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	created := 0
	for _, seed := range seeds {
		if findUserBySubject(users, seed.Subject) != nil {
			continue
		}
		if !seed.Role.IsValid() {
			return created, fmt.Errorf("seed user %s has unknown role %q: %w", seed.Subject, seed.Role, model.ErrValidation)
		}

		user := seed
		user.ID = newID()
		user.EmulatingRole = nil
		user.CreatedAt = timeNow()
		if err := database.InsertUser(ctx, &user); err != nil {
			return created, fmt.Errorf("failed to insert seed user %s: %w", seed.Subject, err)
		}
		users = append(users, user)
		created++

		logger.Info("Seeded user", zap.String("user_id", user.ID), zap.String("subject", user.Subject), zap.String("role", string(user.Role)))
	}

	return created, nil
}
