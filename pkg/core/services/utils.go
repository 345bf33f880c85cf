package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/db"
)

// GmailClient defines the email operations used for notifications
type GmailClient interface {
	SendEmail(to, subject, body string) error
}

// Overridden in tests
var (
	timeNow = time.Now
	newID   = func() string { return uuid.New().String() }
)

var validate = validator.New()

// validateInput checks struct tags on an operation's input
func validateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	return nil
}

// resolveActor loads the user behind the subject. A missing subject or one
// that has never been upserted is unauthenticated.
func resolveActor(ctx context.Context, store db.UserStore, subject string) (*model.User, error) {
	if subject == "" {
		return nil, fmt.Errorf("no identity supplied: %w", model.ErrUnauthenticated)
	}

	users, err := store.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	actor := findUserBySubject(users, subject)
	if actor == nil {
		return nil, fmt.Errorf("unknown subject %q: %w", subject, model.ErrUnauthenticated)
	}
	return actor, nil
}

func findUserBySubject(users []model.User, subject string) *model.User {
	for i := range users {
		if users[i].Subject == subject {
			return &users[i]
		}
	}
	return nil
}

func findUserByID(users []model.User, id string) *model.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

func findTemplate(templates []model.ShiftTemplate, id string) *model.ShiftTemplate {
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i]
		}
	}
	return nil
}

func findAssignment(assignments []model.ShiftAssignment, id string) *model.ShiftAssignment {
	for i := range assignments {
		if assignments[i].ID == id {
			return &assignments[i]
		}
	}
	return nil
}

func findRequest(requests []model.WorkerHourRequest, id string) *model.WorkerHourRequest {
	for i := range requests {
		if requests[i].ID == id {
			return &requests[i]
		}
	}
	return nil
}

// notify emails a user. Failures are logged and never fail the operation.
func notify(logger *zap.Logger, gmail GmailClient, to *model.User, subject, body string) {
	if gmail == nil || to == nil || to.Email == "" {
		return
	}
	if err := gmail.SendEmail(to.Email, subject, body); err != nil {
		logger.Warn("Failed to send notification",
			zap.String("user_id", to.ID),
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	logger.Debug("Notification sent", zap.String("user_id", to.ID), zap.String("subject", subject))
}

// keyedMutex serializes work per key within the process
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until the key is free and returns its unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
