package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// MemoryDB keeps every collection in process memory. Each call holds one lock
// for its whole read-modify-write, so calls are atomic with respect to each other.
type MemoryDB struct {
	mu          sync.Mutex
	seq         int64
	users       []model.User
	suggestions []model.Suggestion
	templates   []model.ShiftTemplate
	assignments []model.ShiftAssignment
	requests    []model.WorkerHourRequest
}

// NewMemoryDB creates an empty in-memory database
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{}
}

// Close is a no-op for the in-memory database
func (m *MemoryDB) Close() {}

// GetUsers retrieves all user records
func (m *MemoryDB) GetUsers(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]model.User, len(m.users))
	for i, u := range m.users {
		users[i] = copyUser(u)
	}
	return users, nil
}

// InsertUser inserts a new user record
func (m *MemoryDB) InsertUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ID == user.ID || u.Subject == user.Subject {
			return fmt.Errorf("user %s already exists: %w", user.Subject, model.ErrConflict)
		}
	}
	m.users = append(m.users, copyUser(*user))
	return nil
}

// UpdateUser overwrites an existing user record
func (m *MemoryDB) UpdateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if m.users[i].ID == user.ID {
			m.users[i] = copyUser(*user)
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", user.ID, model.ErrNotFound)
}

// GetSuggestions retrieves all suggestion records
func (m *MemoryDB) GetSuggestions(ctx context.Context) ([]model.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	suggestions := make([]model.Suggestion, len(m.suggestions))
	for i, s := range m.suggestions {
		suggestions[i] = copySuggestion(s)
	}
	return suggestions, nil
}

// InsertSuggestionGrouped inserts a new suggestion and relinks its similarity
// group under one lock. Nothing is written when the links name an unknown id.
func (m *MemoryDB) InsertSuggestionGrouped(ctx context.Context, suggestion *model.Suggestion, link LinkFunc) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := make(map[string]int, len(m.suggestions))
	var members []string
	for i, s := range m.suggestions {
		if s.ID == suggestion.ID {
			return nil, fmt.Errorf("suggestion %s already exists: %w", suggestion.ID, model.ErrConflict)
		}
		index[s.ID] = i
		if s.SimilarityHash == suggestion.SimilarityHash {
			members = append(members, s.ID)
		}
	}
	members = append(members, suggestion.ID)
	index[suggestion.ID] = len(m.suggestions)

	related := link(members)
	for id := range related {
		if _, ok := index[id]; !ok {
			return nil, fmt.Errorf("suggestion %s: %w", id, model.ErrNotFound)
		}
	}

	m.seq++
	suggestion.Seq = m.seq
	if ids, ok := related[suggestion.ID]; ok {
		suggestion.RelatedSuggestions = append([]string{}, ids...)
	}
	m.suggestions = append(m.suggestions, copySuggestion(*suggestion))
	for id, ids := range related {
		m.suggestions[index[id]].RelatedSuggestions = append([]string{}, ids...)
	}
	return related, nil
}

// UpdateSuggestionReview stores the review fields of a suggestion
func (m *MemoryDB) UpdateSuggestionReview(ctx context.Context, suggestion *model.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.suggestions {
		s := &m.suggestions[i]
		if s.ID == suggestion.ID {
			s.Status = suggestion.Status
			s.ReviewedBy = suggestion.ReviewedBy
			s.ReviewNotes = suggestion.ReviewNotes
			s.ImplementationDate = suggestion.ImplementationDate
			return nil
		}
	}
	return fmt.Errorf("suggestion %s: %w", suggestion.ID, model.ErrNotFound)
}

// GetShiftTemplates retrieves all shift template records
func (m *MemoryDB) GetShiftTemplates(ctx context.Context) ([]model.ShiftTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	templates := make([]model.ShiftTemplate, len(m.templates))
	for i, t := range m.templates {
		templates[i] = copyTemplate(t)
	}
	return templates, nil
}

// InsertShiftTemplate inserts a new shift template
func (m *MemoryDB) InsertShiftTemplate(ctx context.Context, template *model.ShiftTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.templates = append(m.templates, copyTemplate(*template))
	return nil
}

// GetAssignments retrieves all shift assignment records
func (m *MemoryDB) GetAssignments(ctx context.Context) ([]model.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assignments := make([]model.ShiftAssignment, len(m.assignments))
	for i, a := range m.assignments {
		assignments[i] = copyAssignment(a)
	}
	return assignments, nil
}

// InsertAssignment inserts a new shift assignment
func (m *MemoryDB) InsertAssignment(ctx context.Context, assignment *model.ShiftAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.assignments = append(m.assignments, copyAssignment(*assignment))
	return nil
}

// UpdateAssignment stores a transition if the stored status still matches from
func (m *MemoryDB) UpdateAssignment(ctx context.Context, assignment *model.ShiftAssignment, from model.AssignmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.assignments {
		if m.assignments[i].ID != assignment.ID {
			continue
		}
		if m.assignments[i].Status != from {
			return fmt.Errorf("assignment %s is now %s: %w", assignment.ID, m.assignments[i].Status, model.ErrInvalidTransition)
		}
		m.assignments[i] = copyAssignment(*assignment)
		return nil
	}
	return fmt.Errorf("assignment %s: %w", assignment.ID, model.ErrNotFound)
}

// GetHourRequests retrieves all worker hour request records
func (m *MemoryDB) GetHourRequests(ctx context.Context) ([]model.WorkerHourRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	requests := make([]model.WorkerHourRequest, len(m.requests))
	for i, r := range m.requests {
		requests[i] = copyRequest(r)
	}
	return requests, nil
}

// InsertHourRequest inserts a new worker hour request
func (m *MemoryDB) InsertHourRequest(ctx context.Context, request *model.WorkerHourRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, copyRequest(*request))
	return nil
}

// ReviewHourRequest stores the reviewed request and its created assignment together
func (m *MemoryDB) ReviewHourRequest(ctx context.Context, request *model.WorkerHourRequest, created *model.ShiftAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.requests {
		if m.requests[i].ID != request.ID {
			continue
		}
		if m.requests[i].Status != model.RequestPending {
			return fmt.Errorf("request %s is now %s: %w", request.ID, m.requests[i].Status, model.ErrInvalidTransition)
		}
		if created != nil {
			m.assignments = append(m.assignments, copyAssignment(*created))
		}
		m.requests[i] = copyRequest(*request)
		return nil
	}
	return fmt.Errorf("request %s: %w", request.ID, model.ErrNotFound)
}

func copyUser(u model.User) model.User {
	if u.EmulatingRole != nil {
		r := *u.EmulatingRole
		u.EmulatingRole = &r
	}
	return u
}

func copySuggestion(s model.Suggestion) model.Suggestion {
	s.RelatedSuggestions = append([]string{}, s.RelatedSuggestions...)
	return s
}

func copyTemplate(t model.ShiftTemplate) model.ShiftTemplate {
	t.Weekdays = append(t.Weekdays[:0:0], t.Weekdays...)
	t.HourlyRequirements = append(t.HourlyRequirements[:0:0], t.HourlyRequirements...)
	return t
}

func copyAssignment(a model.ShiftAssignment) model.ShiftAssignment {
	a.Hours = append(a.Hours[:0:0], a.Hours...)
	return a
}

func copyRequest(r model.WorkerHourRequest) model.WorkerHourRequest {
	r.Hours = append(r.Hours[:0:0], r.Hours...)
	return r
}
