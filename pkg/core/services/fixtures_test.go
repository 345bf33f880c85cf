package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/staff-ops/pkg/core/model"
	"github.com/jakechorley/staff-ops/pkg/db"
)

var fixedNow = time.Date(2025, 9, 20, 9, 30, 0, 0, time.UTC)

const (
	subManager  = "sub-manager"
	subWorker   = "sub-worker"
	subWorker2  = "sub-worker2"
	subTester   = "sub-tester"
	subDev      = "sub-dev"
	subGuest    = "sub-guest"
	subTaggedDv = "sub-tagged-dev"
	templateID  = "tmpl-front-desk"
)

// mockGmailClient records every email it is asked to send
type mockGmailClient struct {
	mu         sync.Mutex
	sentEmails []string
	err        error
}

func (m *mockGmailClient) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sentEmails = append(m.sentEmails, to)
	return nil
}

// failingStore wraps a MemoryDB and fails the named calls
type failingStore struct {
	*db.MemoryDB
	failGetUsers bool
	// failLinking makes the group links name an unknown suggestion, failing the insert inside the store
	failLinking bool
}

func (f *failingStore) GetUsers(ctx context.Context) ([]model.User, error) {
	if f.failGetUsers {
		return nil, errors.New("connection reset")
	}
	return f.MemoryDB.GetUsers(ctx)
}

func (f *failingStore) InsertSuggestionGrouped(ctx context.Context, suggestion *model.Suggestion, link db.LinkFunc) (map[string][]string, error) {
	if f.failLinking {
		broken := func(memberIDs []string) map[string][]string {
			related := link(memberIDs)
			related["deleted-suggestion"] = memberIDs
			return related
		}
		return f.MemoryDB.InsertSuggestionGrouped(ctx, suggestion, broken)
	}
	return f.MemoryDB.InsertSuggestionGrouped(ctx, suggestion, link)
}

// setupStore freezes time and ids and seeds one user per role plus a
// Monday 09:00-20:00 template.
func setupStore(t *testing.T) *db.MemoryDB {
	t.Helper()

	prevNow, prevID := timeNow, newID
	var counter atomic.Int64
	timeNow = func() time.Time { return fixedNow }
	newID = func() string { return fmt.Sprintf("id-%d", counter.Add(1)) }
	t.Cleanup(func() {
		timeNow = prevNow
		newID = prevID
	})

	ctx := context.Background()
	store := db.NewMemoryDB()

	users := []model.User{
		{ID: "manager", Subject: subManager, Name: "Morgan Manager", Email: "manager@example.com", Role: model.RoleManager},
		{ID: "worker", Subject: subWorker, Name: "Wren Worker", Email: "worker@example.com", Role: model.RoleWorker},
		{ID: "worker2", Subject: subWorker2, Name: "Wes Worker", Email: "worker2@example.com", Role: model.RoleWorker},
		{ID: "tester", Subject: subTester, Name: "Tay Tester", Role: model.RoleTester},
		{ID: "dev", Subject: subDev, Name: "Dana Dev", Role: model.RoleDev},
		{ID: "guest", Subject: subGuest, Name: "Gale Guest", Role: model.RoleGuest},
		{ID: "tagged-dev", Subject: subTaggedDv, Name: "Cam Customer", Role: model.RoleCustomer, Tags: model.Capabilities{Dev: true}},
	}
	for _, u := range users {
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

	return store
}

func hours(start, end string) []model.HourRange {
	return []model.HourRange{{Start: start, End: end}}
}
