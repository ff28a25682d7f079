// ABOUTME: Tests for journal append and list operations
// ABOUTME: Covers Append and List with filtering for the audit_log table

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditStore_Append(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		Actor:      "ops@platform.test",
		Action:     AuditDeleteClient,
		TargetType: TargetClient,
		TargetID:   "client-456",
		Detail:     map[string]any{"companyName": "Acme Corp"},
	}

	err := store.AppendAuditLog(ctx, entry)
	require.NoError(t, err)

	// Should have generated ID and timestamp
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme Corp", entries[0].Detail["companyName"])
	assert.True(t, entry.Timestamp.Equal(entries[0].Timestamp))
}

func TestAuditStore_Append_RejectsUnknownAction(t *testing.T) {
	store := setupTestStore(t)

	err := store.AppendAuditLog(context.Background(), &AuditEntry{
		Actor:      "ops",
		Action:     AuditAction("drop_tables"),
		TargetType: TargetClient,
		TargetID:   "c1",
	})
	require.Error(t, err)
}

func TestAuditStore_List_NoFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i, action := range []AuditAction{AuditOnboardClient, AuditAssignPlans, AuditToggleClient} {
		entry := &AuditEntry{
			Actor:      "ops",
			Action:     action,
			TargetType: TargetClient,
			TargetID:   generateTestID("client", i),
			Timestamp:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.AppendAuditLog(ctx, entry))
	}

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// Should be newest first
	assert.Equal(t, AuditToggleClient, entries[0].Action)
}

func TestAuditStore_List_SameInstantKeepsInsertOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []AuditAction{AuditCreatePlan, AuditUpdatePlan} {
		require.NoError(t, store.AppendAuditLog(ctx, &AuditEntry{
			Actor:      "ops",
			Action:     action,
			TargetType: TargetPlan,
			TargetID:   generateTestID("plan", i),
			Timestamp:  ts,
		}))
	}

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, AuditUpdatePlan, entries[0].Action)
}

// seedJournal writes a fixed history ten minutes apart, oldest first
func seedJournal(t *testing.T, s *SQLiteStore, base time.Time) {
	t.Helper()
	history := []AuditEntry{
		{Actor: "alice", Action: AuditOnboardClient, TargetType: TargetClient, TargetID: "c-1"},
		{Actor: "bob", Action: AuditCreatePlan, TargetType: TargetPlan, TargetID: "p-1"},
		{Actor: "alice", Action: AuditAssignPlans, TargetType: TargetClient, TargetID: "c-1"},
		{Actor: "alice", Action: AuditDeleteClient, TargetType: TargetClient, TargetID: "c-2"},
		{Actor: "bob", Action: AuditDeleteClient, TargetType: TargetClient, TargetID: "c-1"},
	}
	for i := range history {
		e := history[i]
		e.Timestamp = base.Add(time.Duration(i) * 10 * time.Minute)
		require.NoError(t, s.AppendAuditLog(context.Background(), &e))
	}
}

func TestAuditStore_List_Filters(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	since := base.Add(15 * time.Minute)
	until := base.Add(25 * time.Minute)
	alice := "alice"
	deleted := AuditDeleteClient
	client := TargetClient
	c1 := "c-1"

	tests := []struct {
		name   string
		filter AuditFilter
		want   []AuditAction
	}{
		{"no filter", AuditFilter{}, []AuditAction{AuditDeleteClient, AuditDeleteClient, AuditAssignPlans, AuditCreatePlan, AuditOnboardClient}},
		{"since", AuditFilter{Since: &since}, []AuditAction{AuditDeleteClient, AuditDeleteClient, AuditAssignPlans}},
		{"window", AuditFilter{Since: &since, Until: &until}, []AuditAction{AuditAssignPlans}},
		{"actor", AuditFilter{Actor: &alice}, []AuditAction{AuditDeleteClient, AuditAssignPlans, AuditOnboardClient}},
		{"action", AuditFilter{Action: &deleted}, []AuditAction{AuditDeleteClient, AuditDeleteClient}},
		{"target", AuditFilter{TargetType: &client, TargetID: &c1}, []AuditAction{AuditDeleteClient, AuditAssignPlans, AuditOnboardClient}},
		{"combined", AuditFilter{Actor: &alice, Action: &deleted}, []AuditAction{AuditDeleteClient}},
		{"limit", AuditFilter{Limit: 2}, []AuditAction{AuditDeleteClient, AuditDeleteClient}},
	}

	s := setupTestStore(t)
	seedJournal(t, s, base)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.ListAuditLog(context.Background(), tt.filter)
			require.NoError(t, err)

			got := make([]AuditAction, len(entries))
			for i, e := range entries {
				got[i] = e.Action
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuditStore_List_EmptyIsNotNil(t *testing.T) {
	entries, err := setupTestStore(t).ListAuditLog(context.Background(), AuditFilter{})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestAuditStore_EmptyDetailStaysNil(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendAuditLog(ctx, &AuditEntry{
		Actor: "ops", Action: AuditToggleClient, TargetType: TargetClient, TargetID: "c-1",
		Detail: map[string]any{},
	}))

	entries, err := s.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Detail)
}

func TestAuditFilter_Limit(t *testing.T) {
	assert.Equal(t, 100, AuditFilter{}.limit())
	assert.Equal(t, 100, AuditFilter{Limit: -4}.limit())
	assert.Equal(t, 50, AuditFilter{Limit: 50}.limit())
	assert.Equal(t, 1000, AuditFilter{Limit: 5000}.limit())
}

func TestAuditFilter_Where(t *testing.T) {
	where, args := AuditFilter{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)

	actor := "alice"
	id := "c-1"
	where, args = AuditFilter{Actor: &actor, TargetID: &id}.where()
	assert.Equal(t, " WHERE actor = ? AND target_id = ?", where)
	assert.Equal(t, []any{"alice", "c-1"}, args)
}
