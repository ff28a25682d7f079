// ABOUTME: Tests for journal setup and the in-memory mock
// ABOUTME: Provides the shared setupTestStore helper

package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite journal for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func generateTestID(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}

func TestSQLiteStore_CreatesNestedDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "a", "b", "journal.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening an existing journal keeps the schema
	store, err = NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.ListAuditLog(context.Background(), AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSQLiteStore_ImplementsJournal(t *testing.T) {
	var _ Journal = setupTestStore(t)
	var _ Journal = NewMockStore()
}

func TestMockStore_RecordsEntries(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.AppendAuditLog(ctx, &AuditEntry{Action: AuditCreatePlan, TargetType: TargetPlan, TargetID: "p1"}))
	require.NoError(t, m.AppendAuditLog(ctx, &AuditEntry{Action: AuditDeletePlan, TargetType: TargetPlan, TargetID: "p1"}))

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
	assert.Equal(t, []AuditAction{AuditCreatePlan, AuditDeletePlan}, m.Actions())
}

func TestMockStore_InjectedError(t *testing.T) {
	m := NewMockStore()
	m.Err = errors.New("disk full")

	err := m.AppendAuditLog(context.Background(), &AuditEntry{Action: AuditCreatePlan})
	require.Error(t, err)
	assert.Empty(t, m.Entries())
}
