// ABOUTME: Mock journal for testing
// ABOUTME: Allows workflow tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Journal for testing.
type MockStore struct {
	mu      sync.Mutex
	entries []AuditEntry

	// Err, when set, is returned by every append
	Err error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// AppendAuditLog records the entry in memory.
func (m *MockStore) AppendAuditLog(_ context.Context, e *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	m.entries = append(m.entries, *e)
	return nil
}

// Entries returns a copy of everything appended, oldest first.
func (m *MockStore) Entries() []AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Actions returns the action of every entry, oldest first.
func (m *MockStore) Actions() []AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AuditAction, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}
