// ABOUTME: Journal entries for operator mutations against the admin API
// ABOUTME: Records who changed which client or plan, and when

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuditAction is a journaled mutation.
type AuditAction string

const (
	AuditOnboardClient AuditAction = "onboard_client"
	AuditCreateClient  AuditAction = "create_client"
	AuditUpdateClient  AuditAction = "update_client"
	AuditToggleClient  AuditAction = "toggle_client"
	AuditAssignPlans   AuditAction = "assign_plans"
	AuditDeleteClient  AuditAction = "delete_client"
	AuditCreatePlan    AuditAction = "create_plan"
	AuditUpdatePlan    AuditAction = "update_plan"
	AuditDeletePlan    AuditAction = "delete_plan"
)

// ValidAuditActions lists every action the journal accepts
var ValidAuditActions = []AuditAction{
	AuditOnboardClient,
	AuditCreateClient,
	AuditUpdateClient,
	AuditToggleClient,
	AuditAssignPlans,
	AuditDeleteClient,
	AuditCreatePlan,
	AuditUpdatePlan,
	AuditDeletePlan,
}

// Valid reports whether a is one of ValidAuditActions
func (a AuditAction) Valid() bool {
	return slices.Contains(ValidAuditActions, a)
}

// Target types
const (
	TargetClient = "client"
	TargetPlan   = "plan"
)

// AuditEntry is one journaled mutation. Detail carries action specific
// context such as the plan ids assigned or the deletion cleanup counts.
type AuditEntry struct {
	ID         string
	Actor      string
	Action     AuditAction
	TargetType string // TargetClient or TargetPlan
	TargetID   string
	Timestamp  time.Time
	Detail     map[string]any
}

// AuditFilter narrows ListAuditLog. Nil fields match everything; Limit
// defaults to 100 and is capped at 1000.
type AuditFilter struct {
	Since      *time.Time
	Until      *time.Time
	Actor      *string
	Action     *AuditAction
	TargetType *string
	TargetID   *string
	Limit      int
}

// tsLayout is fixed width so text ordering matches time ordering
const tsLayout = "2006-01-02T15:04:05.000000000Z"

const (
	defaultJournalLimit = 100
	maxJournalLimit     = 1000
)

// AppendAuditLog records e, filling in ID and Timestamp when unset
func (s *SQLiteStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	if !e.Action.Valid() {
		return fmt.Errorf("unknown audit action %q", e.Action)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	detail, err := encodeDetail(e.Detail)
	if err != nil {
		return err
	}

	const insert = `INSERT INTO audit_log
		(audit_id, actor, action, target_type, target_id, ts, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, insert,
		e.ID, e.Actor, string(e.Action), e.TargetType, e.TargetID,
		e.Timestamp.UTC().Format(tsLayout), detail,
	); err != nil {
		return fmt.Errorf("recording %s for %s: %w", e.Action, e.TargetID, err)
	}

	s.logger.Debug("journaled", "action", e.Action, "target", e.TargetType+"/"+e.TargetID, "actor", e.Actor)
	return nil
}

// encodeDetail returns nil for an empty detail so the column stays NULL
func encodeDetail(detail map[string]any) (sql.NullString, error) {
	if len(detail) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding journal detail: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// where renders the filter as a conjunction of placeholders
func (f AuditFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		conds = append(conds, cond)
		args = append(args, v)
	}
	if f.Since != nil {
		add("ts >= ?", f.Since.UTC().Format(tsLayout))
	}
	if f.Until != nil {
		add("ts <= ?", f.Until.UTC().Format(tsLayout))
	}
	if f.Actor != nil {
		add("actor = ?", *f.Actor)
	}
	if f.Action != nil {
		add("action = ?", string(*f.Action))
	}
	if f.TargetType != nil {
		add("target_type = ?", *f.TargetType)
	}
	if f.TargetID != nil {
		add("target_id = ?", *f.TargetID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// limit clamps f.Limit to 1..maxJournalLimit, defaulting when unset
func (f AuditFilter) limit() int {
	if f.Limit <= 0 {
		return defaultJournalLimit
	}
	return min(f.Limit, maxJournalLimit)
}

// ListAuditLog returns entries matching the filter, newest first.
func (s *SQLiteStore) ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	where, args := f.where()
	query := `SELECT audit_id, actor, action, target_type, target_id, ts, detail_json
		FROM audit_log` + where + ` ORDER BY ts DESC, rowid DESC LIMIT ?`
	args = append(args, f.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []AuditEntry{}
	for rows.Next() {
		var (
			e      AuditEntry
			action string
			ts     string
			detail sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Actor, &action, &e.TargetType, &e.TargetID, &ts, &detail); err != nil {
			return nil, fmt.Errorf("reading journal row: %w", err)
		}
		e.Action = AuditAction(action)
		if e.Timestamp, err = time.Parse(tsLayout, ts); err != nil {
			return nil, fmt.Errorf("journal entry %s has bad timestamp %q: %w", e.ID, ts, err)
		}
		if detail.Valid {
			if err := json.Unmarshal([]byte(detail.String), &e.Detail); err != nil {
				return nil, fmt.Errorf("journal entry %s has bad detail: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return entries, nil
}
