// ABOUTME: DeletionWorkflow: drives the deletion state machine against the backend
// ABOUTME: Exactly one preview per opening and one delete per confirmed execution

package deletion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/verify-console/internal/gateway"
	"github.com/2389/verify-console/internal/model"
	"github.com/2389/verify-console/internal/store"
)

const (
	// FallbackMessage is shown when a failed deletion carries no reason
	FallbackMessage = "Deletion failed"
	// PreviewFallbackMessage is shown when a failed preview carries no reason
	PreviewFallbackMessage = "Failed to load deletion preview"
)

// Backend is the slice of the gateway the workflow needs
type Backend interface {
	PreviewDeletion(ctx context.Context, id string) (*model.DeletionPreview, error)
	DeleteClient(ctx context.Context, id string) (*model.DeletionResult, error)
}

// Reloader refreshes the client directory
type Reloader interface {
	Reload(ctx context.Context) error
}

// Limiter tracks failed confirmations per client
type Limiter interface {
	Fail(key string) int
	Locked(key string) bool
	Reset(key string)
}

// Options configures a Workflow
type Options struct {
	Limiter Limiter
	Journal store.Journal
	Actor   func(ctx context.Context) string
	Logger  *slog.Logger
}

// Workflow is a reusable deletion dialog. Each Open starts a fresh session.
type Workflow struct {
	backend  Backend
	reloader Reloader
	limiter  Limiter
	journal  store.Journal
	actor    func(ctx context.Context) string
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates a closed workflow
func New(backend Backend, reloader Reloader, opts Options) *Workflow {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	actor := opts.Actor
	if actor == nil {
		actor = func(context.Context) string { return "operator" }
	}
	return &Workflow{
		backend:  backend,
		reloader: reloader,
		limiter:  opts.Limiter,
		journal:  opts.Journal,
		actor:    actor,
		logger:   logger.With("component", "deletion"),
	}
}

// State returns a copy of the current state
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) apply(e Event) (State, Effect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, effect, err := Transition(w.state, e)
	if err != nil {
		return w.state, EffectNone, err
	}
	w.state = next
	return next, effect, nil
}

// Open starts a session for target and fetches the preview. A preview that
// arrives after the session was closed or reopened is dropped and Open
// returns ErrSuperseded.
func (w *Workflow) Open(ctx context.Context, target model.ClientSummary) (*model.DeletionPreview, error) {
	s, _, err := w.apply(Event{Kind: EventOpen, Target: target})
	if err != nil {
		return nil, err
	}
	session := s.Session

	w.logger.Debug("loading deletion preview", "client_id", target.ID, "session", session)
	preview, perr := w.backend.PreviewDeletion(ctx, target.ID)
	if perr != nil {
		if gateway.IsAuth(perr) {
			w.abandon(session)
			return nil, perr
		}
		reason := gateway.MessageOf(perr, PreviewFallbackMessage)
		if _, _, err := w.apply(Event{Kind: EventPreviewFailed, Session: session, Reason: reason}); err != nil {
			return nil, err
		}
		w.logger.Warn("deletion preview failed", "client_id", target.ID, "reason", reason)
		return nil, fmt.Errorf("%w: %w", ErrPreviewUnavailable, perr)
	}

	s, _, err = w.apply(Event{Kind: EventPreviewLoaded, Session: session, Preview: preview})
	if err != nil {
		w.logger.Debug("discarding stale deletion preview", "client_id", target.ID, "session", session)
		return nil, err
	}
	return s.Preview, nil
}

// abandon closes the session only if it is still the current one
func (w *Workflow) abandon(session uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Session == session {
		w.state, _, _ = Transition(w.state, Event{Kind: EventAbandon})
	}
}

// Continue moves from the preview to the confirmation step
func (w *Workflow) Continue() error {
	_, _, err := w.apply(Event{Kind: EventContinue})
	return err
}

// SetConfirmation records the text the operator typed
func (w *Workflow) SetConfirmation(text string) error {
	_, _, err := w.apply(Event{Kind: EventConfirm, Text: text})
	return err
}

// CanExecute reports whether Execute would issue the delete request
func (w *Workflow) CanExecute() bool {
	s := w.State()
	if s.Phase != PhaseConfirmPending || s.Preview == nil || !s.Matches() {
		return false
	}
	return w.limiter == nil || !w.limiter.Locked(s.Target.ID)
}

// Execute issues the delete request once the typed confirmation matches.
// A mismatch counts against the client's failed-confirmation budget.
func (w *Workflow) Execute(ctx context.Context) (*Outcome, error) {
	w.mu.Lock()
	s := w.state
	if s.Phase == PhaseConfirmPending && w.limiter != nil && w.limiter.Locked(s.Target.ID) {
		w.mu.Unlock()
		return nil, ErrConfirmationLocked
	}
	next, effect, err := Transition(s, Event{Kind: EventExecute})
	if err != nil {
		w.mu.Unlock()
		if errors.Is(err, ErrConfirmationMismatch) && w.limiter != nil {
			failures := w.limiter.Fail(s.Target.ID)
			w.logger.Warn("deletion confirmation mismatch", "client_id", s.Target.ID, "failures", failures)
		}
		return nil, err
	}
	w.state = next
	w.mu.Unlock()

	if effect != EffectDelete {
		return nil, fmt.Errorf("%w: execute produced no delete", ErrInvalidTransition)
	}

	id := next.Target.ID
	w.logger.Info("deleting client", "client_id", id, "company", next.Expected())
	result, err := w.backend.DeleteClient(ctx, id)
	if err != nil {
		if gateway.IsAuth(err) {
			_, _, _ = w.apply(Event{Kind: EventAbandon})
			return nil, err
		}
		reason := gateway.MessageOf(err, FallbackMessage)
		final, _, terr := w.apply(Event{Kind: EventExecuteFailed, Reason: reason})
		if terr != nil {
			return nil, terr
		}
		w.logger.Warn("deletion failed", "client_id", id, "reason", reason)
		return final.Outcome, fmt.Errorf("deleting client: %w", err)
	}

	if !result.Success && result.Message == "" {
		result.Message = FallbackMessage
	}
	final, effect, err := w.apply(Event{Kind: EventExecuted, Result: result})
	if err != nil {
		return nil, err
	}
	if !final.Outcome.Success {
		w.logger.Warn("deletion reported failure", "client_id", id, "reason", final.Outcome.Message)
		return final.Outcome, nil
	}

	if w.limiter != nil {
		w.limiter.Reset(id)
	}
	w.journalDeletion(ctx, final)
	if effect == EffectReload && w.reloader != nil {
		if err := w.reloader.Reload(ctx); err != nil {
			w.logger.Warn("directory reload after deletion failed", "error", err)
		}
	}
	return final.Outcome, nil
}

func (w *Workflow) journalDeletion(ctx context.Context, s State) {
	detail := map[string]any{
		"companyName": s.Target.CompanyName,
		"email":       s.Target.Email,
		"message":     s.Outcome.Message,
	}
	if c := s.Outcome.Cleanup; c != nil {
		detail["identityOrgRemoved"] = c.IdentityOrgRemoved
		detail["applicants"] = c.Applicants
		detail["verifications"] = c.Verifications
		detail["auditEvents"] = c.AuditEvents
	}
	store.Append(ctx, w.journal, w.logger, &store.AuditEntry{
		Actor:      w.actor(ctx),
		Action:     store.AuditDeleteClient,
		TargetType: store.TargetClient,
		TargetID:   s.Target.ID,
		Detail:     detail,
	})
}

// Close discards the session. Not allowed while the delete is in flight.
func (w *Workflow) Close() error {
	_, _, err := w.apply(Event{Kind: EventClose})
	return err
}
