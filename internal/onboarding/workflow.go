// ABOUTME: OnboardingWorkflow: drives the state machine against the backend
// ABOUTME: One create request per submission; one directory reload per success

package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/verify-console/internal/gateway"
	"github.com/2389/verify-console/internal/model"
	"github.com/2389/verify-console/internal/store"
)

// FallbackMessage is shown when the backend gives no reason
const FallbackMessage = "Onboarding failed"

// Creator provisions a tenant
type Creator interface {
	OnboardClient(ctx context.Context, r model.OnboardingRequest) (*model.OnboardingResult, error)
}

// Reloader refreshes the client directory
type Reloader interface {
	Reload(ctx context.Context) error
}

// Options configures a Workflow
type Options struct {
	Journal store.Journal
	Actor   func(ctx context.Context) string
	Logger  *slog.Logger
}

// Workflow is one onboarding session
type Workflow struct {
	creator  Creator
	reloader Reloader
	journal  store.Journal
	actor    func(ctx context.Context) string
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates an idle workflow
func New(creator Creator, reloader Reloader, opts Options) *Workflow {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	actor := opts.Actor
	if actor == nil {
		actor = func(context.Context) string { return "operator" }
	}
	return &Workflow{
		creator:  creator,
		reloader: reloader,
		journal:  opts.Journal,
		actor:    actor,
		logger:   logger.With("component", "onboarding"),
	}
}

// State returns a copy of the current state
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) apply(e Event) (Effect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, effect, err := Transition(w.state, e)
	if err != nil {
		return EffectNone, err
	}
	w.state = next
	return effect, nil
}

// Open starts a blank form
func (w *Workflow) Open() error {
	_, err := w.apply(Event{Kind: EventOpen})
	return err
}

// Edit replaces the form contents
func (w *Workflow) Edit(r model.OnboardingRequest) error {
	_, err := w.apply(Event{Kind: EventEdit, Request: r})
	return err
}

// Dismiss discards the session, including the held result and password
func (w *Workflow) Dismiss() error {
	_, err := w.apply(Event{Kind: EventDismiss})
	return err
}

// Submit validates the form and issues the create request. On failure the
// form stays populated with LastError set.
func (w *Workflow) Submit(ctx context.Context) (*model.OnboardingResult, error) {
	w.mu.Lock()
	next, effect, err := Transition(w.state, Event{Kind: EventSubmit})
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.state = next
	req := next.Request
	w.mu.Unlock()

	if effect != EffectCreate {
		return nil, fmt.Errorf("%w: submit produced no create", ErrInvalidTransition)
	}

	w.logger.Info("onboarding client", "company", req.CompanyName, "email", req.Email, "portal", req.PortalDomain)
	result, err := w.creator.OnboardClient(ctx, req)
	if err != nil {
		if gateway.IsAuth(err) {
			_, _ = w.apply(Event{Kind: EventAbandon})
			return nil, err
		}
		reason := gateway.MessageOf(err, FallbackMessage)
		if _, terr := w.apply(Event{Kind: EventFailed, Reason: reason}); terr != nil {
			w.logger.Error("recording onboarding failure", "error", terr)
		}
		w.logger.Warn("onboarding failed", "company", req.CompanyName, "reason", reason)
		return nil, fmt.Errorf("onboarding client: %w", err)
	}

	effect, err = w.apply(Event{Kind: EventSucceeded, Result: result})
	if err != nil {
		return nil, err
	}
	held := w.State().Result

	store.Append(ctx, w.journal, w.logger, &store.AuditEntry{
		Actor:      w.actor(ctx),
		Action:     store.AuditOnboardClient,
		TargetType: store.TargetClient,
		TargetID:   held.Client.ID,
		Detail: map[string]any{
			"companyName":  held.Client.CompanyName,
			"email":        held.Client.Email,
			"portalDomain": string(held.PortalDomain),
			"identityOrg":  held.Identity.OrgID,
		},
	})

	if effect == EffectReload && w.reloader != nil {
		if err := w.reloader.Reload(ctx); err != nil {
			w.logger.Warn("directory reload after onboarding failed", "error", err)
		}
	}
	return held, nil
}

// Export derives the credential record for the held result. Only available
// once onboarding has succeeded.
func (w *Workflow) Export() (Record, error) {
	s := w.State()
	if s.Phase != PhaseSucceeded || s.Result == nil {
		return Record{}, fmt.Errorf("%w: export while %s", ErrInvalidTransition, s.Phase)
	}
	return Export(*s.Result, s.Request.Password, s.Result.PortalDomain), nil
}
