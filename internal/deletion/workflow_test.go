// ABOUTME: Tests for the deletion state machine and workflow
// ABOUTME: Covers preview gating, exact-match confirmation, lockout and reload rules

package deletion

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/verify-console/internal/attempts"
	"github.com/2389/verify-console/internal/gateway"
	"github.com/2389/verify-console/internal/model"
	"github.com/2389/verify-console/internal/store"
)

type mockBackend struct {
	mu         sync.Mutex
	previews   []string
	deletes    []string
	preview    *model.DeletionPreview
	previewErr error
	result     *model.DeletionResult
	deleteErr  error

	previewEntered chan struct{}
	previewRelease chan struct{}
	deleteEntered  chan struct{}
	deleteRelease  chan struct{}
}

func (m *mockBackend) PreviewDeletion(_ context.Context, id string) (*model.DeletionPreview, error) {
	if m.previewRelease != nil {
		m.previewEntered <- struct{}{}
		<-m.previewRelease
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previews = append(m.previews, id)
	if m.previewErr != nil {
		return nil, m.previewErr
	}
	p := *m.preview
	return &p, nil
}

func (m *mockBackend) DeleteClient(_ context.Context, id string) (*model.DeletionResult, error) {
	if m.deleteRelease != nil {
		close(m.deleteEntered)
		<-m.deleteRelease
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, id)
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	r := *m.result
	return &r, nil
}

func (m *mockBackend) counts() (previews, deletes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.previews), len(m.deletes)
}

type mockReloader struct {
	mu      sync.Mutex
	reloads int
}

func (m *mockReloader) Reload(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
	return nil
}

func (m *mockReloader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloads
}

func acme() model.ClientSummary {
	return model.ClientSummary{ID: "c-1", CompanyName: "Acme Corp", Email: "ops@acme.test"}
}

func acmePreview() *model.DeletionPreview {
	return &model.DeletionPreview{
		Client: acme(),
		WillDelete: model.DeletionImpact{
			Applicants:    12,
			Verifications: 9,
			AuditEvents:   40,
			IdentityUsers: 2,
			IdentityOrg:   true,
		},
	}
}

func successResult() *model.DeletionResult {
	return &model.DeletionResult{
		Success: true,
		Message: "Client deleted",
		Cleanup: &model.DeletionCleanup{IdentityOrgRemoved: true, Applicants: 12, Verifications: 9, AuditEvents: 40},
	}
}

type harness struct {
	backend  *mockBackend
	reloader *mockReloader
	journal  *store.MockStore
	wf       *Workflow
}

func newHarness(t *testing.T, backend *mockBackend, limiter Limiter) *harness {
	t.Helper()
	h := &harness{backend: backend, reloader: &mockReloader{}, journal: store.NewMockStore()}
	h.wf = New(backend, h.reloader, Options{Limiter: limiter, Journal: h.journal})
	return h
}

func (h *harness) toConfirm(t *testing.T) {
	t.Helper()
	_, err := h.wf.Open(context.Background(), acme())
	require.NoError(t, err)
	require.NoError(t, h.wf.Continue())
}

func TestState_Expected(t *testing.T) {
	s := State{Target: model.ClientSummary{ID: "x", Email: "solo@example.com"}}
	assert.Equal(t, "solo@example.com", s.Expected())

	s.Preview = acmePreview()
	assert.Equal(t, "Acme Corp", s.Expected())

	s.Preview.Client = model.ClientSummary{}
	assert.Equal(t, "solo@example.com", s.Expected())
}

func TestState_MatchesIsByteExact(t *testing.T) {
	base := State{Phase: PhaseConfirmPending, Target: acme(), Preview: acmePreview()}
	tests := []struct {
		text string
		want bool
	}{
		{"Acme Corp", true},
		{"acme corp", false},
		{"ACME CORP", false},
		{"Acme Corp ", false},
		{" Acme Corp", false},
		{"Acme  Corp", false},
		{"Acme Cor", false},
		{"", false},
		{"Acme Corp", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s := base
			s.Confirmation = tt.text
			assert.Equal(t, tt.want, s.Matches())
		})
	}
}

func TestTransition_Table(t *testing.T) {
	loading := State{Phase: PhasePreviewLoading, Session: 3, Target: acme()}
	ready := State{Phase: PhasePreviewReady, Session: 3, Target: acme(), Preview: acmePreview()}
	previewErr := State{Phase: PhasePreviewError, Session: 3, Target: acme(), PreviewError: "boom"}
	confirm := State{Phase: PhaseConfirmPending, Session: 3, Target: acme(), Preview: acmePreview(), Confirmation: "Acme Corp"}
	executing := State{Phase: PhaseExecuting, Session: 3, Target: acme(), Preview: acmePreview()}
	result := State{Phase: PhaseResult, Session: 3, Target: acme(), Outcome: &Outcome{Success: true}}

	tests := []struct {
		name      string
		from      State
		event     Event
		wantPhase Phase
		effect    Effect
		wantErr   error
	}{
		{"open from closed", State{}, Event{Kind: EventOpen, Target: acme()}, PhasePreviewLoading, EffectPreview, nil},
		{"open without id", State{}, Event{Kind: EventOpen}, PhaseClosed, EffectNone, model.ErrValidation},
		{"reopen from result", result, Event{Kind: EventOpen, Target: acme()}, PhasePreviewLoading, EffectPreview, nil},
		{"preview loaded", loading, Event{Kind: EventPreviewLoaded, Session: 3, Preview: acmePreview()}, PhasePreviewReady, EffectNone, nil},
		{"stale preview", loading, Event{Kind: EventPreviewLoaded, Session: 2, Preview: acmePreview()}, PhasePreviewLoading, EffectNone, ErrSuperseded},
		{"preview after close", State{Session: 3}, Event{Kind: EventPreviewLoaded, Session: 3, Preview: acmePreview()}, PhaseClosed, EffectNone, ErrSuperseded},
		{"preview failed", loading, Event{Kind: EventPreviewFailed, Session: 3, Reason: "nope"}, PhasePreviewError, EffectNone, nil},
		{"continue from ready", ready, Event{Kind: EventContinue}, PhaseConfirmPending, EffectNone, nil},
		{"continue from error", previewErr, Event{Kind: EventContinue}, PhasePreviewError, EffectNone, ErrInvalidTransition},
		{"continue while loading", loading, Event{Kind: EventContinue}, PhasePreviewLoading, EffectNone, ErrInvalidTransition},
		{"confirm before continue", ready, Event{Kind: EventConfirm, Text: "Acme Corp"}, PhasePreviewReady, EffectNone, ErrInvalidTransition},
		{"execute from ready", ready, Event{Kind: EventExecute}, PhasePreviewReady, EffectNone, ErrInvalidTransition},
		{"execute matched", confirm, Event{Kind: EventExecute}, PhaseExecuting, EffectDelete, nil},
		{"close while executing", executing, Event{Kind: EventClose}, PhaseExecuting, EffectNone, ErrBusy},
		{"open while executing", executing, Event{Kind: EventOpen, Target: acme()}, PhaseExecuting, EffectNone, ErrBusy},
		{"executed success", executing, Event{Kind: EventExecuted, Result: successResult()}, PhaseResult, EffectReload, nil},
		{"executed failure", executing, Event{Kind: EventExecuted, Result: &model.DeletionResult{Message: "no"}}, PhaseResult, EffectNone, nil},
		{"execute failed", executing, Event{Kind: EventExecuteFailed, Reason: "down"}, PhaseResult, EffectNone, nil},
		{"close from preview error", previewErr, Event{Kind: EventClose}, PhaseClosed, EffectNone, nil},
		{"close from confirm", confirm, Event{Kind: EventClose}, PhaseClosed, EffectNone, nil},
		{"close from result", result, Event{Kind: EventClose}, PhaseClosed, EffectNone, nil},
		{"close while loading", loading, Event{Kind: EventClose}, PhaseClosed, EffectNone, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effect, err := Transition(tt.from, tt.event)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantPhase, next.Phase)
			assert.Equal(t, tt.effect, effect)
		})
	}
}

func TestTransition_ExecuteMismatch(t *testing.T) {
	s := State{Phase: PhaseConfirmPending, Target: acme(), Preview: acmePreview(), Confirmation: "acme corp"}
	next, effect, err := Transition(s, Event{Kind: EventExecute})
	assert.True(t, errors.Is(err, ErrConfirmationMismatch))
	assert.Equal(t, s, next)
	assert.Equal(t, EffectNone, effect)
}

func TestTransition_CloseDiscardsState(t *testing.T) {
	s := State{Phase: PhaseResult, Session: 7, Target: acme(), Preview: acmePreview(), Confirmation: "Acme Corp", Outcome: &Outcome{Success: true}}
	next, _, err := Transition(s, Event{Kind: EventClose})
	require.NoError(t, err)
	assert.Equal(t, State{Phase: PhaseClosed, Session: 7}, next)
}

// Scenario: preview counts shown, exact literal enables execute, different case does not
func TestWorkflow_ConfirmationGate(t *testing.T) {
	backend := &mockBackend{preview: acmePreview(), result: successResult()}
	h := newHarness(t, backend, nil)

	preview, err := h.wf.Open(context.Background(), acme())
	require.NoError(t, err)
	assert.Equal(t, 12, preview.WillDelete.Applicants)
	assert.Equal(t, 9, preview.WillDelete.Verifications)
	assert.Equal(t, 40, preview.WillDelete.AuditEvents)
	assert.Equal(t, 2, preview.WillDelete.IdentityUsers)
	assert.True(t, preview.WillDelete.IdentityOrg)
	assert.Equal(t, PhasePreviewReady, h.wf.State().Phase)

	require.NoError(t, h.wf.Continue())

	require.NoError(t, h.wf.SetConfirmation("acme corp"))
	assert.False(t, h.wf.CanExecute())

	require.NoError(t, h.wf.SetConfirmation("Acme Corp"))
	assert.True(t, h.wf.CanExecute())
}

func TestWorkflow_ExecuteSuccess(t *testing.T) {
	backend := &mockBackend{preview: acmePreview(), result: successResult()}
	h := newHarness(t, backend, nil)
	h.toConfirm(t)
	require.NoError(t, h.wf.SetConfirmation("Acme Corp"))

	outcome, err := h.wf.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	require.NotNil(t, outcome.Cleanup)
	assert.True(t, outcome.Cleanup.IdentityOrgRemoved)

	previews, deletes := backend.counts()
	assert.Equal(t, 1, previews)
	assert.Equal(t, 1, deletes)
	assert.Equal(t, 1, h.reloader.count())
	assert.Equal(t, []store.AuditAction{store.AuditDeleteClient}, h.journal.Actions())
	assert.Equal(t, "c-1", h.journal.Entries()[0].TargetID)
	assert.Equal(t, PhaseResult, h.wf.State().Phase)

	// Execute is not repeatable from Result
	_, err = h.wf.Execute(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	_, deletes = backend.counts()
	assert.Equal(t, 1, deletes)
}

func TestWorkflow_ExecuteMismatchNeverCallsBackend(t *testing.T) {
	backend := &mockBackend{preview: acmePreview(), result: successResult()}
	h := newHarness(t, backend, nil)
	h.toConfirm(t)
	require.NoError(t, h.wf.SetConfirmation("Acme"))

	_, err := h.wf.Execute(context.Background())
	assert.True(t, errors.Is(err, ErrConfirmationMismatch))
	_, deletes := backend.counts()
	assert.Zero(t, deletes)
	assert.Equal(t, PhaseConfirmPending, h.wf.State().Phase)
}

func TestWorkflow_ExecuteRequiresPreview(t *testing.T) {
	backend := &mockBackend{previewErr: errors.New("boom"), result: successResult()}
	h := newHarness(t, backend, nil)

	_, err := h.wf.Open(context.Background(), acme())
	require.Error(t, err)
	assert.True(t, errors.Is(h.wf.SetConfirmation("Acme Corp"), ErrInvalidTransition))
	_, err = h.wf.Execute(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.False(t, h.wf.CanExecute())

	_, deletes := backend.counts()
	assert.Zero(t, deletes)
}

// Scenario: preview fails, continue stays disabled, closing reloads nothing
func TestWorkflow_PreviewFailure(t *testing.T) {
	backend := &mockBackend{previewErr: &gateway.Rejection{Op: "preview deletion", Status: 404, Message: "Client not found"}}
	h := newHarness(t, backend, nil)

	_, err := h.wf.Open(context.Background(), acme())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreviewUnavailable))
	assert.True(t, errors.Is(err, gateway.ErrRejected))

	s := h.wf.State()
	assert.Equal(t, PhasePreviewError, s.Phase)
	assert.Equal(t, "Client not found", s.PreviewError)

	assert.True(t, errors.Is(h.wf.Continue(), ErrInvalidTransition))
	require.NoError(t, h.wf.Close())
	assert.Zero(t, h.reloader.count())
	assert.Empty(t, h.journal.Entries())
}

func TestWorkflow_PreviewFallbackMessage(t *testing.T) {
	backend := &mockBackend{previewErr: &gateway.TransportError{Op: "preview deletion", Err: errors.New("timeout")}}
	h := newHarness(t, backend, nil)

	_, err := h.wf.Open(context.Background(), acme())
	require.Error(t, err)
	assert.Equal(t, PreviewFallbackMessage, h.wf.State().PreviewError)
}

func TestWorkflow_ExecuteFailureNoReload(t *testing.T) {
	tests := []struct {
		name        string
		result      *model.DeletionResult
		err         error
		wantMessage string
		wantErr     bool
	}{
		{"server rejection", nil, &gateway.Rejection{Status: 500, Message: "Identity provider unavailable"}, "Identity provider unavailable", true},
		{"transport", nil, &gateway.TransportError{Op: "delete client", Err: errors.New("reset")}, FallbackMessage, true},
		{"success false with message", &model.DeletionResult{Message: "Partial cleanup refused"}, nil, "Partial cleanup refused", false},
		{"success false without message", &model.DeletionResult{}, nil, FallbackMessage, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{preview: acmePreview(), result: tt.result, deleteErr: tt.err}
			h := newHarness(t, backend, nil)
			h.toConfirm(t)
			require.NoError(t, h.wf.SetConfirmation("Acme Corp"))

			outcome, err := h.wf.Execute(context.Background())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, outcome)
			assert.False(t, outcome.Success)
			assert.Equal(t, tt.wantMessage, outcome.Message)
			assert.Equal(t, PhaseResult, h.wf.State().Phase)
			assert.Zero(t, h.reloader.count())
			assert.Empty(t, h.journal.Entries())
		})
	}
}

func TestWorkflow_AuthFailureAbandons(t *testing.T) {
	backend := &mockBackend{preview: acmePreview(), deleteErr: &gateway.AuthError{Op: "delete client", Status: 401}}
	h := newHarness(t, backend, nil)
	h.toConfirm(t)
	require.NoError(t, h.wf.SetConfirmation("Acme Corp"))

	_, err := h.wf.Execute(context.Background())
	assert.True(t, gateway.IsAuth(err))
	assert.Equal(t, PhaseClosed, h.wf.State().Phase)
	assert.Zero(t, h.reloader.count())
}

func TestWorkflow_CloseWhileExecutingIsBusy(t *testing.T) {
	backend := &mockBackend{
		preview:       acmePreview(),
		result:        successResult(),
		deleteEntered: make(chan struct{}),
		deleteRelease: make(chan struct{}),
	}
	h := newHarness(t, backend, nil)
	h.toConfirm(t)
	require.NoError(t, h.wf.SetConfirmation("Acme Corp"))

	done := make(chan error, 1)
	go func() {
		_, err := h.wf.Execute(context.Background())
		done <- err
	}()
	<-backend.deleteEntered

	assert.True(t, errors.Is(h.wf.Close(), ErrBusy))
	_, err := h.wf.Execute(context.Background())
	assert.True(t, errors.Is(err, ErrBusy))
	_, err = h.wf.Open(context.Background(), acme())
	assert.True(t, errors.Is(err, ErrBusy))

	close(backend.deleteRelease)
	require.NoError(t, <-done)
	_, deletes := backend.counts()
	assert.Equal(t, 1, deletes)
}

func TestWorkflow_ReopenRefetchesPreview(t *testing.T) {
	backend := &mockBackend{preview: acmePreview()}
	h := newHarness(t, backend, nil)

	_, err := h.wf.Open(context.Background(), acme())
	require.NoError(t, err)
	require.NoError(t, h.wf.Close())
	_, err = h.wf.Open(context.Background(), acme())
	require.NoError(t, err)

	previews, _ := backend.counts()
	assert.Equal(t, 2, previews)
	assert.Equal(t, PhasePreviewReady, h.wf.State().Phase)
	assert.Empty(t, h.wf.State().Confirmation)
}

func TestWorkflow_StalePreviewDiscarded(t *testing.T) {
	backend := &mockBackend{
		preview:        acmePreview(),
		previewEntered: make(chan struct{}, 1),
		previewRelease: make(chan struct{}),
	}
	h := newHarness(t, backend, nil)

	done := make(chan error, 1)
	go func() {
		_, err := h.wf.Open(context.Background(), acme())
		done <- err
	}()
	<-backend.previewEntered

	require.NoError(t, h.wf.Close())
	close(backend.previewRelease)

	assert.True(t, errors.Is(<-done, ErrSuperseded))
	assert.Equal(t, PhaseClosed, h.wf.State().Phase)
	assert.Nil(t, h.wf.State().Preview)
}

func TestWorkflow_ConfirmationLockout(t *testing.T) {
	limiter := attempts.New(3, attempts.DefaultWindow)
	defer limiter.Close()

	backend := &mockBackend{preview: acmePreview(), result: successResult()}
	h := newHarness(t, backend, limiter)
	h.toConfirm(t)

	require.NoError(t, h.wf.SetConfirmation("wrong"))
	for i := 0; i < 3; i++ {
		_, err := h.wf.Execute(context.Background())
		assert.True(t, errors.Is(err, ErrConfirmationMismatch))
	}

	require.NoError(t, h.wf.SetConfirmation("Acme Corp"))
	assert.False(t, h.wf.CanExecute())
	_, err := h.wf.Execute(context.Background())
	assert.True(t, errors.Is(err, ErrConfirmationLocked))

	_, deletes := backend.counts()
	assert.Zero(t, deletes)
}

func TestWorkflow_SuccessResetsFailures(t *testing.T) {
	limiter := attempts.New(3, attempts.DefaultWindow)
	defer limiter.Close()

	backend := &mockBackend{preview: acmePreview(), result: successResult()}
	h := newHarness(t, backend, limiter)
	h.toConfirm(t)

	require.NoError(t, h.wf.SetConfirmation("nope"))
	_, _ = h.wf.Execute(context.Background())
	assert.Equal(t, 2, limiter.Remaining("c-1"))

	require.NoError(t, h.wf.SetConfirmation("Acme Corp"))
	_, err := h.wf.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, limiter.Remaining("c-1"))
}
