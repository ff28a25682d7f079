// ABOUTME: Deletion state machine: phases, events, effects and the pure transition function
// ABOUTME: The preview and exact-match confirmation gates are enforced here

package deletion

import (
	"errors"
	"fmt"

	"github.com/2389/verify-console/internal/model"
)

var (
	// ErrBusy is returned while the delete request is in flight
	ErrBusy = errors.New("deletion in progress")
	// ErrInvalidTransition is returned for events the current phase does not accept
	ErrInvalidTransition = errors.New("invalid deletion transition")
	// ErrPreviewUnavailable wraps a failed preview fetch
	ErrPreviewUnavailable = errors.New("deletion preview unavailable")
	// ErrConfirmationMismatch is returned when the typed text is not the expected literal
	ErrConfirmationMismatch = errors.New("confirmation text does not match")
	// ErrConfirmationLocked is returned after too many failed confirmations
	ErrConfirmationLocked = errors.New("too many failed confirmations")
	// ErrSuperseded is returned for a preview that belongs to a closed or reopened session
	ErrSuperseded = errors.New("deletion session superseded")
)

// Phase is the workflow's current state tag
type Phase int

const (
	PhaseClosed Phase = iota
	PhasePreviewLoading
	PhasePreviewReady
	PhasePreviewError
	PhaseConfirmPending
	PhaseExecuting
	PhaseResult
)

func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhasePreviewLoading:
		return "preview-loading"
	case PhasePreviewReady:
		return "preview-ready"
	case PhasePreviewError:
		return "preview-error"
	case PhaseConfirmPending:
		return "confirm-pending"
	case PhaseExecuting:
		return "executing"
	case PhaseResult:
		return "result"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// EventKind names an input to the state machine
type EventKind int

const (
	EventOpen EventKind = iota
	EventPreviewLoaded
	EventPreviewFailed
	EventContinue
	EventConfirm
	EventExecute
	EventExecuted
	EventExecuteFailed
	EventClose
	EventAbandon
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventPreviewLoaded:
		return "preview-loaded"
	case EventPreviewFailed:
		return "preview-failed"
	case EventContinue:
		return "continue"
	case EventConfirm:
		return "confirm"
	case EventExecute:
		return "execute"
	case EventExecuted:
		return "executed"
	case EventExecuteFailed:
		return "execute-failed"
	case EventClose:
		return "close"
	case EventAbandon:
		return "abandon"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is an input with its payload
type Event struct {
	Kind    EventKind
	Target  model.ClientSummary    // EventOpen
	Session uint64                 // EventPreviewLoaded, EventPreviewFailed
	Preview *model.DeletionPreview // EventPreviewLoaded
	Text    string                 // EventConfirm
	Result  *model.DeletionResult  // EventExecuted
	Reason  string                 // EventPreviewFailed, EventExecuteFailed
}

// Effect is the side effect the caller must perform after a transition
type Effect int

const (
	EffectNone Effect = iota
	EffectPreview
	EffectDelete
	EffectReload
)

// Outcome is the terminal report of an executed deletion
type Outcome struct {
	Success bool
	Message string
	Cleanup *model.DeletionCleanup
}

// State is the complete workflow state. Session increases on every open so a
// late preview response can be recognised and dropped.
type State struct {
	Phase        Phase
	Session      uint64
	Target       model.ClientSummary
	Preview      *model.DeletionPreview
	PreviewError string
	Confirmation string
	Outcome      *Outcome
}

// Expected is the literal the operator must type. The preview's summary wins
// over the summary the workflow was opened with.
func (s State) Expected() string {
	if s.Preview != nil {
		if lit := s.Preview.Client.ExpectedConfirmation(); lit != "" {
			return lit
		}
	}
	return s.Target.ExpectedConfirmation()
}

// Matches reports whether the typed confirmation is byte-identical to Expected
func (s State) Matches() bool {
	expected := s.Expected()
	return expected != "" && s.Confirmation == expected
}

func closed(s State) State {
	return State{Phase: PhaseClosed, Session: s.Session}
}

// Transition applies e to s. On error the returned state is s unchanged.
func Transition(s State, e Event) (State, Effect, error) {
	if e.Kind == EventAbandon {
		return closed(s), EffectNone, nil
	}
	if s.Phase == PhaseExecuting && e.Kind != EventExecuted && e.Kind != EventExecuteFailed {
		return s, EffectNone, ErrBusy
	}

	switch e.Kind {
	case EventOpen:
		if e.Target.ID == "" {
			return s, EffectNone, &model.ValidationError{Field: "id", Reason: "is required"}
		}
		return State{Phase: PhasePreviewLoading, Session: s.Session + 1, Target: e.Target}, EffectPreview, nil

	case EventPreviewLoaded, EventPreviewFailed:
		if s.Phase != PhasePreviewLoading || e.Session != s.Session {
			return s, EffectNone, ErrSuperseded
		}
		next := s
		if e.Kind == EventPreviewFailed || e.Preview == nil {
			next.Phase = PhasePreviewError
			next.PreviewError = e.Reason
			return next, EffectNone, nil
		}
		preview := *e.Preview
		next.Phase = PhasePreviewReady
		next.Preview = &preview
		return next, EffectNone, nil

	case EventContinue:
		if s.Phase != PhasePreviewReady {
			break
		}
		next := s
		next.Phase = PhaseConfirmPending
		return next, EffectNone, nil

	case EventConfirm:
		if s.Phase != PhaseConfirmPending {
			break
		}
		next := s
		next.Confirmation = e.Text
		return next, EffectNone, nil

	case EventExecute:
		if s.Phase != PhaseConfirmPending || s.Preview == nil {
			break
		}
		if !s.Matches() {
			return s, EffectNone, ErrConfirmationMismatch
		}
		next := s
		next.Phase = PhaseExecuting
		return next, EffectDelete, nil

	case EventExecuted:
		if s.Phase != PhaseExecuting || e.Result == nil {
			break
		}
		next := s
		next.Phase = PhaseResult
		next.Outcome = &Outcome{Success: e.Result.Success, Message: e.Result.Message, Cleanup: e.Result.Cleanup}
		if !e.Result.Success {
			return next, EffectNone, nil
		}
		return next, EffectReload, nil

	case EventExecuteFailed:
		if s.Phase != PhaseExecuting {
			break
		}
		next := s
		next.Phase = PhaseResult
		next.Outcome = &Outcome{Message: e.Reason}
		return next, EffectNone, nil

	case EventClose:
		return closed(s), EffectNone, nil
	}

	return s, EffectNone, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, e.Kind, s.Phase)
}
