// ABOUTME: Onboarding state machine: phases, events, effects and the pure transition function
// ABOUTME: Every phase change of the workflow goes through Transition

package onboarding

import (
	"errors"
	"fmt"

	"github.com/2389/verify-console/internal/model"
)

var (
	// ErrBusy is returned while a create request is in flight
	ErrBusy = errors.New("onboarding submission in progress")
	// ErrInvalidTransition is returned for events the current phase does not accept
	ErrInvalidTransition = errors.New("invalid onboarding transition")
)

// Phase is the workflow's current state tag
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEditing
	PhaseSubmitting
	PhaseSucceeded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// EventKind names an input to the state machine
type EventKind int

const (
	EventOpen EventKind = iota
	EventEdit
	EventSubmit
	EventSucceeded
	EventFailed
	EventDismiss
	EventAbandon
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventEdit:
		return "edit"
	case EventSubmit:
		return "submit"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	case EventDismiss:
		return "dismiss"
	case EventAbandon:
		return "abandon"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is an input with its payload
type Event struct {
	Kind    EventKind
	Request model.OnboardingRequest // EventEdit
	Result  *model.OnboardingResult // EventSucceeded
	Reason  string                  // EventFailed
}

// Effect is the side effect the caller must perform after a transition
type Effect int

const (
	EffectNone Effect = iota
	EffectCreate
	EffectReload
)

// State is the complete workflow state. Request keeps the entered values
// (password included) until the workflow is dismissed.
type State struct {
	Phase     Phase
	Request   model.OnboardingRequest
	Result    *model.OnboardingResult
	LastError string
}

// Transition applies e to s. On error the returned state is s unchanged.
func Transition(s State, e Event) (State, Effect, error) {
	if e.Kind == EventAbandon {
		return State{Phase: PhaseIdle}, EffectNone, nil
	}
	if s.Phase == PhaseSubmitting && e.Kind != EventSucceeded && e.Kind != EventFailed {
		return s, EffectNone, ErrBusy
	}

	switch e.Kind {
	case EventOpen:
		if s.Phase != PhaseIdle {
			break
		}
		return State{Phase: PhaseEditing, Request: model.NewOnboardingRequest()}, EffectNone, nil

	case EventEdit:
		if s.Phase != PhaseEditing {
			break
		}
		next := s
		next.Request = e.Request
		return next, EffectNone, nil

	case EventSubmit:
		if s.Phase != PhaseEditing {
			break
		}
		if err := s.Request.Validate(); err != nil {
			return s, EffectNone, err
		}
		next := s
		next.Phase = PhaseSubmitting
		next.LastError = ""
		return next, EffectCreate, nil

	case EventSucceeded:
		if s.Phase != PhaseSubmitting || e.Result == nil {
			break
		}
		result := *e.Result
		result.PortalDomain = s.Request.PortalDomain
		next := s
		next.Phase = PhaseSucceeded
		next.Result = &result
		return next, EffectReload, nil

	case EventFailed:
		if s.Phase != PhaseSubmitting {
			break
		}
		next := s
		next.Phase = PhaseEditing
		next.LastError = e.Reason
		return next, EffectNone, nil

	case EventDismiss:
		return State{Phase: PhaseIdle}, EffectNone, nil
	}

	return s, EffectNone, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, e.Kind, s.Phase)
}
