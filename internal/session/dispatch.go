package session

import (
	"context"
	"fmt"

	"github.com/conneroisu/abacus/internal/errors"
)

// Action is an input intent, independent of the key or button that
// produced it.
type Action string

// Supported actions.
const (
	ActionAppend        Action = "append"
	ActionClear         Action = "clear"
	ActionBackspace     Action = "backspace"
	ActionEquals        Action = "equals"
	ActionToggleMode    Action = "toggle_mode"
	ActionClearHistory  Action = "clear_history"
	ActionSelectHistory Action = "select_history"
	ActionRefresh       Action = "refresh"
)

// Intent is one dispatched input. Token is used by ActionAppend and Index
// by ActionSelectHistory.
type Intent struct {
	Action Action
	Token  string
	Index  int
}

// Append returns an intent appending token.
func Append(token string) Intent {
	return Intent{Action: ActionAppend, Token: token}
}

// Do returns an intent for an action that takes no argument.
func Do(action Action) Intent {
	return Intent{Action: action}
}

// Select returns an intent loading the i-th history entry.
func Select(i int) Intent {
	return Intent{Action: ActionSelectHistory, Index: i}
}

// EventKind says which part of the screen changed.
type EventKind int

// Event kinds.
const (
	EventScreen EventKind = iota
	EventStatus
	EventShake
	EventHistory
	EventStats
	EventMode
)

func (k EventKind) String() string {
	switch k {
	case EventScreen:
		return "screen"
	case EventStatus:
		return "status"
	case EventShake:
		return "shake"
	case EventHistory:
		return "history"
	case EventStats:
		return "stats"
	case EventMode:
		return "mode"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event tells a presentation layer what changed. Screen is the state
// right after the change.
type Event struct {
	Kind   EventKind
	Screen Screen
}

// Listener receives session events. It is called without the session
// lock held and may call back into the session.
type Listener func(Event)

type handlerFunc func(ctx context.Context, in Intent) error

func (s *Session) dispatchTable() map[Action]handlerFunc {
	return map[Action]handlerFunc{
		ActionAppend: func(_ context.Context, in Intent) error {
			return s.Append(in.Token)
		},
		ActionClear: func(context.Context, Intent) error {
			s.Clear()
			return nil
		},
		ActionBackspace: func(context.Context, Intent) error {
			s.Backspace()
			return nil
		},
		ActionEquals: func(ctx context.Context, _ Intent) error {
			return s.Evaluate(ctx)
		},
		ActionToggleMode: func(context.Context, Intent) error {
			_, err := s.ToggleMode()
			return err
		},
		ActionClearHistory: func(ctx context.Context, _ Intent) error {
			return s.ClearHistory(ctx)
		},
		ActionSelectHistory: func(_ context.Context, in Intent) error {
			return s.SelectHistory(in.Index)
		},
		ActionRefresh: func(ctx context.Context, _ Intent) error {
			return s.Refresh(ctx)
		},
	}
}

// Dispatch runs the handler registered for in.Action.
func (s *Session) Dispatch(ctx context.Context, in Intent) error {
	h, ok := s.handlers[in.Action]
	if !ok {
		return errors.NewValidationError(errors.ErrCodeInvalidToken, "unknown action: "+string(in.Action)).
			WithContext("action", string(in.Action))
	}
	return h(ctx, in)
}
