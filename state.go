package kizuna

import (
	"fmt"
	"log/slog"
)

// State is one layer of a StateStack, such as a menu or a level.
type State interface {
	Enter()
	Update() error
	Exit()
}

type stateAction uint8

const (
	actionPush stateAction = iota
	actionPop
	actionClear
)

type stateChange struct {
	action stateAction
	key    TypeKey
}

// StateStack is a stack of behavior states. Push, Pop and Clear are queued
// and applied at the start of the next Update, so a state may replace
// itself from inside its own Update.
type StateStack struct {
	factories map[TypeKey]func() State
	stack     []State
	keys      []TypeKey
	queue     []stateChange
	logger    *slog.Logger
}

// NewStateStack creates an empty stack.
func NewStateStack(l *slog.Logger) *StateStack {
	if l == nil {
		l = logger
	}
	return &StateStack{
		factories: make(map[TypeKey]func() State),
		logger:    l,
	}
}

// RegisterState registers factory for state type T. A second registration
// of T fails with ErrAlreadyExists.
func RegisterState[T any, PT interface {
	*T
	State
}](s *StateStack, factory func() PT) error {
	key := StateKey[T]()
	if _, ok := s.factories[key]; ok {
		return fmt.Errorf("state %s: %w", TypeName(RoleState, key), ErrAlreadyExists)
	}
	s.factories[key] = func() State { return factory() }
	return nil
}

// PushState queues a new instance of T. It fails with ErrNotFound if T was
// never registered.
func PushState[T any](s *StateStack) error {
	key := StateKey[T]()
	if _, ok := s.factories[key]; !ok {
		return fmt.Errorf("push state %s: %w", TypeName(RoleState, key), ErrNotFound)
	}
	s.queue = append(s.queue, stateChange{action: actionPush, key: key})
	return nil
}

// Pop queues removal of the top state.
func (s *StateStack) Pop() {
	s.queue = append(s.queue, stateChange{action: actionPop})
}

// Clear queues removal of every state.
func (s *StateStack) Clear() {
	s.queue = append(s.queue, stateChange{action: actionClear})
}

func (s *StateStack) applyPending() {
	for len(s.queue) > 0 {
		change := s.queue[0]
		s.queue = s.queue[1:]
		switch change.action {
		case actionPush:
			st := s.factories[change.key]()
			s.stack = append(s.stack, st)
			s.keys = append(s.keys, change.key)
			s.logger.Debug("state pushed", "state", TypeName(RoleState, change.key), "depth", len(s.stack))
			st.Enter()
		case actionPop:
			s.popTop()
		case actionClear:
			for len(s.stack) > 0 {
				s.popTop()
			}
		}
	}
}

func (s *StateStack) popTop() {
	n := len(s.stack)
	if n == 0 {
		return
	}
	top := s.stack[n-1]
	key := s.keys[n-1]
	s.stack[n-1] = nil
	s.stack = s.stack[:n-1]
	s.keys = s.keys[:n-1]
	s.logger.Debug("state popped", "state", TypeName(RoleState, key), "depth", n-1)
	top.Exit()
}

// Update applies the queued changes and then updates the top state.
func (s *StateStack) Update() error {
	s.applyPending()
	if len(s.stack) == 0 {
		return nil
	}
	top := s.stack[len(s.stack)-1]
	if err := top.Update(); err != nil {
		return fmt.Errorf("update state %s: %w", TypeName(RoleState, s.keys[len(s.keys)-1]), err)
	}
	return nil
}

// Top returns the active state, or nil.
func (s *StateStack) Top() State {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// TopKey returns the state key of the active state, or NoTypeKey.
func (s *StateStack) TopKey() TypeKey {
	if len(s.keys) == 0 {
		return NoTypeKey
	}
	return s.keys[len(s.keys)-1]
}

// Len returns the number of states on the stack.
func (s *StateStack) Len() int {
	return len(s.stack)
}

// Empty reports whether the stack holds no state. Queued changes are not
// considered until the next Update.
func (s *StateStack) Empty() bool {
	return len(s.stack) == 0
}

// Pending returns the number of queued changes.
func (s *StateStack) Pending() int {
	return len(s.queue)
}
