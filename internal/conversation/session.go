package conversation

import (
	"sync"
	"time"
)

// Action is the kind of multi-step admin operation awaiting input.
type Action int

const (
	ActionNone Action = iota
	ActionAddMovie
	ActionDeleteMovie
	ActionAddCategory
	ActionDeleteCategory
	ActionBroadcast
)

func (a Action) String() string {
	switch a {
	case ActionAddMovie:
		return "add_movie"
	case ActionDeleteMovie:
		return "delete_movie"
	case ActionAddCategory:
		return "add_category"
	case ActionDeleteCategory:
		return "delete_category"
	case ActionBroadcast:
		return "broadcast"
	}
	return "none"
}

// PendingAction is the single in-flight operation of one admin.
type PendingAction struct {
	Kind  Action
	Since time.Time
}

// Idle reports whether nothing is pending.
func (p PendingAction) Idle() bool { return p.Kind == ActionNone }

// Sessions maps user ids to their pending action.  Writes are last-write
// wins; there is no per-user queue.
type Sessions struct {
	mu      sync.Mutex
	pending map[int64]PendingAction
}

func NewSessions() *Sessions {
	return &Sessions{pending: make(map[int64]PendingAction)}
}

// Set replaces whatever was pending for userID.
func (s *Sessions) Set(userID int64, p PendingAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Idle() {
		delete(s.pending, userID)
		return
	}
	s.pending[userID] = p
}

func (s *Sessions) Get(userID int64) PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[userID]
}

// Take returns the pending action and clears it in one step.
func (s *Sessions) Take(userID int64) PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending[userID]
	delete(s.pending, userID)
	return p
}

func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	delete(s.pending, userID)
	s.mu.Unlock()
}
