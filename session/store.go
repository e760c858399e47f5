// Package session holds the run-scoped state mirror that external observers
// read while a plan executes. The execution loop is the only writer; it never
// reads the store back to make control decisions.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"overwatch/plan"
)

// Status mirrors the execution loop's lifecycle.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	SessionID        string     `json:"sessionId"`
	UserRequest      string     `json:"userRequest,omitempty"`
	Status           Status     `json:"status"`
	Plan             *plan.Plan `json:"plan,omitempty"`
	CurrentTask      *plan.Task `json:"currentTask,omitempty"`
	CompletedTaskIDs []string   `json:"completedTaskIds"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Delta is a partial update. Nil fields are left untouched; CurrentTask is
// only applied when CurrentTaskSet is true so the writer can clear it
// explicitly between tasks.
type Delta struct {
	Status           *Status
	Plan             *plan.Plan
	CurrentTask      *plan.Task
	CurrentTaskSet   bool
	CompletedTaskIDs []string
}

// Store holds the shared snapshot. Update merges field-by-field with
// last-writer-wins semantics; since there is exactly one writer, field order
// within a round is exactly the caller's call order.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewStore creates a store for a fresh run.
func NewStore(userRequest string) *Store {
	return &Store{
		snap: Snapshot{
			SessionID:   uuid.New().String(),
			UserRequest: userRequest,
			Status:      StatusPlanning,
			UpdatedAt:   time.Now(),
		},
	}
}

// Update merges the delta into the current snapshot.
func (s *Store) Update(d Delta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Status != nil {
		s.snap.Status = *d.Status
	}
	if d.Plan != nil {
		s.snap.Plan = d.Plan
	}
	if d.CurrentTaskSet {
		s.snap.CurrentTask = d.CurrentTask
	}
	if d.CompletedTaskIDs != nil {
		ids := make([]string, len(d.CompletedTaskIDs))
		copy(ids, d.CompletedTaskIDs)
		s.snap.CompletedTaskIDs = ids
	}
	s.snap.UpdatedAt = time.Now()
}

// Get returns a copy of the current snapshot. Readers poll and may observe
// a slightly stale view.
func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	if s.snap.CompletedTaskIDs != nil {
		snap.CompletedTaskIDs = make([]string, len(s.snap.CompletedTaskIDs))
		copy(snap.CompletedTaskIDs, s.snap.CompletedTaskIDs)
	}
	return snap
}

// StatusPtr is a convenience for building deltas.
func StatusPtr(st Status) *Status { return &st }
