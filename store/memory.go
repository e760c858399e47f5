package store

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// NewMemoryBundle creates a Bundle backed entirely by in-memory stores
func NewMemoryBundle() *Bundle {
	return &Bundle{
		Runs:   &MemoryRunStore{runs: make(map[string]*RunRecord), tasks: make(map[string][]*TaskRecord)},
		Events: &MemoryEventStore{},
	}
}

// =============================================================================
// MemoryRunStore
// =============================================================================

type MemoryRunStore struct {
	mu    sync.Mutex
	runs  map[string]*RunRecord
	tasks map[string][]*TaskRecord
}

func (s *MemoryRunStore) CreateRun(id, userRequest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[id]; exists {
		return fmt.Errorf("run %s already exists", id)
	}
	s.runs[id] = &RunRecord{
		ID:          id,
		UserRequest: userRequest,
		Status:      "planning",
		StartedAt:   time.Now(),
	}
	return nil
}

func (s *MemoryRunStore) SavePlan(runID, planJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	run.PlanJSON = &planJSON
	return nil
}

func (s *MemoryRunStore) UpdateRunStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("run %s not found", id)
	}
	run.Status = status
	if isTerminalStatus(status) {
		now := time.Now()
		run.FinishedAt = &now
	}
	return nil
}

func (s *MemoryRunStore) GetRun(id string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	copied := *run
	return &copied, nil
}

func (s *MemoryRunStore) ListRuns() ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.Before(runs[j].StartedAt) })
	return runs, nil
}

func (s *MemoryRunStore) CreateTask(runID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.tasks[runID] = append(s.tasks[runID], &TaskRecord{
		RunID:     runID,
		TaskID:    taskID,
		Status:    "running",
		StartedAt: &now,
	})
	return nil
}

func (s *MemoryRunStore) UpdateTaskStatus(runID, taskID, status string, output, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks[runID] {
		if t.TaskID == taskID {
			t.Status = status
			t.Output = output
			t.Error = errMsg
			if isTerminalStatus(status) {
				now := time.Now()
				t.FinishedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("task %s not found in run %s", taskID, runID)
}

func (s *MemoryRunStore) GetTasksByRun(runID string) ([]TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]TaskRecord, 0, len(s.tasks[runID]))
	for _, t := range s.tasks[runID] {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

// =============================================================================
// MemoryEventStore
// =============================================================================

type MemoryEventStore struct {
	mu     sync.Mutex
	events []EventRecord
	nextID int64
}

func (s *MemoryEventStore) AppendEvent(runID, taskID, kind, payloadJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.events = append(s.events, EventRecord{
		ID:          s.nextID,
		RunID:       runID,
		TaskID:      taskID,
		Kind:        kind,
		PayloadJSON: payloadJSON,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (s *MemoryEventStore) GetEventsByRun(runID string) ([]EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []EventRecord
	for _, ev := range s.events {
		if ev.RunID == runID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func isTerminalStatus(status string) bool {
	switch status {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}
