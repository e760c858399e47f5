// Package store persists run history: the runs themselves, per-task status,
// and the execution event stream.
package store

import (
	"time"
)

// Bundle holds all stores for tracking run execution.
type Bundle struct {
	Runs   RunStore
	Events EventStore
	closer func() error
}

// Close cleans up the bundle resources
func (b *Bundle) Close() error {
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

// RunStore tracks runs and their tasks
type RunStore interface {
	CreateRun(id, userRequest string) error
	SavePlan(runID, planJSON string) error
	UpdateRunStatus(id, status string) error
	GetRun(id string) (*RunRecord, error)
	ListRuns() ([]RunRecord, error)

	CreateTask(runID, taskID string) error
	UpdateTaskStatus(runID, taskID, status string, output, errMsg *string) error
	GetTasksByRun(runID string) ([]TaskRecord, error)
}

// EventStore persists the execution event stream
type EventStore interface {
	AppendEvent(runID, taskID, kind, payloadJSON string) error
	GetEventsByRun(runID string) ([]EventRecord, error)
}

// RunRecord represents one orchestration run
type RunRecord struct {
	ID          string     `json:"id"`
	UserRequest string     `json:"userRequest"`
	Status      string     `json:"status"`
	PlanJSON    *string    `json:"planJson,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// TaskRecord represents a task within a run
type TaskRecord struct {
	RunID      string     `json:"runId"`
	TaskID     string     `json:"taskId"`
	Status     string     `json:"status"`
	Output     *string    `json:"output,omitempty"`
	Error      *string    `json:"error,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// EventRecord is one persisted execution event
type EventRecord struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"runId"`
	TaskID      string    `json:"taskId,omitempty"`
	Kind        string    `json:"kind"`
	PayloadJSON string    `json:"payloadJson"`
	CreatedAt   time.Time `json:"createdAt"`
}
