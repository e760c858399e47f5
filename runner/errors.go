package runner

import (
	"errors"
	"fmt"
	"strings"

	"overwatch/plan"
)

// ErrCancelled is returned when the operator or the context cancels a run
// between tasks. Completed work stays completed.
var ErrCancelled = errors.New("run cancelled")

// EmptyPlanError reports a plan with no tasks.
type EmptyPlanError struct {
	ProjectName string
}

func (e *EmptyPlanError) Error() string {
	return fmt.Sprintf("plan '%s' contains no tasks", e.ProjectName)
}

// DeadlockError reports that no remaining task can ever become executable.
// Stuck holds every unfinished task with the dependencies it is waiting on.
type DeadlockError struct {
	Stuck []plan.StuckTask
}

func (e *DeadlockError) Error() string {
	parts := make([]string, len(e.Stuck))
	for i, s := range e.Stuck {
		parts[i] = fmt.Sprintf("%s (waiting on: %s)", s.TaskID, strings.Join(s.MissingDeps, ", "))
	}
	return fmt.Sprintf("no executable tasks remain, %d stuck: %s", len(e.Stuck), strings.Join(parts, "; "))
}

// TaskFailureError reports the first task failure. The run stops immediately;
// there are no retries.
type TaskFailureError struct {
	TaskID string
	Output string
	Err    error
}

func (e *TaskFailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task %s failed: %v", e.TaskID, e.Err)
	}
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Output)
}

func (e *TaskFailureError) Unwrap() error {
	return e.Err
}
