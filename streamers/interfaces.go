package streamers

import (
	"time"

	"overwatch/executor"
	"overwatch/gate"
	"overwatch/plan"
)

// RunHandler defines the interface for handling run execution events.
// Different implementations can handle stdout, websocket, persistence, etc.
type RunHandler interface {
	// Run lifecycle
	RunStarted(userRequest string, sessionID string)
	PlanProduced(p *plan.Plan)
	RunCompleted(completedTaskIDs []string)
	RunFailed(err error)
	RunCancelled(reason string)

	// Round lifecycle
	RoundStarted(round int, executable []*plan.Task)

	// Task lifecycle
	TaskStarted(task *plan.Task)
	TaskEvent(taskID string, ev executor.Event)
	TaskCompleted(task *plan.Task, output string)
	TaskFailed(task *plan.Task, output string, err error)

	// Deadlock reporting
	Deadlock(stuck []plan.StuckTask)

	// Gate lifecycle
	GateOpened(nextExecutable []*plan.Task, timeout time.Duration)
	GateClosed(decision gate.Decision)
}
