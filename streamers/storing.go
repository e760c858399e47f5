package streamers

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"overwatch/executor"
	"overwatch/gate"
	"overwatch/plan"
	"overwatch/store"
)

// StoringRunHandler is a RunHandler decorator that persists run state and
// every event to the store, then delegates to an inner handler (e.g. CLI or
// websocket). Storage errors are logged, never fatal to the run.
type StoringRunHandler struct {
	inner  RunHandler
	runs   store.RunStore
	events store.EventStore

	mu    sync.Mutex
	runID string
}

// NewStoringRunHandler wraps an existing RunHandler with persistence.
func NewStoringRunHandler(inner RunHandler, bundle *store.Bundle) *StoringRunHandler {
	if inner == nil {
		inner = NopHandler{}
	}
	return &StoringRunHandler{
		inner:  inner,
		runs:   bundle.Runs,
		events: bundle.Events,
	}
}

func (h *StoringRunHandler) storeEvent(taskID, kind string, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		log.Printf("StoringRunHandler: marshal event data: %v", err)
		return
	}

	h.mu.Lock()
	runID := h.runID
	h.mu.Unlock()

	if err := h.events.AppendEvent(runID, taskID, kind, string(dataJSON)); err != nil {
		log.Printf("StoringRunHandler: store event: %v", err)
	}
}

func (h *StoringRunHandler) updateRunStatus(status string) {
	h.mu.Lock()
	runID := h.runID
	h.mu.Unlock()

	if err := h.runs.UpdateRunStatus(runID, status); err != nil {
		log.Printf("StoringRunHandler: update run status: %v", err)
	}
}

// =============================================================================
// RunHandler implementation
// =============================================================================

func (h *StoringRunHandler) RunStarted(userRequest string, sessionID string) {
	h.mu.Lock()
	h.runID = sessionID
	h.mu.Unlock()

	if err := h.runs.CreateRun(sessionID, userRequest); err != nil {
		log.Printf("StoringRunHandler: create run: %v", err)
	}
	h.storeEvent("", "run_started", map[string]string{"userRequest": userRequest})
	h.inner.RunStarted(userRequest, sessionID)
}

func (h *StoringRunHandler) PlanProduced(p *plan.Plan) {
	h.mu.Lock()
	runID := h.runID
	h.mu.Unlock()

	if planJSON, err := json.Marshal(p); err == nil {
		if err := h.runs.SavePlan(runID, string(planJSON)); err != nil {
			log.Printf("StoringRunHandler: save plan: %v", err)
		}
	}
	h.storeEvent("", "plan_produced", map[string]interface{}{
		"projectName": p.ProjectName,
		"taskCount":   p.TaskCount(),
	})
	h.inner.PlanProduced(p)
}

func (h *StoringRunHandler) RunCompleted(completedTaskIDs []string) {
	h.updateRunStatus("completed")
	h.storeEvent("", "run_completed", map[string]interface{}{"completedTaskIds": completedTaskIDs})
	h.inner.RunCompleted(completedTaskIDs)
}

func (h *StoringRunHandler) RunFailed(err error) {
	h.updateRunStatus("failed")
	h.storeEvent("", "run_failed", map[string]string{"error": err.Error()})
	h.inner.RunFailed(err)
}

func (h *StoringRunHandler) RunCancelled(reason string) {
	h.updateRunStatus("cancelled")
	h.storeEvent("", "run_cancelled", map[string]string{"reason": reason})
	h.inner.RunCancelled(reason)
}

func (h *StoringRunHandler) RoundStarted(round int, executable []*plan.Task) {
	ids := make([]string, len(executable))
	for i, t := range executable {
		ids[i] = t.ID
	}
	h.storeEvent("", "round_started", map[string]interface{}{"round": round, "executable": ids})
	h.inner.RoundStarted(round, executable)
}

func (h *StoringRunHandler) TaskStarted(task *plan.Task) {
	h.mu.Lock()
	runID := h.runID
	h.mu.Unlock()

	if err := h.runs.CreateTask(runID, task.ID); err != nil {
		log.Printf("StoringRunHandler: create task: %v", err)
	}
	h.storeEvent(task.ID, "task_started", map[string]string{"description": task.Description})
	h.inner.TaskStarted(task)
}

func (h *StoringRunHandler) TaskEvent(taskID string, ev executor.Event) {
	h.storeEvent(taskID, "task_event", ev)
	h.inner.TaskEvent(taskID, ev)
}

func (h *StoringRunHandler) TaskCompleted(task *plan.Task, output string) {
	h.mu.Lock()
	runID := h.runID
	h.mu.Unlock()

	if err := h.runs.UpdateTaskStatus(runID, task.ID, "completed", &output, nil); err != nil {
		log.Printf("StoringRunHandler: update task status: %v", err)
	}
	h.storeEvent(task.ID, "task_completed", map[string]string{"output": output})
	h.inner.TaskCompleted(task, output)
}

func (h *StoringRunHandler) TaskFailed(task *plan.Task, output string, err error) {
	h.mu.Lock()
	runID := h.runID
	h.mu.Unlock()

	var errMsg *string
	if err != nil {
		msg := err.Error()
		errMsg = &msg
	}
	if uerr := h.runs.UpdateTaskStatus(runID, task.ID, "failed", &output, errMsg); uerr != nil {
		log.Printf("StoringRunHandler: update task status: %v", uerr)
	}
	data := map[string]string{"output": output}
	if errMsg != nil {
		data["error"] = *errMsg
	}
	h.storeEvent(task.ID, "task_failed", data)
	h.inner.TaskFailed(task, output, err)
}

func (h *StoringRunHandler) Deadlock(stuck []plan.StuckTask) {
	h.storeEvent("", "deadlock", stuck)
	h.inner.Deadlock(stuck)
}

func (h *StoringRunHandler) GateOpened(nextExecutable []*plan.Task, timeout time.Duration) {
	ids := make([]string, len(nextExecutable))
	for i, t := range nextExecutable {
		ids[i] = t.ID
	}
	h.storeEvent("", "gate_opened", map[string]interface{}{
		"nextExecutable": ids,
		"timeoutSeconds": int(timeout.Seconds()),
	})
	h.inner.GateOpened(nextExecutable, timeout)
}

func (h *StoringRunHandler) GateClosed(decision gate.Decision) {
	h.storeEvent("", "gate_closed", map[string]string{"decision": decision.String()})
	h.inner.GateClosed(decision)
}
