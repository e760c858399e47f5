package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"overwatch/plan"
	"overwatch/plugin"
)

// PluginExecutor delegates task execution to an out-of-process plugin binary.
type PluginExecutor struct {
	client *plugin.Client
}

// NewPluginExecutor wraps a loaded plugin client.
func NewPluginExecutor(client *plugin.Client) *PluginExecutor {
	return &PluginExecutor{client: client}
}

// Execute marshals the task to JSON and runs it in the plugin process. Plugin
// execution is opaque to the host, so no events are emitted beyond the final
// response.
func (e *PluginExecutor) Execute(ctx context.Context, task *plan.Task, events EventSink) (Result, error) {
	if events == nil {
		events = NopSink{}
	}

	taskJSON, err := json.Marshal(task)
	if err != nil {
		return Result{}, fmt.Errorf("encoding task %s: %w", task.ID, err)
	}

	type rpcResult struct {
		res plugin.TaskResult
		err error
	}
	done := make(chan rpcResult, 1)
	go func() {
		res, err := e.client.RunTask(string(taskJSON))
		done <- rpcResult{res, err}
	}()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return Result{}, fmt.Errorf("plugin execution of task %s: %w", task.ID, r.err)
		}
		events.Event(Event{Kind: EventResponse, Content: r.res.Output})
		return Result{Success: r.res.Success, Output: r.res.Output}, nil
	}
}
