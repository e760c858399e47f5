// Package executor runs individual plan tasks. The execution loop treats an
// executor as an opaque, possibly slow collaborator that returns a success
// flag and a textual result.
package executor

import (
	"context"

	"overwatch/plan"
)

// Result is the outcome of executing one task.
type Result struct {
	Success bool
	Output  string
}

// Executor performs one task. Side effects (file writes, shell commands)
// happen entirely inside Execute. A returned error and Success=false are both
// fatal to the run; the scheduler does not retry.
type Executor interface {
	Execute(ctx context.Context, task *plan.Task, events EventSink) (Result, error)
}

// EventKind tags an execution event. Events are decoded once at the executor
// boundary; consumers switch on the kind instead of probing fields.
type EventKind string

const (
	EventThought    EventKind = "thought"
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
	EventResponse   EventKind = "response"
	EventOther      EventKind = "other"
)

// Event is a tagged execution event. Only the fields relevant to the kind are
// populated.
type Event struct {
	Kind      EventKind `json:"kind"`
	Content   string    `json:"content,omitempty"`   // thought, response, other
	ToolName  string    `json:"toolName,omitempty"`  // tool_call, tool_result
	ToolInput string    `json:"toolInput,omitempty"` // tool_call
	Result    string    `json:"result,omitempty"`    // tool_result
}

// EventSink receives execution events as they happen.
type EventSink interface {
	Event(ev Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Event(Event) {}

// SinkFunc adapts a function to an EventSink.
type SinkFunc func(ev Event)

func (f SinkFunc) Event(ev Event) { f(ev) }
