package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"overwatch/aitools"
	"overwatch/llm"
	"overwatch/plan"
)

// DefaultMaxIterations bounds the tool-call loop for a single task.
const DefaultMaxIterations = 25

// AgentExecutor runs each task through an LLM engineer session with file and
// shell tools rooted in the project workspace. Each task gets a fresh session;
// context from earlier tasks travels through the workspace, not the
// conversation.
type AgentExecutor struct {
	provider      llm.Provider
	model         string
	tools         map[string]aitools.Tool
	maxIterations int
	logger        hclog.Logger
}

// NewAgentExecutor builds an executor with the standard workspace toolset.
func NewAgentExecutor(provider llm.Provider, model, workspaceRoot string, logger hclog.Logger) *AgentExecutor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	tools := map[string]aitools.Tool{
		"write_file": &aitools.WriteFileTool{Root: workspaceRoot},
		"read_file":  &aitools.ReadFileTool{Root: workspaceRoot},
		"list_files": &aitools.ListFilesTool{Root: workspaceRoot},
		"run_bash":   &aitools.BashTool{Root: workspaceRoot},
	}
	return &AgentExecutor{
		provider:      provider,
		model:         model,
		tools:         tools,
		maxIterations: DefaultMaxIterations,
		logger:        logger.Named("executor"),
	}
}

// SetMaxIterations overrides the tool-call loop bound.
func (e *AgentExecutor) SetMaxIterations(n int) {
	if n > 0 {
		e.maxIterations = n
	}
}

// Execute runs the task to completion or failure. The returned error is
// reserved for infrastructure problems (provider failures, cancellation); a
// task the model could not finish comes back as Result{Success: false}.
func (e *AgentExecutor) Execute(ctx context.Context, task *plan.Task, events EventSink) (Result, error) {
	if events == nil {
		events = NopSink{}
	}

	session := llm.NewSession(e.provider, e.model, engineerPrompt(e.tools))
	session.SetStopSequences([]string{stopToken})

	input := taskPrompt(task)
	for i := 0; i < e.maxIterations; i++ {
		resp, err := session.Send(ctx, input)
		if err != nil {
			return Result{}, fmt.Errorf("task %s: %w", task.ID, err)
		}

		parsed := parseResponse(resp.Content)
		if parsed.Reasoning != "" {
			events.Event(Event{Kind: EventThought, Content: parsed.Reasoning})
		}

		if parsed.HasAnswer {
			events.Event(Event{Kind: EventResponse, Content: parsed.Answer})
			return Result{Success: true, Output: parsed.Answer}, nil
		}

		if parsed.Action != "" {
			events.Event(Event{Kind: EventToolCall, ToolName: parsed.Action, ToolInput: parsed.ActionInput})
			observation := e.callTool(parsed.Action, parsed.ActionInput)
			events.Event(Event{Kind: EventToolResult, ToolName: parsed.Action, Result: observation})
			e.logger.Debug("tool call", "task", task.ID, "tool", parsed.Action)
			input = fmt.Sprintf("<OBSERVATION>\n%s\n</OBSERVATION>", observation)
			continue
		}

		// No recognizable tags. Treat the raw content as the final output
		// rather than looping on an unparseable response.
		content := strings.TrimSpace(resp.Content)
		events.Event(Event{Kind: EventOther, Content: content})
		return Result{Success: true, Output: content}, nil
	}

	e.logger.Warn("iteration limit reached", "task", task.ID, "limit", e.maxIterations)
	return Result{
		Success: false,
		Output:  fmt.Sprintf("task %s did not complete within %d iterations", task.ID, e.maxIterations),
	}, nil
}

func (e *AgentExecutor) callTool(name, input string) string {
	tool, ok := e.tools[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool '%s'", name)
	}
	return tool.Call(input)
}
