package planner

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"overwatch/llm"
	"overwatch/plan"
)

//go:embed architect.md
var architectPrompt string

// LLMPlanner produces plans by prompting a model to act as a software
// architect and emit the plan as JSON.
type LLMPlanner struct {
	provider llm.Provider
	model    string
	logger   hclog.Logger
}

// NewLLMPlanner builds a planner on the given provider and model name.
func NewLLMPlanner(provider llm.Provider, model string, logger hclog.Logger) *LLMPlanner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LLMPlanner{
		provider: provider,
		model:    model,
		logger:   logger.Named("planner"),
	}
}

// ProducePlan asks the model for a plan and decodes it. The decoded plan is
// validated before it is returned.
func (p *LLMPlanner) ProducePlan(ctx context.Context, userRequest string) (*plan.Plan, error) {
	session := llm.NewSession(p.provider, p.model, architectPrompt)

	resp, err := session.Send(ctx, fmt.Sprintf("Create a project plan for this request:\n\n%s", userRequest))
	if err != nil {
		return nil, fmt.Errorf("requesting plan: %w", err)
	}

	raw, err := extractJSON(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing plan response: %w", err)
	}

	var result plan.Plan
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("decoding plan JSON: %w", err)
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("model produced an invalid plan: %w", err)
	}

	p.logger.Debug("plan produced", "project", result.ProjectName, "tasks", result.TaskCount())
	return &result, nil
}

// extractJSON pulls the JSON object out of a model response. Models sometimes
// wrap the object in a fenced code block or surround it with prose.
func extractJSON(content string) (string, error) {
	if idx := strings.Index(content, "```json"); idx != -1 {
		rest := content[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end]), nil
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return content[start : end+1], nil
}
