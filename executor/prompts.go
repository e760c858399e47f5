package executor

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"overwatch/aitools"
	"overwatch/plan"
)

//go:embed engineer.md
var engineerPromptTemplate string

// stopToken ends generation after ACTION_INPUT so the model cannot
// hallucinate an observation.
const stopToken = "___STOP___"

// engineerPrompt returns the system prompt with tool docs injected.
func engineerPrompt(tools map[string]aitools.Tool) string {
	return strings.Replace(engineerPromptTemplate, "{{TOOLS}}", formatTools(tools), 1)
}

func formatTools(tools map[string]aitools.Tool) string {
	if len(tools) == 0 {
		return "NO TOOLS AVAILABLE"
	}

	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		tool := tools[name]
		sb.WriteString(fmt.Sprintf("### %s\n\n", name))
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.ToolDescription()))
		sb.WriteString(fmt.Sprintf("**Input Schema:**\n```json\n%s\n```\n\n", tool.ToolPayloadSchema().String()))
	}
	return sb.String()
}

// taskPrompt formats the opening user message for a task session.
func taskPrompt(task *plan.Task) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Execute this task:\n\nTask ID: %s\nDescription: %s\n", task.ID, task.Description))
	if task.Category != "" {
		sb.WriteString(fmt.Sprintf("Category: %s\n", task.Category))
	}
	if len(task.Dependencies) > 0 {
		sb.WriteString(fmt.Sprintf("Completed prerequisite tasks: %s\n", strings.Join(task.Dependencies, ", ")))
	}
	return sb.String()
}
