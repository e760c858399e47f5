package plan

import "fmt"

// Task represents a single unit of work within a project plan. Field names
// match the JSON schema the planner emits.
type Task struct {
	ID             string   `json:"task_id"`
	Description    string   `json:"description"`
	Dependencies   []string `json:"dependencies"`
	Category       string   `json:"category,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	EstimatedHours float64  `json:"estimated_hours,omitempty"`

	// FinalOutput is populated by the executor once the task has run.
	FinalOutput string `json:"final_output,omitempty"`
}

// Plan is the full set of tasks plus descriptive project metadata. Task order
// is declaration order, not execution order.
type Plan struct {
	ProjectName         string   `json:"project_name"`
	Description         string   `json:"description,omitempty"`
	ProjectType         string   `json:"project_type,omitempty"`
	TechStack           []string `json:"tech_stack,omitempty"`
	TotalEstimatedHours float64  `json:"total_estimated_hours,omitempty"`
	Tasks               []Task   `json:"tasks"`
}

// ConfigurationError indicates a structurally broken plan (duplicate task ids,
// references to tasks that do not exist). It is fatal and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("plan configuration error: %s", e.Reason)
}

// Validate checks the plan at acceptance time. Missing dependency ids are
// deliberately not checked here; they surface through the deadlock report so
// the operator sees every stuck task at once.
func (p *Plan) Validate() error {
	seen := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		if t.ID == "" {
			return &ConfigurationError{Reason: "task with empty id"}
		}
		if seen[t.ID] {
			return &ConfigurationError{Reason: fmt.Sprintf("duplicate task id '%s'", t.ID)}
		}
		seen[t.ID] = true
	}
	return nil
}

// TaskCount returns the number of tasks in the plan.
func (p *Plan) TaskCount() int {
	return len(p.Tasks)
}
