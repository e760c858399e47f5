package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"overwatch/plan"
)

// FilePlanner loads a pre-authored plan from a JSON file. Useful for
// replaying plans and for runs that should not touch a model at all.
type FilePlanner struct {
	Path string
}

// ProducePlan reads and validates the plan file. The user request is ignored;
// the file is the plan.
func (p *FilePlanner) ProducePlan(ctx context.Context, userRequest string) (*plan.Plan, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	var result plan.Plan
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding plan file %s: %w", p.Path, err)
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("plan file %s: %w", p.Path, err)
	}
	return &result, nil
}
