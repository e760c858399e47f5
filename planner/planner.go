// Package planner turns a natural-language project request into a structured,
// dependency-ordered plan.
package planner

import (
	"context"

	"overwatch/plan"
)

// Producer generates a plan for a user request. Implementations must return a
// plan that passes Validate; the scheduler handles unsatisfiable dependencies
// at execution time.
type Producer interface {
	ProducePlan(ctx context.Context, userRequest string) (*plan.Plan, error)
}
