package plan

import "fmt"

// Graph indexes a plan's tasks for dependency lookups. It owns no execution
// state; readiness is always computed against a caller-supplied completed set.
type Graph struct {
	tasks []*Task
	byID  map[string]*Task
}

// NewGraph builds a graph over the plan's tasks. Task pointers alias the
// plan's backing array so executor output written through them is visible on
// the plan itself.
func NewGraph(p *Plan) *Graph {
	g := &Graph{
		tasks: make([]*Task, 0, len(p.Tasks)),
		byID:  make(map[string]*Task, len(p.Tasks)),
	}
	for i := range p.Tasks {
		t := &p.Tasks[i]
		g.tasks = append(g.tasks, t)
		if _, ok := g.byID[t.ID]; !ok {
			g.byID[t.ID] = t
		}
	}
	return g
}

// AllTasks returns every task in declaration order.
func (g *Graph) AllTasks() []*Task {
	return g.tasks
}

// TaskByID looks up a task. An unknown id is a ConfigurationError: the plan
// references a task that was never declared.
func (g *Graph) TaskByID(id string) (*Task, error) {
	t, ok := g.byID[id]
	if !ok {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown task id '%s'", id)}
	}
	return t, nil
}

// IsSatisfied reports whether every dependency of t is in the completed set.
// A task with no dependencies is vacuously satisfied.
func (g *Graph) IsSatisfied(t *Task, completed map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}

// MissingDependencies returns the dependency ids of t that are not yet in the
// completed set. Duplicate declarations are reported once.
func (g *Graph) MissingDependencies(t *Task, completed map[string]bool) []string {
	var missing []string
	seen := make(map[string]bool, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if completed[dep] || seen[dep] {
			continue
		}
		seen[dep] = true
		missing = append(missing, dep)
	}
	return missing
}
