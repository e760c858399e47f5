package plan

// FindExecutable returns, in declaration order, every task that is not yet
// completed and whose dependencies are all in the completed set.
//
// Pure and deterministic: identical inputs always yield the identical output,
// and ties are broken by declaration order. The execution loop always picks
// the first element, so declaration order is the scheduling tie-break.
func FindExecutable(tasks []*Task, completed map[string]bool) []*Task {
	var executable []*Task
	for _, t := range tasks {
		if completed[t.ID] {
			continue
		}
		satisfied := true
		for _, dep := range t.Dependencies {
			if !completed[dep] {
				satisfied = false
				break
			}
		}
		if satisfied {
			executable = append(executable, t)
		}
	}
	return executable
}

// StuckTask describes one uncompleted task and the dependency ids still
// keeping it from running. A dependency on an undeclared task id shows up
// here exactly like a cycle: it never completes.
type StuckTask struct {
	TaskID      string   `json:"taskId"`
	MissingDeps []string `json:"missingDeps"`
}

// Stuck enumerates every uncompleted task together with its unsatisfied
// dependencies, in declaration order. This is the deadlock diagnostic the
// operator uses to repair the plan.
func (g *Graph) Stuck(completed map[string]bool) []StuckTask {
	var stuck []StuckTask
	for _, t := range g.tasks {
		if completed[t.ID] {
			continue
		}
		stuck = append(stuck, StuckTask{
			TaskID:      t.ID,
			MissingDeps: g.MissingDependencies(t, completed),
		})
	}
	return stuck
}
