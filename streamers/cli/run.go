package cli

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"overwatch/executor"
	"overwatch/gate"
	"overwatch/plan"
)

// RunHandler implements streamers.RunHandler for terminal output.
type RunHandler struct {
	mu       sync.Mutex
	spinner  *spinner
	renderer *glamour.TermRenderer
}

// NewRunHandler creates a new CLI run handler
func NewRunHandler() *RunHandler {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	return &RunHandler{
		spinner:  newSpinner(),
		renderer: renderer,
	}
}

func (s *RunHandler) RunStarted(userRequest string, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Printf("\n%s%s=== Overwatch run ===%s\n", ColorBold, ColorCyan, ColorReset)
	fmt.Printf("%sSession: %s%s\n", ColorGray, sessionID, ColorReset)
	fmt.Printf("%sRequest: %s%s\n\n", ColorGray, truncate(userRequest, 200), ColorReset)
	s.spinner.Start("Planning...")
}

func (s *RunHandler) PlanProduced(p *plan.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	fmt.Printf("%s%s--- Plan: %s (%d tasks) ---%s\n", ColorBold, ColorCyan, p.ProjectName, p.TaskCount(), ColorReset)
	fmt.Print(s.renderPlan(p))
}

// renderPlan formats the plan as markdown and renders it for the terminal.
func (s *RunHandler) renderPlan(p *plan.Plan) string {
	var md strings.Builder
	if p.Description != "" {
		md.WriteString(p.Description + "\n\n")
	}
	if len(p.TechStack) > 0 {
		md.WriteString(fmt.Sprintf("**Tech stack:** %s\n\n", strings.Join(p.TechStack, ", ")))
	}
	for _, t := range p.Tasks {
		md.WriteString(fmt.Sprintf("- **%s**: %s", t.ID, t.Description))
		if len(t.Dependencies) > 0 {
			md.WriteString(fmt.Sprintf(" _(after %s)_", strings.Join(t.Dependencies, ", ")))
		}
		md.WriteString("\n")
	}

	if s.renderer != nil {
		if out, err := s.renderer.Render(md.String()); err == nil {
			return out
		}
	}
	return md.String()
}

func (s *RunHandler) RunCompleted(completedTaskIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	fmt.Printf("\n%s%s=== Run completed: %d tasks done ===%s\n", ColorBold, ColorGreen, len(completedTaskIDs), ColorReset)
}

func (s *RunHandler) RunFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	fmt.Printf("\n%s%s=== Run FAILED: %v ===%s\n", ColorBold, ColorRed, err, ColorReset)
}

func (s *RunHandler) RunCancelled(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	fmt.Printf("\n%s%s=== Run cancelled (%s) ===%s\n", ColorBold, ColorOrange, reason, ColorReset)
}

func (s *RunHandler) RoundStarted(round int, executable []*plan.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(executable))
	for i, t := range executable {
		ids[i] = t.ID
	}
	fmt.Printf("\n%sRound %d, executable: %s%s\n", ColorGray, round, strings.Join(ids, ", "), ColorReset)
}

func (s *RunHandler) TaskStarted(task *plan.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Printf("\n%s%s--- Task: %s ---%s\n", ColorBold, ColorCyan, task.ID, ColorReset)
	fmt.Printf("%s%s%s\n", ColorGray, task.Description, ColorReset)
	s.spinner.Start("Working...")
}

func (s *RunHandler) TaskEvent(taskID string, ev executor.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Kind {
	case executor.EventThought:
		s.spinner.Stop()
		fmt.Printf("%s[%s] Thinking: %s%s\n", ColorGray, taskID, truncate(ev.Content, 100), ColorReset)
		s.spinner.Start("Working...")
	case executor.EventToolCall:
		s.spinner.Stop()
		s.spinner.Start(fmt.Sprintf("Calling %s%s%s...", ColorBold, ev.ToolName, ColorReset))
	case executor.EventToolResult:
		s.spinner.Stop()
		fmt.Printf("%s✓%s %s%s%s called\n", ColorGray, ColorReset, ColorBold, ev.ToolName, ColorReset)
		s.spinner.Start("Working...")
	}
}

func (s *RunHandler) TaskCompleted(task *plan.Task, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	fmt.Printf("\n%s%s[Task '%s' completed]%s\n", ColorBold, ColorGreen, task.ID, ColorReset)
	if output != "" {
		fmt.Printf("%s%s%s\n", ColorGray, truncate(output, 300), ColorReset)
	}
}

func (s *RunHandler) TaskFailed(task *plan.Task, output string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	if err != nil {
		fmt.Printf("\n%s%s[Task '%s' FAILED: %v]%s\n", ColorBold, ColorRed, task.ID, err, ColorReset)
	} else {
		fmt.Printf("\n%s%s[Task '%s' FAILED]%s\n", ColorBold, ColorRed, task.ID, ColorReset)
	}
	if output != "" {
		fmt.Printf("%s%s%s\n", ColorGray, truncate(output, 300), ColorReset)
	}
}

func (s *RunHandler) Deadlock(stuck []plan.StuckTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	fmt.Printf("\n%s%s[DEADLOCK] No remaining task can execute:%s\n", ColorBold, ColorRed, ColorReset)
	for _, st := range stuck {
		fmt.Printf("  %s- %s waiting on: %s%s\n", ColorGray, st.TaskID, strings.Join(st.MissingDeps, ", "), ColorReset)
	}
}

func (s *RunHandler) GateOpened(nextExecutable []*plan.Task, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinner.Stop()
	if len(nextExecutable) > 0 {
		fmt.Printf("\n%sNext up: %s%s\n", ColorGray, nextExecutable[0].ID, ColorReset)
	}
	fmt.Printf("%sPress Enter to continue, or type 'cancel' to stop (auto-continue in %s)%s\n", ColorLightBrown, timeout, ColorReset)
	fmt.Printf("%s>  %s", ColorGray, ColorReset)
}

func (s *RunHandler) GateClosed(decision gate.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch decision {
	case gate.TimedOut:
		fmt.Printf("\r\033[K%s(timed out, continuing)%s\n", ColorGray, ColorReset)
	case gate.Cancel:
		fmt.Printf("%scancelling...%s\n", ColorGray, ColorReset)
	}
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
