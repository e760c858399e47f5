package runner_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"overwatch/executor"
	"overwatch/gate"
	"overwatch/plan"
	"overwatch/runner"
	"overwatch/session"
	"overwatch/streamers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeExecutor records execution order and returns scripted results.
type fakeExecutor struct {
	mu       sync.Mutex
	executed []string
	failOn   string
	errOn    string
}

func (f *fakeExecutor) Execute(ctx context.Context, task *plan.Task, events executor.EventSink) (executor.Result, error) {
	f.mu.Lock()
	f.executed = append(f.executed, task.ID)
	f.mu.Unlock()

	if task.ID == f.errOn {
		return executor.Result{}, errors.New("provider blew up")
	}
	if task.ID == f.failOn {
		return executor.Result{Success: false, Output: "could not do it"}, nil
	}
	return executor.Result{Success: true, Output: "done: " + task.ID}, nil
}

func (f *fakeExecutor) order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

// recordingHandler captures high-level run events.
type recordingHandler struct {
	streamers.NopHandler
	mu           sync.Mutex
	completed    []string
	runCompleted []string
	failed       []string
	gateOpens    int
	deadlocked   []plan.StuckTask
	cancelled    bool
}

func (h *recordingHandler) RunCompleted(completedTaskIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runCompleted = append([]string(nil), completedTaskIDs...)
}

func (h *recordingHandler) TaskCompleted(task *plan.Task, output string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed = append(h.completed, task.ID)
}

func (h *recordingHandler) TaskFailed(task *plan.Task, output string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed = append(h.failed, task.ID)
}

func (h *recordingHandler) GateOpened(next []*plan.Task, timeout time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gateOpens++
}

func (h *recordingHandler) Deadlock(stuck []plan.StuckTask) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deadlocked = stuck
}

func (h *recordingHandler) RunCancelled(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelled = true
}

func pipelinePlan() *plan.Plan {
	return &plan.Plan{
		ProjectName: "pipeline",
		Tasks: []plan.Task{
			{ID: "setup"},
			{ID: "build", Dependencies: []string{"setup"}},
			{ID: "test", Dependencies: []string{"build"}},
		},
	}
}

var _ = Describe("Runner", func() {
	var (
		exec    *fakeExecutor
		handler *recordingHandler
		sess    *session.Store
	)

	BeforeEach(func() {
		exec = &fakeExecutor{}
		handler = &recordingHandler{}
		sess = session.NewStore("build me a pipeline")
	})

	newRunner := func(g *gate.Controller) *runner.Runner {
		return runner.New(runner.Options{
			Executor:    exec,
			Handler:     handler,
			Gate:        g,
			Store:       sess,
			GateTimeout: 250 * time.Millisecond,
		})
	}

	Describe("happy path", func() {
		It("executes tasks in dependency order and completes", func() {
			err := newRunner(nil).Run(context.Background(), pipelinePlan())
			Expect(err).NotTo(HaveOccurred())
			Expect(exec.order()).To(Equal([]string{"setup", "build", "test"}))
			Expect(handler.completed).To(Equal([]string{"setup", "build", "test"}))
			Expect(sess.Get().Status).To(Equal(session.StatusCompleted))
			Expect(sess.Get().CompletedTaskIDs).To(Equal([]string{"setup", "build", "test"}))
		})

		It("writes executor output back onto the plan", func() {
			p := pipelinePlan()
			Expect(newRunner(nil).Run(context.Background(), p)).To(Succeed())
			Expect(p.Tasks[0].FinalOutput).To(Equal("done: setup"))
			Expect(p.Tasks[2].FinalOutput).To(Equal("done: test"))
		})

		It("breaks readiness ties by declaration order", func() {
			p := &plan.Plan{
				ProjectName: "parallel-free",
				Tasks: []plan.Task{
					{ID: "b"},
					{ID: "a"},
					{ID: "c", Dependencies: []string{"a", "b"}},
				},
			}
			Expect(newRunner(nil).Run(context.Background(), p)).To(Succeed())
			Expect(exec.order()).To(Equal([]string{"b", "a", "c"}))
		})

		It("reports completions in execution order, not declaration order", func() {
			// "late" is declared first but can only run second.
			p := &plan.Plan{
				ProjectName: "inverted",
				Tasks: []plan.Task{
					{ID: "late", Dependencies: []string{"early"}},
					{ID: "early"},
				},
			}
			Expect(newRunner(nil).Run(context.Background(), p)).To(Succeed())

			Expect(exec.order()).To(Equal([]string{"early", "late"}))
			Expect(sess.Get().CompletedTaskIDs).To(Equal([]string{"early", "late"}))
			Expect(handler.completed).To(Equal([]string{"early", "late"}))
			Expect(handler.runCompleted).To(Equal([]string{"early", "late"}))
		})

		It("does not open the gate after the final task", func() {
			// Gate input never arrives; the timeout drives continuation. Two
			// gates for three tasks: after setup and after build only.
			g := gate.NewController(neverReader{}, gate.DefaultCancelToken)
			Expect(newRunner(g).Run(context.Background(), pipelinePlan())).To(Succeed())
			Expect(handler.gateOpens).To(Equal(2))
		})
	})

	Describe("empty plan", func() {
		It("returns an EmptyPlanError", func() {
			err := newRunner(nil).Run(context.Background(), &plan.Plan{ProjectName: "void"})
			var emptyErr *runner.EmptyPlanError
			Expect(errors.As(err, &emptyErr)).To(BeTrue())
			Expect(exec.order()).To(BeEmpty())
		})
	})

	Describe("task failure", func() {
		It("stops on an unsuccessful result", func() {
			exec.failOn = "build"
			err := newRunner(nil).Run(context.Background(), pipelinePlan())

			var failure *runner.TaskFailureError
			Expect(errors.As(err, &failure)).To(BeTrue())
			Expect(failure.TaskID).To(Equal("build"))
			Expect(failure.Output).To(Equal("could not do it"))
			Expect(exec.order()).To(Equal([]string{"setup", "build"}))
			Expect(handler.failed).To(Equal([]string{"build"}))
			Expect(sess.Get().Status).To(Equal(session.StatusFailed))
		})

		It("wraps executor errors", func() {
			exec.errOn = "setup"
			err := newRunner(nil).Run(context.Background(), pipelinePlan())

			var failure *runner.TaskFailureError
			Expect(errors.As(err, &failure)).To(BeTrue())
			Expect(failure.Unwrap()).To(MatchError(ContainSubstring("provider blew up")))
		})
	})

	Describe("deadlock", func() {
		It("detects a mutual dependency cycle", func() {
			p := &plan.Plan{
				ProjectName: "cycle",
				Tasks: []plan.Task{
					{ID: "a", Dependencies: []string{"b"}},
					{ID: "b", Dependencies: []string{"a"}},
				},
			}
			err := newRunner(nil).Run(context.Background(), p)

			var deadlock *runner.DeadlockError
			Expect(errors.As(err, &deadlock)).To(BeTrue())
			Expect(deadlock.Stuck).To(HaveLen(2))
			Expect(handler.deadlocked).To(HaveLen(2))
			Expect(exec.order()).To(BeEmpty())
			Expect(sess.Get().Status).To(Equal(session.StatusFailed))
		})

		It("detects a dependency on a task that does not exist", func() {
			p := &plan.Plan{
				ProjectName: "ghost",
				Tasks: []plan.Task{
					{ID: "a", Dependencies: []string{"ghost"}},
				},
			}
			err := newRunner(nil).Run(context.Background(), p)

			var deadlock *runner.DeadlockError
			Expect(errors.As(err, &deadlock)).To(BeTrue())
			Expect(deadlock.Stuck[0].MissingDeps).To(ConsistOf("ghost"))
		})

		It("detects a self-dependent task", func() {
			p := &plan.Plan{
				ProjectName: "selfie",
				Tasks: []plan.Task{
					{ID: "loop", Dependencies: []string{"loop"}},
				},
			}
			err := newRunner(nil).Run(context.Background(), p)

			var deadlock *runner.DeadlockError
			Expect(errors.As(err, &deadlock)).To(BeTrue())
			Expect(deadlock.Error()).To(ContainSubstring("loop"))
		})

		It("detects a deadlock that appears mid-run", func() {
			p := &plan.Plan{
				ProjectName: "late",
				Tasks: []plan.Task{
					{ID: "setup"},
					{ID: "blocked", Dependencies: []string{"setup", "ghost"}},
				},
			}
			err := newRunner(nil).Run(context.Background(), p)

			var deadlock *runner.DeadlockError
			Expect(errors.As(err, &deadlock)).To(BeTrue())
			Expect(exec.order()).To(Equal([]string{"setup"}))
			Expect(deadlock.Stuck).To(HaveLen(1))
			Expect(deadlock.Stuck[0].MissingDeps).To(ConsistOf("ghost"))
		})
	})

	Describe("cancellation", func() {
		It("honors a cancelled context at the round boundary", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := newRunner(nil).Run(ctx, pipelinePlan())
			Expect(err).To(MatchError(runner.ErrCancelled))
			Expect(exec.order()).To(BeEmpty())
			Expect(handler.cancelled).To(BeTrue())
			Expect(sess.Get().Status).To(Equal(session.StatusCancelled))
		})

		It("stops when the operator cancels at the gate", func() {
			g := gate.NewController(strings.NewReader("cancel\n"), gate.DefaultCancelToken)
			err := newRunner(g).Run(context.Background(), pipelinePlan())

			Expect(err).To(MatchError(runner.ErrCancelled))
			Expect(exec.order()).To(Equal([]string{"setup"}))
			Expect(sess.Get().Status).To(Equal(session.StatusCancelled))
			Expect(sess.Get().CompletedTaskIDs).To(Equal([]string{"setup"}))
		})

		It("continues when the operator presses enter", func() {
			g := gate.NewController(strings.NewReader("\n\n"), gate.DefaultCancelToken)
			Expect(newRunner(g).Run(context.Background(), pipelinePlan())).To(Succeed())
			Expect(exec.order()).To(Equal([]string{"setup", "build", "test"}))
		})
	})
})

// neverReader blocks forever, simulating an operator who never types.
type neverReader struct{}

func (neverReader) Read(p []byte) (int, error) {
	select {}
}
