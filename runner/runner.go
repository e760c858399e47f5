// Package runner drives plan execution. It re-evaluates readiness every
// round, executes exactly one task at a time, and opens an operator gate
// between completions.
package runner

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"overwatch/executor"
	"overwatch/gate"
	"overwatch/plan"
	"overwatch/session"
	"overwatch/streamers"
)

// DefaultGateTimeout is how long the gate waits for operator input before
// continuing automatically.
const DefaultGateTimeout = 30 * time.Second

// Options configures a Runner. Executor is required; everything else has a
// working default.
type Options struct {
	Executor    executor.Executor
	Handler     streamers.RunHandler
	Gate        *gate.Controller
	Store       *session.Store
	GateTimeout time.Duration
	Logger      hclog.Logger
}

// Runner executes plans sequentially with human-in-the-loop gating.
type Runner struct {
	exec        executor.Executor
	handler     streamers.RunHandler
	gate        *gate.Controller
	store       *session.Store
	gateTimeout time.Duration
	logger      hclog.Logger
}

// New builds a Runner from options.
func New(opts Options) *Runner {
	r := &Runner{
		exec:        opts.Executor,
		handler:     opts.Handler,
		gate:        opts.Gate,
		store:       opts.Store,
		gateTimeout: opts.GateTimeout,
		logger:      opts.Logger,
	}
	if r.handler == nil {
		r.handler = streamers.NopHandler{}
	}
	if r.gateTimeout <= 0 {
		r.gateTimeout = DefaultGateTimeout
	}
	if r.logger == nil {
		r.logger = hclog.NewNullLogger()
	}
	r.logger = r.logger.Named("runner")
	return r
}

// Run executes every task in the plan, or fails fast on the first problem.
// nil means every task completed. Typed errors distinguish the failure modes:
// *EmptyPlanError, *DeadlockError, *TaskFailureError, and ErrCancelled.
//
// Tasks run strictly one at a time. Cancellation is honored at round
// boundaries and at the gate; a task that has started always runs to its own
// completion or failure.
func (r *Runner) Run(ctx context.Context, p *plan.Plan) error {
	if p.TaskCount() == 0 {
		return &EmptyPlanError{ProjectName: p.ProjectName}
	}

	graph := plan.NewGraph(p)
	completed := make(map[string]bool, p.TaskCount())
	// Execution order, not declaration order. Readers see completions in the
	// order they actually happened.
	completedOrder := make([]string, 0, p.TaskCount())

	r.updateStore(session.Delta{
		Plan:   p,
		Status: session.StatusPtr(session.StatusExecuting),
	})

	for round := 1; ; round++ {
		select {
		case <-ctx.Done():
			return r.cancelled("context cancelled")
		default:
		}

		executable := plan.FindExecutable(graph.AllTasks(), completed)
		if len(executable) == 0 {
			stuck := graph.Stuck(completed)
			r.logger.Error("deadlock detected", "round", round, "stuck", len(stuck))
			r.handler.Deadlock(stuck)
			r.updateStore(session.Delta{Status: session.StatusPtr(session.StatusFailed)})
			err := &DeadlockError{Stuck: stuck}
			r.handler.RunFailed(err)
			return err
		}

		r.handler.RoundStarted(round, executable)

		task := executable[0]
		r.logger.Info("executing task", "round", round, "task", task.ID)
		r.updateStore(session.Delta{
			CurrentTask:    task,
			CurrentTaskSet: true,
		})
		r.handler.TaskStarted(task)

		sink := executor.SinkFunc(func(ev executor.Event) {
			r.handler.TaskEvent(task.ID, ev)
		})
		result, err := r.exec.Execute(ctx, task, sink)
		if err != nil || !result.Success {
			failure := &TaskFailureError{TaskID: task.ID, Output: result.Output, Err: err}
			r.logger.Error("task failed", "task", task.ID, "error", failure)
			r.handler.TaskFailed(task, result.Output, err)
			r.updateStore(session.Delta{Status: session.StatusPtr(session.StatusFailed)})
			r.handler.RunFailed(failure)
			return failure
		}

		task.FinalOutput = result.Output
		completed[task.ID] = true
		completedOrder = append(completedOrder, task.ID)
		r.updateStore(session.Delta{
			CurrentTask:      nil,
			CurrentTaskSet:   true,
			CompletedTaskIDs: completedOrder,
		})
		r.handler.TaskCompleted(task, result.Output)

		if len(completed) == p.TaskCount() {
			r.updateStore(session.Delta{Status: session.StatusPtr(session.StatusCompleted)})
			r.handler.RunCompleted(completedOrder)
			return nil
		}

		if r.gate != nil {
			next := plan.FindExecutable(graph.AllTasks(), completed)
			r.handler.GateOpened(next, r.gateTimeout)
			decision := r.gate.Await(ctx, r.gateTimeout)
			r.handler.GateClosed(decision)
			if decision == gate.Cancel {
				return r.cancelled("operator cancelled")
			}
		}
	}
}

func (r *Runner) cancelled(reason string) error {
	r.logger.Info("run cancelled", "reason", reason)
	r.updateStore(session.Delta{Status: session.StatusPtr(session.StatusCancelled)})
	r.handler.RunCancelled(reason)
	return ErrCancelled
}

func (r *Runner) updateStore(d session.Delta) {
	if r.store != nil {
		r.store.Update(d)
	}
}
