package streamers

import (
	"time"

	"overwatch/executor"
	"overwatch/gate"
	"overwatch/plan"
)

// NopHandler ignores every event. Useful as a default and in tests.
type NopHandler struct{}

func (NopHandler) RunStarted(string, string)                  {}
func (NopHandler) PlanProduced(*plan.Plan)                    {}
func (NopHandler) RunCompleted([]string)                      {}
func (NopHandler) RunFailed(error)                            {}
func (NopHandler) RunCancelled(string)                        {}
func (NopHandler) RoundStarted(int, []*plan.Task)             {}
func (NopHandler) TaskStarted(*plan.Task)                     {}
func (NopHandler) TaskEvent(string, executor.Event)           {}
func (NopHandler) TaskCompleted(*plan.Task, string)           {}
func (NopHandler) TaskFailed(*plan.Task, string, error)       {}
func (NopHandler) Deadlock([]plan.StuckTask)                  {}
func (NopHandler) GateOpened([]*plan.Task, time.Duration)     {}
func (NopHandler) GateClosed(gate.Decision)                   {}
