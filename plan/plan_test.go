package plan_test

import (
	"overwatch/plan"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildPlan(tasks ...plan.Task) *plan.Plan {
	return &plan.Plan{
		ProjectName: "demo",
		Tasks:       tasks,
	}
}

var _ = Describe("Plan", func() {

	Describe("Validate", func() {
		It("accepts a plan with unique task ids", func() {
			p := buildPlan(
				plan.Task{ID: "setup"},
				plan.Task{ID: "build", Dependencies: []string{"setup"}},
			)
			Expect(p.Validate()).To(Succeed())
		})

		It("rejects duplicate task ids", func() {
			p := buildPlan(
				plan.Task{ID: "setup"},
				plan.Task{ID: "setup"},
			)
			err := p.Validate()
			Expect(err).To(HaveOccurred())
			var cfgErr *plan.ConfigurationError
			Expect(err).To(BeAssignableToTypeOf(cfgErr))
		})

		It("rejects empty task ids", func() {
			p := buildPlan(plan.Task{ID: ""})
			Expect(p.Validate()).To(HaveOccurred())
		})

		It("accepts dependencies on unknown tasks at validation time", func() {
			// Unsatisfiable dependencies surface as a deadlock during
			// execution, not as a validation error.
			p := buildPlan(plan.Task{ID: "a", Dependencies: []string{"ghost"}})
			Expect(p.Validate()).To(Succeed())
		})
	})

	Describe("Graph", func() {
		var g *plan.Graph

		BeforeEach(func() {
			g = plan.NewGraph(buildPlan(
				plan.Task{ID: "setup"},
				plan.Task{ID: "build", Dependencies: []string{"setup"}},
				plan.Task{ID: "test", Dependencies: []string{"build"}},
			))
		})

		It("looks up tasks by id", func() {
			t, err := g.TaskByID("build")
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Dependencies).To(ConsistOf("setup"))
		})

		It("errors on unknown ids", func() {
			_, err := g.TaskByID("ghost")
			Expect(err).To(HaveOccurred())
		})

		It("reports satisfaction against the completed set", func() {
			build, _ := g.TaskByID("build")
			Expect(g.IsSatisfied(build, map[string]bool{})).To(BeFalse())
			Expect(g.IsSatisfied(build, map[string]bool{"setup": true})).To(BeTrue())
		})

		It("lists missing dependencies in declared order", func() {
			g := plan.NewGraph(buildPlan(
				plan.Task{ID: "a"},
				plan.Task{ID: "b"},
				plan.Task{ID: "c", Dependencies: []string{"a", "b"}},
			))
			c, _ := g.TaskByID("c")
			Expect(g.MissingDependencies(c, map[string]bool{"a": true})).To(Equal([]string{"b"}))
		})
	})

	Describe("FindExecutable", func() {
		tasks := func() []*plan.Task {
			return plan.NewGraph(buildPlan(
				plan.Task{ID: "setup"},
				plan.Task{ID: "docs"},
				plan.Task{ID: "build", Dependencies: []string{"setup"}},
				plan.Task{ID: "test", Dependencies: []string{"build"}},
			)).AllTasks()
		}

		It("returns ready tasks in declaration order", func() {
			ready := plan.FindExecutable(tasks(), map[string]bool{})
			ids := make([]string, len(ready))
			for i, t := range ready {
				ids[i] = t.ID
			}
			Expect(ids).To(Equal([]string{"setup", "docs"}))
		})

		It("excludes completed tasks", func() {
			ready := plan.FindExecutable(tasks(), map[string]bool{"setup": true, "docs": true})
			Expect(ready).To(HaveLen(1))
			Expect(ready[0].ID).To(Equal("build"))
		})

		It("is deterministic for the same inputs", func() {
			completed := map[string]bool{"setup": true}
			first := plan.FindExecutable(tasks(), completed)
			second := plan.FindExecutable(tasks(), completed)
			Expect(second).To(Equal(first))
		})

		It("does not mutate the completed set", func() {
			completed := map[string]bool{"setup": true}
			plan.FindExecutable(tasks(), completed)
			Expect(completed).To(Equal(map[string]bool{"setup": true}))
		})
	})

	Describe("Stuck", func() {
		It("reports tasks in a dependency cycle", func() {
			g := plan.NewGraph(buildPlan(
				plan.Task{ID: "a", Dependencies: []string{"b"}},
				plan.Task{ID: "b", Dependencies: []string{"a"}},
			))
			stuck := g.Stuck(map[string]bool{})
			Expect(stuck).To(HaveLen(2))
			Expect(stuck[0].TaskID).To(Equal("a"))
			Expect(stuck[0].MissingDeps).To(ConsistOf("b"))
			Expect(stuck[1].TaskID).To(Equal("b"))
		})

		It("reports a self-dependent task", func() {
			g := plan.NewGraph(buildPlan(
				plan.Task{ID: "loop", Dependencies: []string{"loop"}},
			))
			stuck := g.Stuck(map[string]bool{})
			Expect(stuck).To(HaveLen(1))
			Expect(stuck[0].MissingDeps).To(ConsistOf("loop"))
		})

		It("reports dependencies on unknown tasks", func() {
			g := plan.NewGraph(buildPlan(
				plan.Task{ID: "a", Dependencies: []string{"ghost"}},
			))
			stuck := g.Stuck(map[string]bool{})
			Expect(stuck).To(HaveLen(1))
			Expect(stuck[0].MissingDeps).To(ConsistOf("ghost"))
		})

		It("omits completed tasks", func() {
			g := plan.NewGraph(buildPlan(
				plan.Task{ID: "done"},
				plan.Task{ID: "waiting", Dependencies: []string{"ghost"}},
			))
			stuck := g.Stuck(map[string]bool{"done": true})
			Expect(stuck).To(HaveLen(1))
			Expect(stuck[0].TaskID).To(Equal("waiting"))
		})
	})
})
