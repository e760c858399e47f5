package planner_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"overwatch/llm"
	"overwatch/planner"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fixedProvider returns the same response for every request.
type fixedProvider struct {
	content string
	err     error
}

func (p *fixedProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ChatResponse{Content: p.content}, nil
}

const validPlanJSON = `{
  "project_name": "todo-api",
  "description": "A small REST API",
  "project_type": "api",
  "tech_stack": ["go"],
  "tasks": [
    {"task_id": "setup", "description": "Project scaffolding", "dependencies": []},
    {"task_id": "endpoints", "description": "CRUD endpoints", "dependencies": ["setup"]}
  ]
}`

var _ = Describe("LLMPlanner", func() {

	It("decodes a bare JSON response", func() {
		p := planner.NewLLMPlanner(&fixedProvider{content: validPlanJSON}, "test-model", nil)
		result, err := p.ProducePlan(context.Background(), "build a todo api")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.ProjectName).To(Equal("todo-api"))
		Expect(result.TaskCount()).To(Equal(2))
		Expect(result.Tasks[1].Dependencies).To(ConsistOf("setup"))
	})

	It("decodes JSON wrapped in a fenced code block", func() {
		content := "Here is the plan:\n```json\n" + validPlanJSON + "\n```\nGood luck!"
		p := planner.NewLLMPlanner(&fixedProvider{content: content}, "test-model", nil)
		result, err := p.ProducePlan(context.Background(), "build a todo api")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.ProjectName).To(Equal("todo-api"))
	})

	It("decodes JSON surrounded by prose", func() {
		content := "Sure! " + validPlanJSON + " Let me know if you need changes."
		p := planner.NewLLMPlanner(&fixedProvider{content: content}, "test-model", nil)
		result, err := p.ProducePlan(context.Background(), "build a todo api")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.TaskCount()).To(Equal(2))
	})

	It("rejects a response with no JSON object", func() {
		p := planner.NewLLMPlanner(&fixedProvider{content: "I cannot plan this."}, "test-model", nil)
		_, err := p.ProducePlan(context.Background(), "build something")
		Expect(err).To(MatchError(ContainSubstring("no JSON object")))
	})

	It("rejects a structurally invalid plan", func() {
		dup := `{"project_name": "x", "tasks": [{"task_id": "a"}, {"task_id": "a"}]}`
		p := planner.NewLLMPlanner(&fixedProvider{content: dup}, "test-model", nil)
		_, err := p.ProducePlan(context.Background(), "build something")
		Expect(err).To(MatchError(ContainSubstring("invalid plan")))
	})

	It("propagates provider errors", func() {
		p := planner.NewLLMPlanner(&fixedProvider{err: fmt.Errorf("no quota")}, "test-model", nil)
		_, err := p.ProducePlan(context.Background(), "build something")
		Expect(err).To(MatchError(ContainSubstring("no quota")))
	})
})

var _ = Describe("FilePlanner", func() {

	It("loads and validates a plan file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "plan.json")
		Expect(os.WriteFile(path, []byte(validPlanJSON), 0644)).To(Succeed())

		p := &planner.FilePlanner{Path: path}
		result, err := p.ProducePlan(context.Background(), "ignored")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.ProjectName).To(Equal("todo-api"))
	})

	It("errors on a missing file", func() {
		p := &planner.FilePlanner{Path: "/nonexistent/plan.json"}
		_, err := p.ProducePlan(context.Background(), "ignored")
		Expect(err).To(MatchError(ContainSubstring("reading plan file")))
	})

	It("errors on an invalid plan file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "plan.json")
		Expect(os.WriteFile(path, []byte(`{"tasks": [{"task_id": ""}]}`), 0644)).To(Succeed())

		p := &planner.FilePlanner{Path: path}
		_, err := p.ProducePlan(context.Background(), "ignored")
		Expect(err).To(HaveOccurred())
	})
})
