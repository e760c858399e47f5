package executor_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"overwatch/executor"
	"overwatch/llm"
	"overwatch/plan"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// scriptedProvider returns canned responses in order and records requests.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	requests  []*llm.ChatRequest
	err       error
}

func (p *scriptedProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return nil, fmt.Errorf("scripted provider exhausted")
	}
	content := p.responses[0]
	p.responses = p.responses[1:]
	return &llm.ChatResponse{Content: content}, nil
}

// eventCollector records every emitted event.
type eventCollector struct {
	mu     sync.Mutex
	events []executor.Event
}

func (c *eventCollector) Event(ev executor.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *eventCollector) kinds() []executor.EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]executor.EventKind, len(c.events))
	for i, ev := range c.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

var _ = Describe("AgentExecutor", func() {
	var (
		workspace string
		events    *eventCollector
		task      *plan.Task
	)

	BeforeEach(func() {
		workspace = GinkgoT().TempDir()
		events = &eventCollector{}
		task = &plan.Task{ID: "write_main", Description: "Write the entrypoint"}
	})

	It("runs a tool call loop to completion", func() {
		provider := &scriptedProvider{responses: []string{
			`<REASONING>I should create the file</REASONING>
<ACTION>write_file</ACTION>
<ACTION_INPUT>{"path": "main.go", "content": "package main\n"}</ACTION_INPUT>`,
			`<REASONING>File written, task is done</REASONING>
<ANSWER>Created main.go</ANSWER>`,
		}}

		agent := executor.NewAgentExecutor(provider, "test-model", workspace, nil)
		result, err := agent.Execute(context.Background(), task, events)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success).To(BeTrue())
		Expect(result.Output).To(Equal("Created main.go"))

		data, err := os.ReadFile(filepath.Join(workspace, "main.go"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("package main\n"))

		Expect(events.kinds()).To(Equal([]executor.EventKind{
			executor.EventThought,
			executor.EventToolCall,
			executor.EventToolResult,
			executor.EventThought,
			executor.EventResponse,
		}))
	})

	It("feeds the tool result back as an observation", func() {
		provider := &scriptedProvider{responses: []string{
			`<ACTION>list_files</ACTION>
<ACTION_INPUT>{}</ACTION_INPUT>`,
			`<ANSWER>Workspace inspected</ANSWER>`,
		}}

		agent := executor.NewAgentExecutor(provider, "test-model", workspace, nil)
		_, err := agent.Execute(context.Background(), task, events)
		Expect(err).NotTo(HaveOccurred())

		Expect(provider.requests).To(HaveLen(2))
		followUp := provider.requests[1].Messages
		last := followUp[len(followUp)-1]
		Expect(last.Role).To(Equal(llm.RoleUser))
		Expect(last.Content).To(ContainSubstring("<OBSERVATION>"))
	})

	It("reports unknown tools through the observation instead of failing", func() {
		provider := &scriptedProvider{responses: []string{
			`<ACTION>teleport</ACTION>
<ACTION_INPUT>{}</ACTION_INPUT>`,
			`<ANSWER>gave up on teleporting</ANSWER>`,
		}}

		agent := executor.NewAgentExecutor(provider, "test-model", workspace, nil)
		result, err := agent.Execute(context.Background(), task, events)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success).To(BeTrue())

		followUp := provider.requests[1].Messages
		last := followUp[len(followUp)-1]
		Expect(last.Content).To(ContainSubstring("unknown tool 'teleport'"))
	})

	It("treats an untagged response as the final output", func() {
		provider := &scriptedProvider{responses: []string{"All done, nothing to it."}}

		agent := executor.NewAgentExecutor(provider, "test-model", workspace, nil)
		result, err := agent.Execute(context.Background(), task, events)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success).To(BeTrue())
		Expect(result.Output).To(Equal("All done, nothing to it."))
		Expect(events.kinds()).To(ContainElement(executor.EventOther))
	})

	It("fails the task when the iteration limit is reached", func() {
		looping := `<ACTION>list_files</ACTION>
<ACTION_INPUT>{}</ACTION_INPUT>`
		provider := &scriptedProvider{responses: []string{looping, looping, looping, looping}}

		agent := executor.NewAgentExecutor(provider, "test-model", workspace, nil)
		agent.SetMaxIterations(3)
		result, err := agent.Execute(context.Background(), task, events)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success).To(BeFalse())
		Expect(result.Output).To(ContainSubstring("did not complete within 3 iterations"))
	})

	It("surfaces provider errors", func() {
		provider := &scriptedProvider{err: fmt.Errorf("rate limited")}

		agent := executor.NewAgentExecutor(provider, "test-model", workspace, nil)
		_, err := agent.Execute(context.Background(), task, events)
		Expect(err).To(MatchError(ContainSubstring("rate limited")))
		Expect(err.Error()).To(ContainSubstring("write_main"))
	})
})
