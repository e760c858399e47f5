package llm

import "context"

// Session accumulates a conversation against one provider/model pair.
type Session struct {
	provider      Provider
	model         string
	systemPrompts []string
	messages      []Message
	stopSequences []string
	maxTokens     int
}

func NewSession(provider Provider, model string, systemPrompts ...string) *Session {
	return &Session{
		provider:      provider,
		model:         model,
		systemPrompts: systemPrompts,
	}
}

func (s *Session) AddSystemPrompt(prompt string) {
	s.systemPrompts = append(s.systemPrompts, prompt)
}

func (s *Session) SetStopSequences(sequences []string) {
	s.stopSequences = sequences
}

func (s *Session) SetMaxTokens(n int) {
	s.maxTokens = n
}

// GetHistory returns the accumulated message history (shared slice, read only).
func (s *Session) GetHistory() []Message {
	return s.messages
}

// Send appends the user message, runs a completion, records the assistant
// reply, and returns the response.
func (s *Session) Send(ctx context.Context, userMessage string) (*ChatResponse, error) {
	s.messages = append(s.messages, NewTextMessage(RoleUser, userMessage))

	msgs := make([]Message, 0, len(s.systemPrompts)+len(s.messages))
	for _, p := range s.systemPrompts {
		msgs = append(msgs, NewTextMessage(RoleSystem, p))
	}
	msgs = append(msgs, s.messages...)

	resp, err := s.provider.Chat(ctx, &ChatRequest{
		Model:         s.model,
		Messages:      msgs,
		MaxTokens:     s.maxTokens,
		StopSequences: s.stopSequences,
	})
	if err != nil {
		// Drop the unanswered message so a retry doesn't double it.
		s.messages = s.messages[:len(s.messages)-1]
		return nil, err
	}

	s.messages = append(s.messages, NewTextMessage(RoleAssistant, resp.Content))
	return resp, nil
}
