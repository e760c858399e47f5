package llm

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents one conversation message.
type Message struct {
	Role    Role
	Content string
}

// NewTextMessage creates a simple text message.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

type ChatRequest struct {
	Model         string
	Messages      []Message
	MaxTokens     int
	Temperature   float64
	StopSequences []string
}

type ChatResponse struct {
	ID           string
	Content      string
	FinishReason string
	Usage        Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is a model backend capable of one-shot chat completions.
type Provider interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
