package config

import "fmt"

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// Model represents a model provider configuration
type Model struct {
	Name      string   `hcl:"name,label"`
	Provider  Provider `hcl:"provider"`
	ModelName string   `hcl:"model"`
	APIKey    string   `hcl:"api_key"`
}

func (m *Model) Validate() error {
	switch m.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("provider '%s' is not supported (expected 'openai', 'gemini', or 'anthropic')", m.Provider)
	}
	if m.ModelName == "" {
		return fmt.Errorf("model name is required")
	}
	return nil
}
