// In file: internal/llm/factory.go
package llm

import "fmt"

// Supported provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderMistral   = "mistral"
)

// NewClient builds the LLMClient for the named provider.
func NewClient(provider, apiKey string, opts ...ClientOption) (LLMClient, error) {
	switch provider {
	case ProviderAnthropic, "":
		return NewAnthropicClient(apiKey, opts...)
	case ProviderGemini:
		return NewGeminiClient(apiKey, opts...)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, opts...)
	case ProviderMistral:
		return NewMistralClient(apiKey, opts...)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
