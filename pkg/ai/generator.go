package ai

import (
	"context"
	"fmt"
	"strings"
)

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior or current turn sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Options tunes a single completion. Zero values leave the provider default.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	// JSON asks the provider for a JSON object response where it supports it.
	JSON bool
}

// Request is a full completion request: a system prompt plus ordered turns,
// the last of which is the current user turn.
type Request struct {
	System   string
	Messages []Message
	Options  Options
}

// TextGenerator produces a completion for a request.
// All LLM providers (OpenAI-compatible, Ollama, Gemini, Claude) implement this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, req Request) (string, error)
}

const (
	ProviderOpenAICompat = "openai-compat"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderGemini       = "gemini"
	ProviderClaude       = "claude"

	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
)

// ProviderConfig selects and configures a generator.
type ProviderConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// NewTextGenerator builds the generator named by cfg.Provider.
// An empty provider means Groq through its OpenAI-compatible API.
func NewTextGenerator(ctx context.Context, cfg ProviderConfig) (TextGenerator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGroq
	}
	switch provider {
	case ProviderGroq:
		baseURL := cfg.BaseURL
		if strings.TrimSpace(baseURL) == "" {
			baseURL = DefaultGroqBaseURL
		}
		model := cfg.Model
		if strings.TrimSpace(model) == "" {
			model = DefaultGroqModel
		}
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("groq api key required")
		}
		return NewOpenAICompatGenerator(baseURL, cfg.APIKey, model), nil
	case ProviderOpenAICompat:
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("openai-compat base url required")
		}
		return NewOpenAICompatGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case ProviderOllama:
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model), nil
	case ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderClaude:
		return NewClaudeGenerator(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", provider)
	}
}
