package ai

import (
	"errors"
	"time"

	"github.com/hrygo/rundown/internal/profile"
)

// LLMConfig represents text-completion configuration.
type LLMConfig struct {
	Provider    string // deepseek, openai, ollama
	Model       string // deepseek-chat
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0.2
	MaxRetries  int     // default: 2
	// RetryBackoff is the first retry delay; it doubles per attempt.
	RetryBackoff time.Duration
}

// NewLLMConfigFromProfile creates the completion config from profile.
func NewLLMConfigFromProfile(p *profile.Profile) *LLMConfig {
	return &LLMConfig{
		Provider:     p.LLMProvider,
		Model:        p.LLMModel,
		APIKey:       p.LLMAPIKey,
		BaseURL:      p.LLMBaseURL,
		MaxTokens:    1024,
		Temperature:  0.2,
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// Validate validates the completion configuration.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case "deepseek", "openai":
		if c.APIKey == "" {
			return errors.New(c.Provider + ": API key is required")
		}
	case "ollama":
		if c.BaseURL == "" {
			return errors.New("ollama: base URL is required")
		}
	default:
		return errors.New("unsupported LLM provider: " + c.Provider)
	}
	if c.Model == "" {
		return errors.New("LLM model is required")
	}
	return nil
}
