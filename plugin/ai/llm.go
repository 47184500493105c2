package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// CompletionService is the opaque text-completion collaborator.
// Complete is best effort: callers must tolerate errors and malformed output.
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionFunc adapts a plain function to CompletionService.
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompletionFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type completionService struct {
	client *openai.Client
	config *LLMConfig
}

// NewCompletionService creates a CompletionService backed by an OpenAI-compatible API.
// DeepSeek and Ollama both expose this API, so one client serves all providers.
func NewCompletionService(cfg *LLMConfig) (CompletionService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	c := *cfg
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}

	return &completionService{
		client: openai.NewClientWithConfig(clientConfig),
		config: &c,
	}, nil
}

func (s *completionService) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	var result string
	err := s.doWithRetry(ctx, func() error {
		req := openai.ChatCompletionRequest{
			Model: s.config.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens:   s.config.MaxTokens,
			Temperature: s.config.Temperature,
		}

		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion response")
		}
		result = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete prompt: %w", err)
	}

	slog.Debug("completion finished",
		"model", s.config.Model,
		"prompt_len", len(prompt),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// doWithRetry executes fn with exponential backoff.
func (s *completionService) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	wait := s.config.RetryBackoff
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == s.config.MaxRetries-1 {
			break
		}
		slog.Debug("completion request failed, retrying",
			"attempt", attempt+1,
			"wait_time", wait,
			"error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
	return lastErr
}
