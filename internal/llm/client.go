// Package llm wraps the chat model behind ports.ChatModel and provides
// helpers for digging structured JSON out of model output.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Client implements ports.ChatModel over an OpenAI-compatible endpoint.
type Client struct {
	model       llms.Model
	temperature float64
}

// Config selects the endpoint and model.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
}

// New builds a client for an OpenAI-compatible API. BaseURL may point at
// any compatible gateway (vLLM, Ollama, a corporate proxy).
func New(cfg Config) (*Client, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to construct llm client: %w", err)
	}
	return &Client{model: model, temperature: cfg.Temperature}, nil
}

// NewFromModel wraps an existing langchaingo model. Used by tests.
func NewFromModel(model llms.Model) *Client {
	return &Client{model: model}
}

// Complete sends one system/user exchange and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}, llms.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("llm completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm completion: empty response")
	}
	return resp.Choices[0].Content, nil
}
