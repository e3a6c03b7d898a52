package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"parserapi/internal/config"
	"parserapi/internal/resilience/retry"
)

// OpenAICompatible talks to any endpoint implementing the OpenAI chat completions API.
// Ollama and Gemini expose one, so they share this client.
type OpenAICompatible struct {
	client      *openai.Client
	guard       *guard
	model       string
	maxTokens   int
	temperature float32
	jsonMode    bool
}

func newOpenAICompatible(cfg *config.LLMConfig, g *guard, httpClient *http.Client) *OpenAICompatible {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}

	return &OpenAICompatible{
		client:      openai.NewClientWithConfig(clientCfg),
		guard:       g,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		jsonMode:    cfg.JSONMode,
	}
}

// Complete sends prompt as the user message and returns the first choice.
func (c *OpenAICompatible) Complete(ctx context.Context, prompt string) (string, error) {
	return c.guard.run(ctx, func(ctx context.Context) (string, error) {
		return c.doComplete(ctx, prompt)
	})
}

func (c *OpenAICompatible) doComplete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s api error: %w", c.guard.provider, mapOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// mapOpenAIError turns HTTP failures into retry.HTTPError so retry and breaker policies can read the status.
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: http.StatusText(reqErr.HTTPStatusCode)}
	}
	return err
}
