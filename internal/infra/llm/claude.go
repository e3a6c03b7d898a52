package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"parserapi/internal/config"
	"parserapi/internal/resilience/retry"
)

// Claude completes prompts with the Anthropic Messages API.
type Claude struct {
	client      anthropic.Client
	guard       *guard
	model       string
	maxTokens   int
	temperature float64
}

func newClaude(cfg *config.LLMConfig, g *guard, httpClient *http.Client) *Claude {
	// Retries are handled by the guard.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Claude{
		client:      anthropic.NewClient(opts...),
		guard:       g,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Complete sends prompt as a single user message and joins the text blocks of the answer.
func (c *Claude) Complete(ctx context.Context, prompt string) (string, error) {
	return c.guard.run(ctx, func(ctx context.Context) (string, error) {
		return c.doComplete(ctx, prompt)
	})
}

func (c *Claude) doComplete(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(c.maxTokens),
		Temperature: anthropic.Float(c.temperature),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", mapAnthropicError(err))
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode == 0 {
		return err
	}
	httpErr := &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: http.StatusText(apiErr.StatusCode)}
	if apiErr.Response != nil {
		httpErr.RetryAfter = retry.ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"), time.Now())
	}
	return httpErr
}
