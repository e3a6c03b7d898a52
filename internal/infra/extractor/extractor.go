// Package extractor turns HTML pages into feeds with a language model.
//
// The page is reduced to compact text, wrapped in a prompt and sent to an llm.Completer.
// Whatever JSON comes back is reshaped into an entity.Feed by Structure.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"parserapi/internal/domain/entity"
	"parserapi/internal/infra/llm"
	"parserapi/internal/observability/metrics"
)

// Config controls the AI extraction step.
type Config struct {
	// MaxArticles is the number of articles requested from the model and kept from its answer.
	MaxArticles int
	// MaxInputChars caps the preprocessed page text.
	MaxInputChars int
	// SummaryLength is the rune length of summaries derived from content.
	SummaryLength int
}

// AIExtractor extracts feeds from HTML through an LLM.
type AIExtractor struct {
	completer llm.Completer
	prompt    *Prompt
	config    Config
}

// NewAIExtractor creates an AIExtractor. A nil prompt means DefaultPrompt.
func NewAIExtractor(completer llm.Completer, prompt *Prompt, cfg Config) *AIExtractor {
	if prompt == nil {
		prompt = DefaultPrompt()
	}
	return &AIExtractor{completer: completer, prompt: prompt, config: cfg}
}

// Extract preprocesses page, asks the model for articles and reshapes the answer.
//
// Errors wrap ErrInsufficientData when the answer holds no articles, ErrNoJSON when it holds no JSON,
// or the completer's error when the call itself failed.
func (e *AIExtractor) Extract(ctx context.Context, page string, base *url.URL) (*entity.Feed, error) {
	content, err := Preprocess(page, base, e.config.MaxInputChars)
	if err != nil {
		metrics.RecordExtraction("preprocess_error")
		return nil, err
	}
	if content == "" {
		metrics.RecordExtraction("insufficient")
		return nil, fmt.Errorf("%w: page has no text", ErrInsufficientData)
	}

	baseStr := ""
	if base != nil {
		baseStr = base.String()
	}
	prompt, err := e.prompt.Render(PromptData{
		MaxArticles: e.config.MaxArticles,
		BaseURL:     baseStr,
		Content:     content,
	})
	if err != nil {
		metrics.RecordExtraction("prompt_error")
		return nil, err
	}

	answer, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		metrics.RecordExtraction("llm_error")
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	feed, err := Structure(answer, base, StructureOptions{
		MaxArticles:   e.config.MaxArticles,
		SummaryLength: e.config.SummaryLength,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoJSON):
			metrics.RecordExtraction("malformed")
		default:
			metrics.RecordExtraction("insufficient")
		}
		slog.InfoContext(ctx, "ai extraction produced no entries",
			slog.String("url", baseStr),
			slog.Int("answer_length", len(answer)),
			slog.Any("error", err))
		return nil, err
	}

	metrics.RecordExtraction("success")
	slog.InfoContext(ctx, "ai extraction completed",
		slog.String("url", baseStr),
		slog.Int("entries", len(feed.Entries)))
	return feed, nil
}
