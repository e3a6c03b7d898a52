// Package config loads the parser service configuration from environment variables and YAML files.
package config

import (
	"fmt"
	"strings"
	"time"

	envcfg "parserapi/pkg/config"
)

// ParserConfig controls how pages are turned into items.
type ParserConfig struct {
	// MaxArticles is the number of articles the LLM is asked to extract. Default: 2
	MaxArticles int

	// DefaultItems is the number of items returned when a request has no limit. Default: 5
	DefaultItems int

	// MaxItems is the largest limit a request may ask for. Default: 50
	MaxItems int

	// SummaryLength is the rune length of summaries derived from content. Default: 200
	SummaryLength int

	// MaxInputChars caps the preprocessed page text sent to the LLM. Default: 24000
	MaxInputChars int

	// PromptFile optionally replaces the built-in extraction prompt template.
	PromptFile string

	// PromptExtra adds "key: value" requirements to the extraction prompt.
	// Read from PARSER_PROMPT_EXTRA as "key=value;key=value".
	PromptExtra map[string]string

	// HeuristicMaxEntries caps the entries produced by the selector heuristics. Default: 50
	HeuristicMaxEntries int

	// SiteConfigPath optionally replaces the embedded per-site selector rules.
	SiteConfigPath string

	// CacheTTL is how long parse results are cached. Zero disables caching. Default: 10m
	CacheTTL time.Duration
}

// LoadParserConfig reads ParserConfig from the environment.
//
// Environment variables:
//   - PARSER_MAX_ARTICLES, PARSER_MAX_ITEMS, PARSER_ITEMS_LIMIT
//   - PARSER_SUMMARY_LENGTH, LLM_MAX_INPUT_CHARS, PARSER_PROMPT_FILE, PARSER_PROMPT_EXTRA
//   - HEURISTIC_MAX_ENTRIES, SITE_CONFIG_PATH, PARSE_CACHE_TTL
func LoadParserConfig() (*ParserConfig, error) {
	cfg := &ParserConfig{
		MaxArticles:         envcfg.GetEnvInt("PARSER_MAX_ARTICLES", 2),
		DefaultItems:        envcfg.GetEnvInt("PARSER_MAX_ITEMS", 5),
		MaxItems:            envcfg.GetEnvInt("PARSER_ITEMS_LIMIT", 50),
		SummaryLength:       envcfg.GetEnvInt("PARSER_SUMMARY_LENGTH", 200),
		MaxInputChars:       envcfg.GetEnvInt("LLM_MAX_INPUT_CHARS", 24000),
		PromptFile:          envcfg.GetEnvString("PARSER_PROMPT_FILE", ""),
		HeuristicMaxEntries: envcfg.GetEnvInt("HEURISTIC_MAX_ENTRIES", 50),
		SiteConfigPath:      envcfg.GetEnvString("SITE_CONFIG_PATH", ""),
		CacheTTL:            envcfg.GetEnvDuration("PARSE_CACHE_TTL", 10*time.Minute),
	}

	extra, err := ParsePromptExtra(envcfg.GetEnvString("PARSER_PROMPT_EXTRA", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid parser configuration: PARSER_PROMPT_EXTRA: %w", err)
	}
	cfg.PromptExtra = extra

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parser configuration: %w", err)
	}
	return cfg, nil
}

// ParsePromptExtra reads "key=value" pairs separated by semicolons. Empty pairs are skipped.
func ParsePromptExtra(s string) (map[string]string, error) {
	extra := map[string]string{}
	for _, pair := range strings.Split(s, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		extra[key] = value
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}

// Validate checks configuration correctness.
func (c *ParserConfig) Validate() error {
	if err := envcfg.ValidateIntRange(c.MaxArticles, 1, 100); err != nil {
		return fmt.Errorf("PARSER_MAX_ARTICLES: %w", err)
	}
	if err := envcfg.ValidateIntRange(c.MaxItems, 1, 500); err != nil {
		return fmt.Errorf("PARSER_ITEMS_LIMIT: %w", err)
	}
	if err := envcfg.ValidateIntRange(c.DefaultItems, 1, c.MaxItems); err != nil {
		return fmt.Errorf("PARSER_MAX_ITEMS: %w", err)
	}
	if c.SummaryLength <= 0 {
		return fmt.Errorf("PARSER_SUMMARY_LENGTH must be positive")
	}
	if c.MaxInputChars < 1000 {
		return fmt.Errorf("LLM_MAX_INPUT_CHARS must be at least 1000")
	}
	if c.HeuristicMaxEntries <= 0 {
		return fmt.Errorf("HEURISTIC_MAX_ENTRIES must be positive")
	}
	if err := envcfg.ValidateNonNegativeDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("PARSE_CACHE_TTL: %w", err)
	}
	return nil
}
