package config

import (
	"fmt"
	"strings"
	"time"

	envcfg "parserapi/pkg/config"
)

// LLM provider names accepted by LLM_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderNone   = "none"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "tinyllama:1.1b"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultClaudeModel   = "claude-sonnet-4-5-20250929"
)

// LLMConfig holds the settings of the extraction model.
type LLMConfig struct {
	// Provider is one of ollama, openai, gemini, claude or none. Default: ollama
	Provider string

	// Model is the provider-specific model identifier.
	Model string

	// BaseURL is the API endpoint. For OpenAI-compatible providers it includes the /v1 prefix.
	BaseURL string

	// APIKey authenticates against hosted providers. Ollama ignores it.
	APIKey string

	// Timeout bounds a single completion call. Default: 60s
	Timeout time.Duration

	// MaxTokens bounds the completion length. Default: 4096
	MaxTokens int

	// Temperature is passed through to the provider. Default: 0
	Temperature float64

	// JSONMode asks the provider for a JSON object response where supported. Default: true
	JSONMode bool

	// RateLimitRPS and RateLimitBurst throttle outgoing completions. Defaults: 1 and 2
	RateLimitRPS   float64
	RateLimitBurst int
}

// Enabled reports whether AI extraction should be attempted.
func (c *LLMConfig) Enabled() bool {
	return c.Provider != ProviderNone
}

// LoadLLMConfig reads LLMConfig from the environment.
//
// LLM_PROVIDER selects the provider; each provider then reads its own variables:
//   - ollama: OLLAMA_BASE_URL, OLLAMA_MODEL
//   - openai: OPENAI_API_KEY, OPENAI_MODEL, OPENAI_BASE_URL
//   - gemini: GEMINI_API_KEY, GEMINI_MODEL, GEMINI_BASE_URL
//   - claude: ANTHROPIC_API_KEY, CLAUDE_MODEL, ANTHROPIC_BASE_URL
//
// Shared: LLM_TIMEOUT, LLM_MAX_TOKENS, LLM_TEMPERATURE, LLM_JSON_MODE, LLM_RATE_LIMIT_RPS, LLM_RATE_LIMIT_BURST.
func LoadLLMConfig() (*LLMConfig, error) {
	cfg := &LLMConfig{
		Provider:       strings.ToLower(envcfg.GetEnvString("LLM_PROVIDER", ProviderOllama)),
		Timeout:        envcfg.GetEnvDuration("LLM_TIMEOUT", 60*time.Second),
		MaxTokens:      envcfg.GetEnvInt("LLM_MAX_TOKENS", 4096),
		Temperature:    envcfg.GetEnvFloat("LLM_TEMPERATURE", 0),
		JSONMode:       envcfg.GetEnvBool("LLM_JSON_MODE", true),
		RateLimitRPS:   envcfg.GetEnvFloat("LLM_RATE_LIMIT_RPS", 1),
		RateLimitBurst: envcfg.GetEnvInt("LLM_RATE_LIMIT_BURST", 2),
	}

	switch cfg.Provider {
	case ProviderOllama:
		base := strings.TrimRight(envcfg.GetEnvString("OLLAMA_BASE_URL", defaultOllamaBaseURL), "/")
		if !strings.HasSuffix(base, "/v1") {
			base += "/v1"
		}
		cfg.BaseURL = base
		cfg.Model = envcfg.GetEnvString("OLLAMA_MODEL", defaultOllamaModel)
		cfg.APIKey = "ollama"
	case ProviderOpenAI:
		cfg.BaseURL = envcfg.GetEnvString("OPENAI_BASE_URL", "")
		cfg.Model = envcfg.GetEnvString("OPENAI_MODEL", defaultOpenAIModel)
		cfg.APIKey = envcfg.GetEnvString("OPENAI_API_KEY", "")
	case ProviderGemini:
		cfg.BaseURL = envcfg.GetEnvString("GEMINI_BASE_URL", defaultGeminiBaseURL)
		cfg.Model = envcfg.GetEnvString("GEMINI_MODEL", defaultGeminiModel)
		cfg.APIKey = envcfg.GetEnvString("GEMINI_API_KEY", "")
	case ProviderClaude:
		cfg.BaseURL = envcfg.GetEnvString("ANTHROPIC_BASE_URL", "")
		cfg.Model = envcfg.GetEnvString("CLAUDE_MODEL", defaultClaudeModel)
		cfg.APIKey = envcfg.GetEnvString("ANTHROPIC_API_KEY", "")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid LLM configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case ProviderNone:
		return nil
	case ProviderOllama:
	case ProviderOpenAI, ProviderGemini, ProviderClaude:
		if c.APIKey == "" {
			return fmt.Errorf("an API key is required for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if err := envcfg.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("LLM_TIMEOUT: %w", err)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2, got %v", c.Temperature)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("LLM_RATE_LIMIT_RPS must be non-negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("LLM_RATE_LIMIT_BURST must be positive when rate limiting is on")
	}
	return nil
}
