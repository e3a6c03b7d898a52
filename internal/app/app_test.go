package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parserapi/internal/config"
	"parserapi/internal/infra/extractor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_WithoutAI(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "none")

	a, err := New(context.Background(), discardLogger(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NotNil(t, a.Parser)
	assert.False(t, a.Parser.AIEnabled())
	assert.Equal(t, config.ProviderNone, a.AIProvider())
	assert.Nil(t, a.Cache)
	assert.Nil(t, a.History)
	assert.Nil(t, a.DB)
}

func TestNew_DisableAIOverridesProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")

	a, err := New(context.Background(), discardLogger(), Options{DisableAI: true})
	require.NoError(t, err)

	assert.False(t, a.Parser.AIEnabled())
	assert.Equal(t, config.ProviderNone, a.AIProvider())
}

func TestNew_OllamaProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")

	a, err := New(context.Background(), discardLogger(), Options{})
	require.NoError(t, err)

	assert.True(t, a.Parser.AIEnabled())
	assert.Equal(t, config.ProviderOllama, a.AIProvider())
}

func TestNew_MemoryCacheWithoutRedis(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")

	a, err := New(context.Background(), discardLogger(), Options{Stores: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NotNil(t, a.Cache)
	assert.Equal(t, "memory", a.Cache.Name())
	assert.Nil(t, a.History)
}

func TestNew_CacheDisabledByZeroTTL(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("PARSE_CACHE_TTL", "0s")

	a, err := New(context.Background(), discardLogger(), Options{Stores: true})
	require.NoError(t, err)

	assert.Nil(t, a.Cache)
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "parser limits", env: map[string]string{"PARSER_ITEMS_LIMIT": "0"}},
		{name: "llm provider", env: map[string]string{"LLM_PROVIDER": "bogus"}},
		{name: "server port", env: map[string]string{"LLM_PROVIDER": "none", "PORT": "70000"}},
		{name: "fetcher timeout", env: map[string]string{"LLM_PROVIDER": "none", "FETCH_TIMEOUT": "soon"}},
		{name: "missing site config", env: map[string]string{"LLM_PROVIDER": "none", "SITE_CONFIG_PATH": "/nonexistent/sites.yaml"}},
		{name: "missing prompt", env: map[string]string{"LLM_PROVIDER": "ollama", "PARSER_PROMPT_FILE": "/nonexistent/prompt.tmpl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := New(context.Background(), discardLogger(), Options{})
			assert.Error(t, err)
		})
	}
}

func TestNew_CustomPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("List {{.MaxArticles}} articles from {{.BaseURL}}:\n{{.Content}}"), 0o600))
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("PARSER_PROMPT_FILE", path)

	a, err := New(context.Background(), discardLogger(), Options{})
	require.NoError(t, err)
	assert.True(t, a.Parser.AIEnabled())
}

func TestBuildPrompt_ExtraRequirements(t *testing.T) {
	t.Setenv("PARSER_PROMPT_EXTRA", "focus=technology news;language=English")
	cfg, err := config.LoadParserConfig()
	require.NoError(t, err)

	prompt, err := buildPrompt(cfg)
	require.NoError(t, err)

	out, err := prompt.Render(extractor.PromptData{MaxArticles: 2, BaseURL: "https://example.com/", Content: "page"})
	require.NoError(t, err)
	assert.Contains(t, out, "- focus: technology news\n- language: English")
	assert.Contains(t, out, "Extract up to 2 articles")
}

func TestBuildPrompt_Default(t *testing.T) {
	cfg, err := config.LoadParserConfig()
	require.NoError(t, err)

	prompt, err := buildPrompt(cfg)
	require.NoError(t, err)

	out, err := prompt.Render(extractor.PromptData{MaxArticles: 2, BaseURL: "https://example.com/", Content: "page"})
	require.NoError(t, err)
	assert.NotContains(t, out, "Additional requirements")
}

func TestClose_ReverseOrder(t *testing.T) {
	var order []int
	a := &App{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return nil },
	}}

	require.NoError(t, a.Close())
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, a.Close())
}
