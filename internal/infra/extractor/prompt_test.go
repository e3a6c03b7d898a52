package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompt_Render(t *testing.T) {
	out, err := DefaultPrompt().Render(PromptData{
		MaxArticles: 7,
		BaseURL:     "https://example.com/",
		Content:     "# Headline",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Extract up to 7 articles")
	assert.Contains(t, out, "fetched from https://example.com/")
	assert.Contains(t, out, "\"articles\"")
	assert.Contains(t, out, "Page:\n# Headline")
	assert.NotContains(t, out, "Additional requirements")
}

func TestPrompt_Customize(t *testing.T) {
	base := DefaultPrompt()
	custom := base.Customize(3, map[string]string{
		"language": "only English articles",
		"focus":    "technology news",
	})

	out, err := custom.Render(PromptData{MaxArticles: 10, BaseURL: "https://example.com/", Content: "x"})
	require.NoError(t, err)

	assert.Contains(t, out, "Extract up to 3 articles")
	assert.Contains(t, out, "Additional requirements:\n- Extract up to 3 articles maximum\n- focus: technology news\n- language: only English articles")

	plain, err := base.Render(PromptData{MaxArticles: 10, Content: "x"})
	require.NoError(t, err)
	assert.NotContains(t, plain, "Additional requirements", "Customize must not modify the original prompt")
}

func TestLoadPrompt(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		p, err := LoadPrompt("")
		require.NoError(t, err)
		out, err := p.Render(PromptData{Content: "body"})
		require.NoError(t, err)
		assert.Contains(t, out, "body")
	})

	t.Run("custom file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.tmpl")
		require.NoError(t, os.WriteFile(path, []byte("List {{.MaxArticles}} posts from {{.BaseURL}}:\n{{.Content}}"), 0o600))

		p, err := LoadPrompt(path)
		require.NoError(t, err)
		out, err := p.Render(PromptData{MaxArticles: 2, BaseURL: "https://b.example", Content: "text"})
		require.NoError(t, err)
		assert.Equal(t, "List 2 posts from https://b.example:\ntext", out)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPrompt(filepath.Join(t.TempDir(), "missing.tmpl"))
		assert.Error(t, err)
	})

	t.Run("invalid template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.tmpl")
		require.NoError(t, os.WriteFile(path, []byte("{{.Content"), 0o600))
		_, err := LoadPrompt(path)
		assert.Error(t, err)
	})
}
