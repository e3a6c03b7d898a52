package extractor

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var defaultPromptText string

// PromptData is the input of the extraction prompt template.
type PromptData struct {
	MaxArticles int
	BaseURL     string
	Content     string
	Extra       []string
}

// Prompt renders the extraction prompt sent to the LLM.
type Prompt struct {
	tmpl        *template.Template
	maxArticles int
	extra       []string
}

// DefaultPrompt returns the built-in prompt.
func DefaultPrompt() *Prompt {
	return &Prompt{tmpl: template.Must(template.New("prompt").Parse(defaultPromptText))}
}

// NewPrompt parses a text/template prompt.
// Fields available to the template are those of PromptData.
func NewPrompt(text string) (*Prompt, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// LoadPrompt reads a prompt template from path, or returns DefaultPrompt when path is empty.
func LoadPrompt(path string) (*Prompt, error) {
	if path == "" {
		return DefaultPrompt(), nil
	}
	// #nosec G304 -- path comes from PARSER_PROMPT_FILE, set by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	return NewPrompt(string(data))
}

// Customize returns a copy of p with extra requirements.
//
// A positive maxArticles overrides the article count given at render time.
// Each extra entry becomes a "key: value" line of the "Additional requirements" section, ordered by key.
func (p *Prompt) Customize(maxArticles int, extra map[string]string) *Prompt {
	out := &Prompt{tmpl: p.tmpl, maxArticles: p.maxArticles, extra: append([]string(nil), p.extra...)}
	if maxArticles > 0 {
		out.maxArticles = maxArticles
		out.extra = append(out.extra, fmt.Sprintf("Extract up to %d articles maximum", maxArticles))
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.extra = append(out.extra, fmt.Sprintf("%s: %s", k, extra[k]))
	}
	return out
}

// Render executes the template. Customized article limits and requirements take precedence over data.
func (p *Prompt) Render(data PromptData) (string, error) {
	if p.maxArticles > 0 {
		data.MaxArticles = p.maxArticles
	}
	data.Extra = append(append([]string(nil), p.extra...), data.Extra...)

	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
