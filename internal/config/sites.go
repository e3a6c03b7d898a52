package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sites.yaml
var defaultSites []byte

// SiteConfig is the selector rule set for one news site.
type SiteConfig struct {
	Name               string   `yaml:"name"`
	Domain             string   `yaml:"domain"`
	CandidateSelectors []string `yaml:"candidate_selectors"`
	TitleSelector      string   `yaml:"title_selector"`
	ContentSelector    string   `yaml:"content_selector"`
	DateSelector       string   `yaml:"date_selector"`
	AuthorSelector     string   `yaml:"author_selector"`
	TagSelector        string   `yaml:"tag_selector"`
}

// SiteConfigs is an ordered rule list; the first matching domain wins.
type SiteConfigs struct {
	Sites []SiteConfig `yaml:"sites"`
}

// LoadSiteConfigs loads site rules from path, or the embedded defaults when path is empty.
// The path parameter is expected to come from a trusted source (environment or command-line flag).
func LoadSiteConfigs(path string) (*SiteConfigs, error) {
	data := defaultSites
	if path != "" {
		// #nosec G304 -- path comes from SITE_CONFIG_PATH, not from requests
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read site config file: %w", err)
		}
		data = b
	}

	var cfg SiteConfigs
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse site config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("site config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks that every site has a domain.
func (c *SiteConfigs) Validate() error {
	for i, s := range c.Sites {
		if strings.TrimSpace(s.Domain) == "" {
			return fmt.Errorf("site %d (%q): domain is required", i, s.Name)
		}
	}
	return nil
}

// Match returns the rules for host, or nil when no site matches.
func (c *SiteConfigs) Match(host string) *SiteConfig {
	if c == nil {
		return nil
	}
	host = strings.ToLower(host)
	for i := range c.Sites {
		if strings.Contains(host, strings.ToLower(c.Sites[i].Domain)) {
			return &c.Sites[i]
		}
	}
	return nil
}
