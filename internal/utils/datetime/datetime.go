// Package datetime parses the free-form dates found in scraped pages and LLM answers.
package datetime

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Parse reads s in any common date layout and returns it in UTC.
// It returns nil when s is empty or not a recognizable date.
func Parse(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
