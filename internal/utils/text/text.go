// Package text provides small string helpers shared by the parsers.
// All length limits are counted in runes, not bytes.
package text

import (
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Ellipsis is appended to truncated summaries.
const Ellipsis = "..."

var whitespaceRe = regexp.MustCompile(`\s+`)

var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true, "td": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"article": true, "section": true, "blockquote": true,
}

// CountRunes counts the number of Unicode characters (runes) in the given text.
//
//	CountRunes("hello")  // 5
//	CountRunes("日本語")  // 3
func CountRunes(text string) int {
	return len([]rune(text))
}

// CollapseWhitespace replaces every run of whitespace with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Truncate cuts s to at most limit runes. When s is cut, Ellipsis is appended.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimRight(string(r[:limit]), " ") + Ellipsis
}

// StripTags returns the visible text of an HTML fragment with entities decoded and whitespace collapsed.
// Text inside script and style elements is dropped.
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return CollapseWhitespace(fragment)
	}

	var b strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return CollapseWhitespace(b.String())
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				skip++
			case blockTags[tag]:
				b.WriteByte(' ')
			}
		case xhtml.SelfClosingTagToken:
			if name, _ := z.TagName(); blockTags[string(name)] {
				b.WriteByte(' ')
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				if skip > 0 {
					skip--
				}
			case blockTags[tag]:
				b.WriteByte(' ')
			}
		case xhtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// Summarize produces a plain-text summary of an HTML fragment, at most limit runes plus Ellipsis.
func Summarize(fragment string, limit int) string {
	return Truncate(StripTags(fragment), limit)
}
