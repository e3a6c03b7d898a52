package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"parserapi/internal/domain/entity"
	"parserapi/internal/utils/datetime"
	"parserapi/internal/utils/text"
)

var (
	// ErrNoJSON is returned when the model answer contains no JSON document.
	ErrNoJSON = errors.New("extractor: no JSON in model response")
	// ErrInsufficientData is returned when the model answer yields no usable articles.
	ErrInsufficientData = errors.New("extractor: insufficient data")
)

// DefaultSummaryLength is the rune length of summaries derived from article content.
const DefaultSummaryLength = 200

var (
	feedTitleKeys    = []string{"feed_title", "title", "site_title", "name"}
	feedLanguageKeys = []string{"feed_language", "language", "lang"}
	articleListKeys  = []string{"articles", "items", "entries", "posts", "news"}

	articleTitleKeys     = []string{"title", "headline", "name"}
	articleLinkKeys      = []string{"link", "url", "href"}
	articlePublishedKeys = []string{"published", "date", "pubDate", "published_at", "publishedAt", "datetime"}
	articleSummaryKeys   = []string{"summary", "description", "excerpt"}
	articleContentKeys   = []string{"content", "body", "content_html"}
	articleAuthorKeys    = []string{"author", "byline", "creator"}
	articleTagKeys       = []string{"tags", "categories", "keywords", "category"}
)

// StructureOptions tunes Structure.
type StructureOptions struct {
	// MaxArticles caps the number of entries. Zero means no cap.
	MaxArticles int
	// SummaryLength is the rune length of summaries derived from content. Default: DefaultSummaryLength
	SummaryLength int
}

// Structure reshapes a free-form model answer into a feed.
//
// The answer may be wrapped in prose or code fences. Articles are read from the first of
// articles, items, entries, posts or a top-level array. Relative links resolve against base.
func Structure(raw string, base *url.URL, opts StructureOptions) (*entity.Feed, error) {
	doc, ok := locateJSON(raw)
	if !ok {
		return nil, ErrNoJSON
	}
	root := gjson.Parse(doc)

	// Some models wrap their answer in a single envelope key.
	if root.IsObject() && !firstOf(root, articleListKeys...).Exists() {
		for _, k := range []string{"content", "data", "result", "feed"} {
			if inner := root.Get(k); inner.IsObject() || inner.IsArray() {
				root = inner
				break
			}
		}
	}

	var articles gjson.Result
	if root.IsArray() {
		articles = root
	} else {
		articles = firstOf(root, articleListKeys...)
	}

	baseStr := ""
	if base != nil {
		baseStr = base.String()
	}
	summaryLen := opts.SummaryLength
	if summaryLen <= 0 {
		summaryLen = DefaultSummaryLength
	}

	feed := &entity.Feed{
		Title:    strings.TrimSpace(stringOf(root, feedTitleKeys...)),
		Link:     baseStr,
		Language: strings.TrimSpace(stringOf(root, feedLanguageKeys...)),
		Updated:  time.Now().UTC(),
		Version:  entity.VersionHTMLAI,
	}
	articles.ForEach(func(_, a gjson.Result) bool {
		if opts.MaxArticles > 0 && len(feed.Entries) >= opts.MaxArticles {
			return false
		}
		if !a.IsObject() {
			return true
		}
		if entry, ok := toEntry(a, base, baseStr, summaryLen); ok {
			feed.Entries = append(feed.Entries, entry)
		}
		return true
	})

	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("%w: no articles in model response", ErrInsufficientData)
	}
	return feed, nil
}

func toEntry(a gjson.Result, base *url.URL, baseStr string, summaryLen int) (entity.Entry, bool) {
	title := text.CollapseWhitespace(stringOf(a, articleTitleKeys...))
	link := strings.TrimSpace(stringOf(a, articleLinkKeys...))
	if title == "" && link == "" {
		return entity.Entry{}, false
	}

	switch {
	case link == "":
		link = baseStr
	case !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://"):
		link = resolveLink(base, link)
	}
	if title == "" {
		title = entity.DefaultEntryTitle
	}

	content := stringOf(a, articleContentKeys...)
	summary := strings.TrimSpace(stringOf(a, articleSummaryKeys...))
	if summary == "" && content != "" {
		summary = text.Summarize(content, summaryLen)
	}

	published := strings.TrimSpace(stringOf(a, articlePublishedKeys...))

	return entity.Entry{
		Title:       title,
		Link:        link,
		Published:   published,
		PublishedAt: datetime.Parse(published),
		Summary:     summary,
		Content:     content,
		Author:      strings.TrimSpace(authorOf(a)),
		Tags:        tagsOf(firstOf(a, articleTagKeys...)),
	}, true
}

// locateJSON strips code fences and returns the outermost JSON object or array in s.
func locateJSON(s string) (string, bool) {
	s = stripFences(s)
	if gjson.Valid(s) {
		t := strings.TrimSpace(s)
		if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
			return t, true
		}
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	for end := strings.LastIndexByte(s, closer); end > start; end = strings.LastIndexByte(s[:end], closer) {
		if candidate := s[start : end+1]; gjson.Valid(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	i := strings.Index(s, "```")
	if i < 0 {
		return s
	}
	rest := s[i+3:]
	// Drop a language tag such as ```json.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	if j := strings.LastIndex(rest, "```"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

func firstOf(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func stringOf(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		v := r.Get(k)
		switch {
		case v.Type == gjson.String && strings.TrimSpace(v.Str) != "":
			return v.Str
		case v.Type == gjson.Number:
			return v.Raw
		}
	}
	return ""
}

func authorOf(a gjson.Result) string {
	v := firstOf(a, articleAuthorKeys...)
	switch {
	case v.Type == gjson.String:
		return v.Str
	case v.IsObject():
		return v.Get("name").String()
	case v.IsArray():
		var names []string
		v.ForEach(func(_, n gjson.Result) bool {
			name := n.String()
			if n.IsObject() {
				name = n.Get("name").String()
			}
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
			return true
		})
		return strings.Join(names, ", ")
	}
	return ""
}

// tagsOf accepts a comma separated string or a list of strings.
func tagsOf(v gjson.Result) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch {
	case v.Type == gjson.String:
		for _, part := range strings.Split(v.Str, ",") {
			add(part)
		}
	case v.IsArray():
		v.ForEach(func(_, t gjson.Result) bool {
			if t.IsObject() {
				add(firstOf(t, "name", "term", "label").String())
			} else {
				add(t.String())
			}
			return true
		})
	}
	return out
}
