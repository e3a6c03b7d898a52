package parse

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"parserapi/internal/domain/entity"
	"parserapi/internal/utils/text"
)

const (
	minTitleRunes = 5
	maxTitleRunes = 200
	snippetRunes  = 100
)

var (
	metaTitleSelectors = []string{
		`meta[property="og:title"]`,
		`meta[name="og:title"]`,
		`meta[name="twitter:title"]`,
		`meta[property="twitter:title"]`,
		`meta[name="title"]`,
	}
	headingTags         = []string{"h1", "h2", "h3", "h4", "h5", "h6"}
	titleClassSelectors = []string{
		`[class*="title"]`,
		`[class*="headline"]`,
		`[class*="entry-title"]`,
		`[class*="post-title"]`,
		`[class*="article-title"]`,
	}
	containerSelector = `article, [class*="post"], [class*="entry"], [class*="story"]`
	titleAttrs        = []string{"aria-label", "data-title", "title"}

	sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)
	leadingDigitsRe = regexp.MustCompile(`^\d+\s*`)
)

// ExtractTitle picks a display title for e.
//
// The title field wins when it is usable. Otherwise titles are searched in the summary and content HTML,
// then derived from the link's last path segment. A title is usable when it has 5 to 200 characters
// after entities are decoded and whitespace collapsed. When nothing qualifies the result is
// entity.DefaultEntryTitle.
func ExtractTitle(e entity.Entry) string {
	if t, ok := cleanTitle(e.Title); ok {
		return t
	}
	for _, fragment := range []string{e.Summary, e.Content} {
		if t, ok := titleFromHTML(fragment); ok {
			return t
		}
	}
	if t, ok := titleFromLink(e.Link); ok {
		return t
	}
	return entity.DefaultEntryTitle
}

// cleanTitle decodes the entities of a raw title field before acceptTitle.
func cleanTitle(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	return acceptTitle(html.UnescapeString(raw))
}

// acceptTitle checks text that is already decoded, such as DOM text or attribute values.
func acceptTitle(decoded string) (string, bool) {
	t := text.CollapseWhitespace(decoded)
	n := text.CountRunes(t)
	if n < minTitleRunes || n > maxTitleRunes {
		return "", false
	}
	return t, true
}

func titleFromHTML(fragment string) (string, bool) {
	if strings.TrimSpace(fragment) == "" {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", false
	}

	for _, sel := range metaTitleSelectors {
		if t, ok := firstClean(doc.Find(sel), func(s *goquery.Selection) string { return s.AttrOr("content", "") }); ok {
			return t, true
		}
	}
	if t, ok := acceptTitle(doc.Find("title").First().Text()); ok {
		return t, true
	}
	if t, ok := firstHeading(doc.Selection); ok {
		return t, true
	}
	for _, sel := range titleClassSelectors {
		if t, ok := firstClean(doc.Find(sel), (*goquery.Selection).Text); ok {
			return t, true
		}
	}

	var found string
	doc.Find(containerSelector).EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if t, ok := firstHeading(c); ok {
			found = t
			return false
		}
		return true
	})
	if found != "" {
		return found, true
	}

	// Only the first element carrying each attribute is considered.
	for _, attr := range titleAttrs {
		if t, ok := acceptTitle(doc.Find("[" + attr + "]").First().AttrOr(attr, "")); ok {
			return t, true
		}
	}

	var paragraph string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if strings.TrimSpace(p.Text()) != "" {
			paragraph = p.Text()
			return false
		}
		return true
	})
	if t, ok := acceptTitle(paragraph); ok {
		return t, true
	}

	return titleFromText(text.CollapseWhitespace(doc.Text()))
}

func titleFromText(body string) (string, bool) {
	if body == "" {
		return "", false
	}
	for _, sentence := range sentenceSplitRe.Split(body, -1) {
		if t, ok := acceptTitle(sentence); ok {
			return t, true
		}
	}
	if text.CountRunes(body) > 10 {
		return acceptTitle(text.Truncate(body, snippetRunes))
	}
	return "", false
}

func firstHeading(s *goquery.Selection) (string, bool) {
	for _, tag := range headingTags {
		if t, ok := firstClean(s.Find(tag), (*goquery.Selection).Text); ok {
			return t, true
		}
	}
	return "", false
}

func firstClean(s *goquery.Selection, value func(*goquery.Selection) string) (string, bool) {
	var out string
	s.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if t, ok := acceptTitle(value(el)); ok {
			out = t
			return false
		}
		return true
	})
	return out, out != ""
}

// titleFromLink turns a URL slug such as /news/2024-03-01_big-launch.html into "Big Launch".
func titleFromLink(link string) (string, bool) {
	if link == "" {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil || u.Path == "" {
		return "", false
	}

	var last string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			last = seg
		}
	}
	if last == "" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(last); err == nil {
		last = unescaped
	}
	if i := strings.LastIndexByte(last, '.'); i >= 0 {
		last = last[:i]
	}
	last = strings.NewReplacer("_", " ", "-", " ").Replace(last)
	last = leadingDigitsRe.ReplaceAllString(last, "")
	return acceptTitle(titleCase(last))
}

// titleCase upper-cases the first letter of every run of letters and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
