package syndication

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxDiscovered bounds how many candidate feed URLs Discover returns.
const MaxDiscovered = 3

var feedLinkTypes = map[string]bool{
	"application/rss+xml":   true,
	"application/atom+xml":  true,
	"application/feed+json": true,
	"application/json":      true,
}

var feedKeywords = []string{"rss", "feed", "atom"}

// Discover lists feed URLs advertised by an HTML page.
//
// Declared <link rel="alternate"> feeds come first, then anchors whose href mentions rss, feed or atom.
// URLs are resolved against base, de-duplicated and capped at MaxDiscovered.
func Discover(doc *goquery.Document, base *url.URL) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(href string) {
		if len(out) >= MaxDiscovered {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		u, err := resolve(base, href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		u.Fragment = ""
		s := u.String()
		if base != nil && s == base.String() {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		typ := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "")))
		if !feedLinkTypes[typ] {
			return
		}
		rel := strings.ToLower(s.AttrOr("rel", ""))
		if rel != "" && !strings.Contains(rel, "alternate") {
			return
		}
		add(s.AttrOr("href", ""))
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		lower := strings.ToLower(href)
		for _, kw := range feedKeywords {
			if strings.Contains(lower, kw) {
				add(href)
				return
			}
		}
	})

	return out
}
