package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"parserapi/internal/utils/text"
)

// noiseSelector lists elements that never carry article content.
const noiseSelector = "script, style, noscript, svg, iframe, template, nav, footer, aside, form"

var lineBreakTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true, "main": true,
	"ul": true, "ol": true, "table": true, "tr": true, "br": true, "blockquote": true,
	"figure": true, "figcaption": true, "dl": true, "dt": true, "dd": true, "time": true,
}

// Preprocess reduces an HTML page to compact text for the LLM.
//
// Noise elements are removed. Headings become "#" lines, links become [text](absolute-url),
// block elements start new lines and whitespace is collapsed. The result is cut to maxChars runes.
func Preprocess(page string, base *url.URL, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(noiseSelector).Remove()

	r := &renderer{base: base}
	if title := text.CollapseWhitespace(doc.Find("title").First().Text()); title != "" {
		r.lines = append(r.lines, "Title: "+title)
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	for _, n := range root.Nodes {
		r.walk(n)
	}
	r.flush()

	out := strings.Join(r.lines, "\n")
	if maxChars > 0 {
		out = text.Truncate(out, maxChars)
	}
	return out, nil
}

type renderer struct {
	base  *url.URL
	lines []string
	cur   strings.Builder
}

func (r *renderer) flush() {
	if line := text.CollapseWhitespace(r.cur.String()); line != "" {
		r.lines = append(r.lines, line)
	}
	r.cur.Reset()
}

func (r *renderer) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		r.cur.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			r.walk(c)
		}
		return
	}

	switch tag := n.Data; {
	case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
		r.flush()
		sub := &renderer{base: r.base}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			sub.walk(c)
		}
		sub.flush()
		if t := strings.Join(sub.lines, " "); t != "" {
			r.lines = append(r.lines, strings.Repeat("#", int(tag[1]-'0'))+" "+t)
		}
		return
	case tag == "a":
		r.writeLink(n)
		return
	case tag == "li":
		r.flush()
		r.cur.WriteString("- ")
	case tag == "img":
		if alt := attr(n, "alt"); alt != "" {
			r.cur.WriteString(" " + alt + " ")
		}
		return
	case lineBreakTags[tag]:
		r.flush()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}

	if n.Data == "li" || lineBreakTags[n.Data] {
		r.flush()
	}
}

func (r *renderer) writeLink(n *html.Node) {
	label := nodeText(n)
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		r.cur.WriteString(" " + label + " ")
		return
	}
	if label == "" {
		label = attr(n, "title")
	}
	if label == "" {
		return
	}
	r.cur.WriteString(" [" + label + "](" + resolveLink(r.base, href) + ") ")
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return text.CollapseWhitespace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// resolveLink returns ref resolved against base, or ref unchanged when it cannot be parsed.
func resolveLink(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
