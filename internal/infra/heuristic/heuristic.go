// Package heuristic extracts feed entries from HTML with CSS selector rules.
// It is the fallback when AI extraction is disabled, fails or finds nothing.
package heuristic

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"parserapi/internal/config"
	"parserapi/internal/domain/entity"
	"parserapi/internal/observability/metrics"
	"parserapi/internal/utils/datetime"
	"parserapi/internal/utils/text"
)

// MinCandidateText is the rune length below which a candidate container is ignored.
const MinCandidateText = 50

const (
	defaultMaxEntries    = 50
	defaultSummaryLength = 200
)

// Generic selectors, used when no site rule matches or a rule leaves a selector empty.
var (
	defaultCandidateSelectors = []string{
		"article",
		`[itemtype*="Article"]`,
		`[class*="post"]`,
		`[id*="post"]`,
		`[class*="article"]`,
		`[class*="articles"]`,
		`[id*="article"]`,
		`[class*="entry"]`,
		`[id*="entry"]`,
		`[class*="story"]`,
		`[id*="story"]`,
	}
	defaultTitleSelector   = `h1, [itemprop="headline"], .title`
	defaultDateSelector    = "time, [datetime], .date, .published, .posted-on"
	defaultContentSelector = `[itemprop="articleBody"], .content, .entry-content, .post-content`
	defaultAuthorSelector  = `[itemprop="author"], .author, .byline`
	defaultTagSelector     = `[rel="tag"], .category, .tag`
)

// Options tunes a Parser.
type Options struct {
	// MaxEntries caps the entries of one page. Default: 50
	MaxEntries int
	// SummaryLength is the rune length of entry summaries. Default: 200
	SummaryLength int
}

// Parser applies site rules, then generic rules, to pull entries out of a page.
//
// Thread safety: Parser is safe for concurrent use.
type Parser struct {
	sites         *config.SiteConfigs
	maxEntries    int
	summaryLength int
}

// New creates a Parser. sites may be nil, in which case only the generic rules apply.
func New(sites *config.SiteConfigs, opts Options) *Parser {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxEntries
	}
	if opts.SummaryLength <= 0 {
		opts.SummaryLength = defaultSummaryLength
	}
	return &Parser{sites: sites, maxEntries: opts.MaxEntries, summaryLength: opts.SummaryLength}
}

// rules is a fully resolved selector set.
type rules struct {
	name       string
	candidates []string
	title      string
	date       string
	content    string
	author     string
	tags       string
}

func (p *Parser) rulesFor(host string) rules {
	r := rules{
		name:       "generic",
		candidates: defaultCandidateSelectors,
		title:      defaultTitleSelector,
		date:       defaultDateSelector,
		content:    defaultContentSelector,
		author:     defaultAuthorSelector,
		tags:       defaultTagSelector,
	}
	site := p.sites.Match(host)
	if site == nil {
		return r
	}
	r.name = site.Name
	if len(site.CandidateSelectors) > 0 {
		r.candidates = site.CandidateSelectors
	}
	r.title = orDefault(site.TitleSelector, r.title)
	r.date = orDefault(site.DateSelector, r.date)
	r.content = orDefault(site.ContentSelector, r.content)
	r.author = orDefault(site.AuthorSelector, r.author)
	r.tags = orDefault(site.TagSelector, r.tags)
	return r
}

// Parse extracts a feed from page. A page without any recognizable entry yields
// a feed with the whole body as its only entry; Parse fails only when the HTML cannot be read.
func (p *Parser) Parse(ctx context.Context, page string, base *url.URL) (*entity.Feed, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	host, baseStr := "", ""
	if base != nil {
		host, baseStr = base.Hostname(), base.String()
	}
	r := p.rulesFor(host)

	feed := &entity.Feed{
		Title:    text.CollapseWhitespace(doc.Find("title").First().Text()),
		Link:     baseStr,
		Language: strings.TrimSpace(doc.Find("html").First().AttrOr("lang", "")),
		Updated:  time.Now().UTC(),
		Version:  entity.VersionHTMLHeuristic,
	}
	if feed.Title == "" {
		feed.Title = entity.DefaultFeedTitle
	}

	candidates := collectCandidates(doc, r.candidates)
	if len(candidates) == 0 {
		if entry, ok := p.readabilityEntry(page, base, baseStr); ok {
			feed.Entries = []entity.Entry{entry}
			p.finish(ctx, feed, r.name, "readability")
			return feed, nil
		}
		candidates = []*goquery.Selection{doc.Find("body").First()}
	}

	for _, c := range candidates {
		if len(feed.Entries) >= p.maxEntries {
			break
		}
		feed.Entries = append(feed.Entries, p.entryFrom(c, r, base, baseStr))
	}

	p.finish(ctx, feed, r.name, "selectors")
	return feed, nil
}

func (p *Parser) finish(ctx context.Context, feed *entity.Feed, rule, strategy string) {
	metrics.RecordHeuristicEntries(len(feed.Entries))
	slog.DebugContext(ctx, "heuristic extraction completed",
		slog.String("url", feed.Link),
		slog.String("rules", rule),
		slog.String("strategy", strategy),
		slog.Int("entries", len(feed.Entries)))
}

// collectCandidates returns the union of all selector matches in selector order, without duplicates,
// keeping only containers with at least MinCandidateText runes of text.
func collectCandidates(doc *goquery.Document, selectors []string) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var out []*goquery.Selection
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			n := s.Get(0)
			if seen[n] {
				return
			}
			seen[n] = true
			if text.CountRunes(text.CollapseWhitespace(s.Text())) >= MinCandidateText {
				out = append(out, s)
			}
		})
	}
	return out
}

func (p *Parser) entryFrom(c *goquery.Selection, r rules, base *url.URL, baseStr string) entity.Entry {
	firstLink := c.Find("a[href]").First()

	title := text.CollapseWhitespace(c.Find(r.title).First().Text())
	if title == "" {
		title = strings.TrimSpace(c.AttrOr("aria-label", ""))
	}
	if title == "" {
		title = text.CollapseWhitespace(firstLink.Text())
	}
	if title == "" {
		title = entity.DefaultEntryTitle
	}

	link := baseStr
	if href := strings.TrimSpace(firstLink.AttrOr("href", "")); href != "" {
		link = resolve(base, href)
	}

	published := ""
	if d := c.Find(r.date).First(); d.Length() > 0 {
		published = strings.TrimSpace(d.AttrOr("datetime", ""))
		if published == "" {
			published = text.CollapseWhitespace(d.Text())
		}
	}

	var content string
	if ce := c.Find(r.content).First(); ce.Length() > 0 {
		content, _ = goquery.OuterHtml(ce)
	}
	if content == "" {
		content, _ = goquery.OuterHtml(c)
	}

	return entity.Entry{
		Title:       title,
		Link:        link,
		Published:   published,
		PublishedAt: datetime.Parse(published),
		Summary:     text.Summarize(content, p.summaryLength),
		Content:     content,
		Author:      text.CollapseWhitespace(c.Find(r.author).First().Text()),
		Tags:        tagTexts(c.Find(r.tags)),
	}
}

// readabilityEntry turns the page's main content into a single entry.
func (p *Parser) readabilityEntry(page string, base *url.URL, baseStr string) (entity.Entry, bool) {
	article, err := readability.FromReader(strings.NewReader(page), base)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		return entity.Entry{}, false
	}

	title := text.CollapseWhitespace(article.Title)
	if title == "" {
		title = entity.DefaultEntryTitle
	}
	summary := text.CollapseWhitespace(article.Excerpt)
	if summary == "" {
		summary = text.Summarize(article.Content, p.summaryLength)
	} else {
		summary = text.Truncate(summary, p.summaryLength)
	}

	return entity.Entry{
		Title:   title,
		Link:    baseStr,
		Summary: summary,
		Content: article.Content,
		Author:  text.CollapseWhitespace(article.Byline),
	}, true
}

func tagTexts(s *goquery.Selection) []string {
	var tags []string
	seen := make(map[string]bool)
	s.Each(func(_ int, t *goquery.Selection) {
		tag := text.CollapseWhitespace(t.Text())
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	})
	return tags
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
