// Package entity defines the feed shapes shared by the parsers and the HTTP layer.
package entity

import "time"

const (
	// DefaultFeedTitle is used when a page or feed carries no title.
	DefaultFeedTitle = "Untitled Feed"

	// DefaultEntryTitle is used when no title candidate survives extraction.
	DefaultEntryTitle = "Untitled Entry"

	// DefaultAuthor is reported for items without an author.
	DefaultAuthor = "Unknown"
)

// Version labels for feeds synthesized from HTML.
const (
	VersionHTMLAI        = "html-ai"
	VersionHTMLHeuristic = "html"
	VersionJSON          = "json"
)

// Source tells which pipeline produced a parse result.
type Source string

const (
	// SourceFeed is a document that parsed as RSS, Atom or JSON Feed.
	SourceFeed Source = "feed"
	// SourceAI is an HTML page reshaped from LLM output.
	SourceAI Source = "ai"
	// SourceHeuristic is an HTML page handled by the selector heuristics.
	SourceHeuristic Source = "heuristic"
	// SourceFeedFallback is a feed-typed body that failed to decode and went through the HTML pipeline.
	SourceFeedFallback Source = "feed_fallback"
)

// Feed is the intermediate structure every parser produces.
// Entries keep the order in which the parser found them.
type Feed struct {
	Title       string
	Link        string
	Description string
	Language    string
	Updated     time.Time
	Version     string
	Entries     []Entry
}

// Entry is a single article inside a Feed.
// Published holds the raw date text; PublishedAt is set only when it could be parsed.
type Entry struct {
	Title       string
	Link        string
	Published   string
	PublishedAt *time.Time
	UpdatedAt   *time.Time
	Summary     string
	Content     string
	Author      string
	Tags        []string
}

// Item is the fixed record returned to API clients.
type Item struct {
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	Published  string   `json:"published"`
	Summary    string   `json:"summary"`
	Author     string   `json:"author"`
	Categories []string `json:"categories"`
	Content    string   `json:"content"`
}

// FeedMeta is the feed-level metadata returned alongside items.
type FeedMeta struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Updated     string `json:"updated"`
	Version     string `json:"version"`
}

// SortTime returns the time used to order entries: published first, then updated.
// Times outside 1970..2038 are treated as missing and reported as the Unix epoch.
func (e Entry) SortTime() time.Time {
	for _, t := range []*time.Time{e.PublishedAt, e.UpdatedAt} {
		if t == nil {
			continue
		}
		if y := t.Year(); y >= 1970 && y <= 2038 {
			return *t
		}
	}
	return time.Unix(0, 0).UTC()
}

// Meta converts feed-level fields to the output shape, falling back to the request URL.
func (f *Feed) Meta(requestURL string) FeedMeta {
	title := f.Title
	if title == "" {
		title = DefaultFeedTitle
	}
	link := f.Link
	if link == "" {
		link = requestURL
	}
	updated := f.Updated
	if updated.IsZero() {
		updated = time.Now()
	}
	return FeedMeta{
		Title:       title,
		Link:        link,
		Description: f.Description,
		Language:    f.Language,
		Updated:     updated.Format(time.RFC3339),
		Version:     f.Version,
	}
}
