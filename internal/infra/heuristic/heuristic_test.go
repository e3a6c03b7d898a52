package heuristic_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parserapi/internal/config"
	"parserapi/internal/domain/entity"
	"parserapi/internal/infra/heuristic"
)

const blogPage = `<html lang="en"><head><title> Example Blog </title></head><body>
<article>
  <h1><a href="/posts/one">Post number one</a></h1>
  <time datetime="2024-03-04T05:06:07Z">March 4</time>
  <span class="author">Ann Author</span>
  <div class="entry-content"><p>This is the body of the first post, long enough to pass the filter.</p></div>
  <a rel="tag" href="/t/go">go</a> <a rel="tag" href="/t/web">web</a> <a rel="tag" href="/t/go2">go</a>
</article>
<article aria-label="Second post label">
  <p>Second article text that is definitely longer than fifty characters total.</p>
</article>
<article><p>short</p></article>
</body></html>`

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func TestParser_GenericRules(t *testing.T) {
	p := heuristic.New(nil, heuristic.Options{})

	feed, err := p.Parse(context.Background(), blogPage, mustURL(t, "https://example.com/blog/"))
	require.NoError(t, err)

	assert.Equal(t, "Example Blog", feed.Title)
	assert.Equal(t, "en", feed.Language)
	assert.Equal(t, "https://example.com/blog/", feed.Link)
	assert.Equal(t, entity.VersionHTMLHeuristic, feed.Version)

	// Both articles plus the nested entry-content container; the short article is dropped.
	require.Len(t, feed.Entries, 3)

	first := feed.Entries[0]
	assert.Equal(t, "Post number one", first.Title)
	assert.Equal(t, "https://example.com/posts/one", first.Link)
	assert.Equal(t, "2024-03-04T05:06:07Z", first.Published)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC).Equal(*first.PublishedAt))
	assert.Equal(t, "Ann Author", first.Author)
	assert.Equal(t, []string{"go", "web"}, first.Tags)
	assert.True(t, strings.HasPrefix(first.Content, `<div class="entry-content">`), first.Content)
	assert.Equal(t, "This is the body of the first post, long enough to pass the filter.", first.Summary)

	second := feed.Entries[1]
	assert.Equal(t, "Second post label", second.Title)
	assert.Equal(t, "https://example.com/blog/", second.Link, "entries without links point at the page")
	assert.True(t, strings.HasPrefix(second.Content, "<article"), second.Content)
	assert.Nil(t, second.PublishedAt)

	third := feed.Entries[2]
	assert.Equal(t, entity.DefaultEntryTitle, third.Title)
}

func TestParser_SiteRules(t *testing.T) {
	sites, err := config.LoadSiteConfigs("")
	require.NoError(t, err)
	p := heuristic.New(sites, heuristic.Options{})

	page := `<html><head><title>BBC</title></head><body>
<div data-testid="dundee-card"><a href="/news/1"><h2 data-testid="card-headline">BBC headline one</h2>
<p data-testid="card-description">Description of the first BBC story goes here.</p></a></div>
<article><h1>Generic article that the site rules should not pick up at all</h1></article>
</body></html>`

	feed, err := p.Parse(context.Background(), page, mustURL(t, "https://www.bbc.com/news"))
	require.NoError(t, err)

	require.Len(t, feed.Entries, 1)
	entry := feed.Entries[0]
	assert.Equal(t, "BBC headline one", entry.Title)
	assert.Equal(t, "https://www.bbc.com/news/1", entry.Link)
	assert.Equal(t, "Description of the first BBC story goes here.", entry.Summary)
	assert.Contains(t, entry.Content, `data-testid="card-description"`)
}

func TestParser_MaxEntries(t *testing.T) {
	p := heuristic.New(nil, heuristic.Options{MaxEntries: 1})

	feed, err := p.Parse(context.Background(), blogPage, mustURL(t, "https://example.com/"))
	require.NoError(t, err)
	assert.Len(t, feed.Entries, 1)
}

func TestParser_SummaryLength(t *testing.T) {
	p := heuristic.New(nil, heuristic.Options{SummaryLength: 10})

	feed, err := p.Parse(context.Background(), blogPage, mustURL(t, "https://example.com/"))
	require.NoError(t, err)
	assert.Equal(t, "This is th...", feed.Entries[0].Summary)
}

func TestParser_NoCandidates(t *testing.T) {
	p := heuristic.New(nil, heuristic.Options{})

	feed, err := p.Parse(context.Background(), `<html><body><p>hi</p></body></html>`, mustURL(t, "https://example.com/page"))
	require.NoError(t, err)

	assert.Equal(t, entity.DefaultFeedTitle, feed.Title)
	require.Len(t, feed.Entries, 1)
	entry := feed.Entries[0]
	assert.Equal(t, entity.DefaultEntryTitle, entry.Title)
	assert.Equal(t, "https://example.com/page", entry.Link)
	assert.Equal(t, "hi", entry.Summary)
	assert.NotEmpty(t, entry.Content)
}
