package syndication_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parserapi/internal/infra/syndication"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Example News</title>
  <link>https://example.com/</link>
  <description>Latest stories</description>
  <language>en-us</language>
  <item>
    <title>First story</title>
    <link>/stories/first</link>
    <description>Short text</description>
    <content:encoded><![CDATA[<p>Full text</p>]]></content:encoded>
    <pubDate>Tue, 02 Jan 2024 15:04:05 GMT</pubDate>
    <category>world</category>
    <category>politics</category>
  </item>
  <item>
    <title>Second story</title>
    <link>https://example.com/stories/second</link>
    <description>Only a description</description>
  </item>
</channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Blog</title>
  <link href="https://blog.example.org/"/>
  <updated>2024-03-01T10:00:00Z</updated>
  <entry>
    <title>Entry one</title>
    <link href="https://blog.example.org/one"/>
    <id>urn:uuid:1</id>
    <updated>2024-03-01T10:00:00Z</updated>
    <summary>Summary one</summary>
    <author><name>Jane Doe</name></author>
    <author><name>John Roe</name></author>
  </entry>
</feed>`

const jsonFixture = `{
  "version": "https://jsonfeed.org/version/1.1",
  "title": "JSON Blog",
  "home_page_url": "https://json.example.net/",
  "items": [
    {
      "id": "1",
      "url": "https://json.example.net/a",
      "title": "A post",
      "content_html": "<p>Hello</p>",
      "summary": "Hello summary",
      "date_published": "2024-05-06T07:08:09Z",
      "tags": ["go", "feeds"]
    }
  ]
}`

func TestDecoder_DecodeRSS(t *testing.T) {
	base, _ := url.Parse("https://example.com/rss.xml")

	feed, err := syndication.NewDecoder().Decode([]byte(rssFixture), base)
	require.NoError(t, err)

	assert.Equal(t, "Example News", feed.Title)
	assert.Equal(t, "https://example.com/", feed.Link)
	assert.Equal(t, "Latest stories", feed.Description)
	assert.Equal(t, "en-us", feed.Language)
	assert.Equal(t, "rss2.0", feed.Version)
	require.Len(t, feed.Entries, 2)

	first := feed.Entries[0]
	assert.Equal(t, "First story", first.Title)
	assert.Equal(t, "https://example.com/stories/first", first.Link)
	assert.Equal(t, "<p>Full text</p>", first.Content)
	assert.Equal(t, "Short text", first.Summary)
	assert.Equal(t, []string{"world", "politics"}, first.Tags)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC).Equal(*first.PublishedAt))

	second := feed.Entries[1]
	assert.Equal(t, "Only a description", second.Content, "description is used when content is missing")
	assert.Nil(t, second.PublishedAt)
}

func TestDecoder_DecodeAtom(t *testing.T) {
	feed, err := syndication.NewDecoder().Decode([]byte(atomFixture), nil)
	require.NoError(t, err)

	assert.Equal(t, "atom1.0", feed.Version)
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(feed.Updated))
	require.Len(t, feed.Entries, 1)
	assert.Equal(t, "Jane Doe, John Roe", feed.Entries[0].Author)
	assert.Equal(t, "https://blog.example.org/one", feed.Entries[0].Link)
	require.NotNil(t, feed.Entries[0].UpdatedAt)
}

func TestDecoder_DecodeJSONFeed(t *testing.T) {
	feed, err := syndication.NewDecoder().Decode([]byte(jsonFixture), nil)
	require.NoError(t, err)

	assert.Equal(t, "JSON Blog", feed.Title)
	assert.Equal(t, "https://json.example.net/", feed.Link)
	assert.Equal(t, "json1.1", feed.Version)
	require.Len(t, feed.Entries, 1)
	entry := feed.Entries[0]
	assert.Equal(t, "<p>Hello</p>", entry.Content)
	assert.Equal(t, "Hello summary", entry.Summary)
	assert.Equal(t, []string{"go", "feeds"}, entry.Tags)
}

func TestDecoder_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", "   "},
		{"garbage", "this is not a feed"},
		{"html", "<html><body><p>hi</p></body></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := syndication.NewDecoder().Decode([]byte(tt.body), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, syndication.ErrDecode))
		})
	}
}
