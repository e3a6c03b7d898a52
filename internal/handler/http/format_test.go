package http

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "json", want: FormatJSON},
		{in: "RSS", want: FormatRSS},
		{in: " atom ", want: FormatAtom},
		{in: "jsonfeed", want: FormatJSONFeed},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFeed(t *testing.T) {
	feed := ToFeed(sampleResult())

	assert.Equal(t, "Example Blog", feed.Title)
	assert.Equal(t, "https://example.com/", feed.Link.Href)
	assert.True(t, feed.Updated.Equal(time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)), feed.Updated)
	require.Len(t, feed.Items, 2)

	first := feed.Items[0]
	assert.Equal(t, "Second Post", first.Title)
	assert.Equal(t, "https://example.com/second", first.Link.Href)
	assert.Equal(t, "Jane", first.Author.Name)
	assert.True(t, first.Created.Equal(time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)), first.Created)
	assert.Equal(t, "<p>The second post</p>", first.Content)

	assert.True(t, feed.Items[1].Created.IsZero(), "items without a date keep a zero time")
}

func TestRender_RSSIsWellFormed(t *testing.T) {
	body, contentType, err := Render(FormatRSS, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "application/rss+xml; charset=utf-8", contentType)

	var doc struct {
		Channel struct {
			Title string `xml:"title"`
			Items []struct {
				Title string `xml:"title"`
				Link  string `xml:"link"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	require.NoError(t, xml.Unmarshal(body, &doc))
	assert.Equal(t, "Example Blog", doc.Channel.Title)
	require.Len(t, doc.Channel.Items, 2)
	assert.Equal(t, "https://example.com/first", doc.Channel.Items[1].Link)
}

func TestRender_UnsupportedFormat(t *testing.T) {
	_, _, err := Render(FormatJSON, sampleResult())
	assert.Error(t, err)
}

func TestWriteResult_ReturnsWrittenStatus(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   int
	}{
		{name: "json", format: FormatJSON, want: http.StatusOK},
		{name: "rss", format: FormatRSS, want: http.StatusOK},
		{name: "render failure", format: Format("bogus"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			got := writeResult(rec, tt.format, sampleResult())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
