package parse

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parserapi/internal/domain/entity"
)

func at(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildItems_SortsNewestFirst(t *testing.T) {
	feed := &entity.Feed{Entries: []entity.Entry{
		{Title: "Undated entry one", Link: "https://e.com/1"},
		{Title: "Oldest dated entry", Link: "https://e.com/2", PublishedAt: at(2020, 1, 1)},
		{Title: "Newest dated entry", Link: "https://e.com/3", PublishedAt: at(2024, 6, 1)},
		{Title: "Updated-only entry", Link: "https://e.com/4", UpdatedAt: at(2022, 1, 1)},
		{Title: "Year out of range", Link: "https://e.com/5", PublishedAt: at(2099, 1, 1)},
		{Title: "Undated entry two", Link: "https://e.com/6"},
	}}

	items := BuildItems(feed, 10)

	var links []string
	for _, it := range items {
		links = append(links, it.Link)
	}
	want := []string{"https://e.com/3", "https://e.com/4", "https://e.com/2", "https://e.com/1", "https://e.com/5", "https://e.com/6"}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildItems_Limit(t *testing.T) {
	feed := &entity.Feed{}
	for i := 0; i < 8; i++ {
		feed.Entries = append(feed.Entries, entity.Entry{Title: "Some entry title"})
	}

	assert.Len(t, BuildItems(feed, 5), 5)
	assert.Len(t, BuildItems(feed, 50), 8)
	assert.Empty(t, BuildItems(feed, 0))
	assert.NotNil(t, BuildItems(nil, 5))
}

func TestBuildItems_ItemFields(t *testing.T) {
	feed := &entity.Feed{Entries: []entity.Entry{{
		Title:     "Release notes",
		Link:      "https://e.com/release",
		Published: "Mon, 02 Jan 2006 15:04:05 GMT",
		Summary:   "<p>New <b>features</b> &amp; fixes</p>",
		Content:   "<div>\n   <p>Full   text</p>\n</div>",
		Tags:      []string{"go", " ", "release "},
	}}}

	items := BuildItems(feed, 5)
	require.Len(t, items, 1)

	want := entity.Item{
		Title:      "Release notes",
		Link:       "https://e.com/release",
		Published:  "Mon, 02 Jan 2006 15:04:05 GMT",
		Summary:    "New features & fixes",
		Author:     entity.DefaultAuthor,
		Categories: []string{"go", "release"},
		Content:    "<div><p>Full text</p></div>",
	}
	if diff := cmp.Diff(want, items[0]); diff != "" {
		t.Fatalf("item mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildItems_ContentFallsBackToSummary(t *testing.T) {
	feed := &entity.Feed{Entries: []entity.Entry{{
		Title:   "Only a summary",
		Summary: "<p>Short   summary</p>",
		Author:  "Jane Doe",
	}}}

	items := BuildItems(feed, 5)
	require.Len(t, items, 1)
	assert.Equal(t, "<p>Short summary</p>", items[0].Content)
	assert.Equal(t, "Jane Doe", items[0].Author)
	assert.NotNil(t, items[0].Categories)
}

func TestBuildItems_TitleFromContent(t *testing.T) {
	feed := &entity.Feed{Entries: []entity.Entry{{
		Content: "<article><h2>Heading from the body</h2><p>text</p></article>",
	}}}

	items := BuildItems(feed, 5)
	require.Len(t, items, 1)
	assert.Equal(t, "Heading from the body", items[0].Title)
}

func TestMinifyHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "", want: ""},
		{in: "  <p>a</p>  ", want: "<p>a</p>"},
		{in: "<ul>\n  <li>one</li>\n  <li>two   words</li>\n</ul>", want: "<ul><li>one</li><li>two words</li></ul>"},
		{in: "plain   text", want: "plain text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinifyHTML(tt.in), "input %q", tt.in)
	}
}
