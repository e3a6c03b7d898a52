package main

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parserapi/internal/usecase/parse"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Blog</title>
  <link>https://example.com/</link>
  <description>Posts</description>
  <item><title>First post</title><link>https://example.com/1</link><description>One</description></item>
  <item><title>Second post</title><link>https://example.com/2</link><description>Two</description></item>
  <item><title>Third post</title><link>https://example.com/3</link><description>Three</description></item>
</channel>
</rss>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("FETCH_DENY_PRIVATE_IPS", "false")
	t.Setenv("FETCH_RETRY", "false")

	var stdout, stderr bytes.Buffer
	if args == nil {
		args = []string{}
	}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestParse_JSON(t *testing.T) {
	srv := feedServer(t)

	out, err := execute(t, srv.URL, "--limit", "2")
	require.NoError(t, err)

	var res parse.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Example Blog", res.Feed.Title)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "First post", res.Items[0].Title)
	assert.Equal(t, "https://example.com/2", res.Items[1].Link)
}

func TestParse_RSSOutput(t *testing.T) {
	srv := feedServer(t)

	out, err := execute(t, srv.URL, "--format", "rss")
	require.NoError(t, err)

	var doc struct {
		Channel struct {
			Title string `xml:"title"`
			Items []struct {
				Title string `xml:"title"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Example Blog", doc.Channel.Title)
	assert.Len(t, doc.Channel.Items, 3)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing url", args: nil},
		{name: "extra args", args: []string{"https://a.example", "https://b.example"}},
		{name: "bad format", args: []string{"https://example.com", "--format", "yaml"}},
		{name: "negative limit", args: []string{"https://example.com", "--limit", "-1"}},
		{name: "bad scheme", args: []string{"ftp://example.com/feed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
