package http

import (
	"context"
	"fmt"
	"time"

	"parserapi/internal/domain/entity"
	"parserapi/internal/usecase/parse"
)

type fakeCache struct {
	pingErr error
}

func (c *fakeCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (c *fakeCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (c *fakeCache) Ping(context.Context) error { return c.pingErr }
func (c *fakeCache) Name() string { return "fake" }

type fakeParser struct {
	res  *parse.Result
	err  error
	got  parse.Request
	wait bool // block until the request context is done
}

func (p *fakeParser) Parse(ctx context.Context, req parse.Request) (*parse.Result, error) {
	p.got = req
	if p.wait {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", parse.ErrFetchFailed, ctx.Err())
	}
	return p.res, p.err
}

type fakeHistory struct {
	logs  []*entity.ParseLog
	err   error
	limit int
}

func (h *fakeHistory) Create(context.Context, *entity.ParseLog) error { return nil }

func (h *fakeHistory) ListRecent(_ context.Context, limit int) ([]*entity.ParseLog, error) {
	h.limit = limit
	return h.logs, h.err
}

func (h *fakeHistory) Ping(context.Context) error { return nil }

func sampleResult() *parse.Result {
	return &parse.Result{
		Feed: entity.FeedMeta{
			Title:   "Example Blog",
			Link:    "https://example.com/",
			Updated: "2025-01-02T10:00:00Z",
			Version: "rss20",
		},
		Source: entity.SourceFeed,
		Items: []entity.Item{
			{
				Title:      "Second Post",
				Link:       "https://example.com/second",
				Published:  "Thu, 02 Jan 2025 10:00:00 GMT",
				Summary:    "The second post",
				Author:     "Jane",
				Categories: []string{"go"},
				Content:    "<p>The second post</p>",
			},
			{
				Title:      "First Post",
				Link:       "https://example.com/first",
				Summary:    "The first post",
				Author:     "Unknown",
				Categories: []string{},
			},
		},
	}
}
