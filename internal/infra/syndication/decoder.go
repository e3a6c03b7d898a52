package syndication

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"parserapi/internal/domain/entity"
)

// ErrDecode is returned when a body cannot be read as RSS, Atom or JSON Feed.
var ErrDecode = errors.New("feed decode failed")

// Decoder converts RSS, Atom and JSON Feed documents into entity.Feed values.
//
// Thread safety: Decoder is safe for concurrent use. A gofeed parser keeps state
// while parsing, so a new one is created per call.
type Decoder struct{}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses body. Relative item links are resolved against the feed link, then baseURL.
func (d *Decoder) Decode(body []byte, baseURL *url.URL) (*entity.Feed, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrDecode)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	base := baseURL
	if parsed.Link != "" {
		if u, err := resolve(baseURL, parsed.Link); err == nil {
			base = u
		}
	}

	feed := &entity.Feed{
		Title:       strings.TrimSpace(parsed.Title),
		Link:        parsed.Link,
		Description: strings.TrimSpace(parsed.Description),
		Language:    parsed.Language,
		Version:     Version(parsed),
		Entries:     make([]entity.Entry, 0, len(parsed.Items)),
	}
	if parsed.UpdatedParsed != nil {
		feed.Updated = parsed.UpdatedParsed.UTC()
	} else if parsed.PublishedParsed != nil {
		feed.Updated = parsed.PublishedParsed.UTC()
	}

	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		feed.Entries = append(feed.Entries, toEntry(it, base))
	}
	return feed, nil
}

func toEntry(it *gofeed.Item, base *url.URL) entity.Entry {
	// Content preferred, Description as fallback
	content := it.Content
	if content == "" {
		content = it.Description
	}

	link := it.Link
	if link == "" && it.GUID != "" && strings.HasPrefix(it.GUID, "http") {
		link = it.GUID
	}
	if u, err := resolve(base, link); err == nil && link != "" {
		link = u.String()
	}

	published := it.Published
	if published == "" {
		published = it.Updated
	}

	return entity.Entry{
		Title:       strings.TrimSpace(it.Title),
		Link:        link,
		Published:   published,
		PublishedAt: utc(it.PublishedParsed),
		UpdatedAt:   utc(it.UpdatedParsed),
		Summary:     it.Description,
		Content:     content,
		Author:      authorNames(it),
		Tags:        append([]string(nil), it.Categories...),
	}
}

// Version returns the gofeed type and version as one label, for example "rss2.0" or "json1.1".
func Version(f *gofeed.Feed) string {
	v := f.FeedVersion
	if strings.Contains(v, "jsonfeed.org/version/") {
		v = path.Base(strings.TrimSuffix(v, "/"))
	}
	if f.FeedType == "" {
		return v
	}
	return f.FeedType + v
}

func authorNames(it *gofeed.Item) string {
	var names []string
	seen := make(map[string]struct{})
	add := func(p *gofeed.Person) {
		if p == nil {
			return
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = strings.TrimSpace(p.Email)
		}
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	add(it.Author)
	for _, p := range it.Authors {
		add(p)
	}
	return strings.Join(names, ", ")
}

func resolve(base *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	if base == nil {
		return u, nil
	}
	return base.ResolveReference(u), nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
