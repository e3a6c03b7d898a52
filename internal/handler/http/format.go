package http

import (
	"fmt"
	"net/http"
	"strings"

	"parserapi/internal/handler/http/respond"
	"parserapi/internal/usecase/parse"
	"parserapi/internal/utils/datetime"

	"github.com/gorilla/feeds"
)

// Format is an output encoding of /parse.
type Format string

const (
	FormatJSON     Format = "json"
	FormatRSS      Format = "rss"
	FormatAtom     Format = "atom"
	FormatJSONFeed Format = "jsonfeed"
)

// ParseFormat reads the format query parameter. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatRSS, FormatAtom, FormatJSONFeed:
		return f, nil
	default:
		return "", fmt.Errorf("format must be one of json, rss, atom, jsonfeed")
	}
}

var contentTypes = map[Format]string{
	FormatRSS:      "application/rss+xml; charset=utf-8",
	FormatAtom:     "application/atom+xml; charset=utf-8",
	FormatJSONFeed: "application/feed+json; charset=utf-8",
}

// Render encodes res in the requested format.
func Render(f Format, res *parse.Result) (body []byte, contentType string, err error) {
	feed := ToFeed(res)

	var out string
	switch f {
	case FormatRSS:
		out, err = feed.ToRss()
	case FormatAtom:
		out, err = feed.ToAtom()
	case FormatJSONFeed:
		out, err = feed.ToJSON()
	default:
		return nil, "", fmt.Errorf("render: unsupported format %q", f)
	}
	if err != nil {
		return nil, "", fmt.Errorf("render %s: %w", f, err)
	}
	return []byte(out), contentTypes[f], nil
}

// ToFeed converts a parse result into a gorilla/feeds document.
func ToFeed(res *parse.Result) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       res.Feed.Title,
		Link:        &feeds.Link{Href: res.Feed.Link},
		Description: res.Feed.Description,
		Id:          res.Feed.Link,
		Items:       make([]*feeds.Item, 0, len(res.Items)),
	}
	if t := datetime.Parse(res.Feed.Updated); t != nil {
		feed.Updated = *t
	}

	for _, it := range res.Items {
		item := &feeds.Item{
			Title:       it.Title,
			Link:        &feeds.Link{Href: it.Link},
			Id:          it.Link,
			Description: it.Summary,
			Content:     it.Content,
		}
		if it.Author != "" {
			item.Author = &feeds.Author{Name: it.Author}
		}
		if t := datetime.Parse(it.Published); t != nil {
			item.Created = *t
		}
		feed.Items = append(feed.Items, item)
	}
	return feed
}

// writeResult encodes res and returns the status code it wrote.
func writeResult(w http.ResponseWriter, f Format, res *parse.Result) int {
	if f == FormatJSON {
		respond.JSON(w, http.StatusOK, res)
		return http.StatusOK
	}

	body, contentType, err := Render(f, res)
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, err)
		return http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	return http.StatusOK
}
