package parse

import (
	"regexp"
	"sort"
	"strings"

	"parserapi/internal/domain/entity"
	"parserapi/internal/utils/text"
)

var (
	interTagSpaceRe = regexp.MustCompile(`>\s+<`)
	spaceRunRe      = regexp.MustCompile(`\s{2,}`)
)

// BuildItems orders the feed's entries newest first and converts the first limit of them to items.
// Entries without a usable date sort last; ties keep feed order.
func BuildItems(feed *entity.Feed, limit int) []entity.Item {
	if feed == nil || limit <= 0 {
		return []entity.Item{}
	}

	entries := make([]entity.Entry, len(feed.Entries))
	copy(entries, feed.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SortTime().After(entries[j].SortTime())
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]entity.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, toItem(e))
	}
	return items
}

func toItem(e entity.Entry) entity.Item {
	content := e.Content
	if content == "" {
		content = e.Summary
	}
	content = MinifyHTML(content)

	title := ExtractTitle(e)
	if title == entity.DefaultEntryTitle && content != "" {
		title = ExtractTitle(entity.Entry{Summary: content, Content: content})
	}

	author := strings.TrimSpace(e.Author)
	if author == "" {
		author = entity.DefaultAuthor
	}

	categories := make([]string, 0, len(e.Tags))
	for _, tag := range e.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			categories = append(categories, tag)
		}
	}

	return entity.Item{
		Title:      title,
		Link:       e.Link,
		Published:  e.Published,
		Summary:    text.StripTags(e.Summary),
		Author:     author,
		Categories: categories,
		Content:    content,
	}
}

// MinifyHTML drops whitespace between tags and squeezes the remaining runs to one space.
func MinifyHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	out := interTagSpaceRe.ReplaceAllString(fragment, "><")
	out = spaceRunRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
