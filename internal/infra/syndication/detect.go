// Package syndication inspects fetched documents and decodes RSS, Atom and JSON Feed bodies.
package syndication

import (
	"bytes"
	"mime"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Kind is the coarse document class that decides which pipeline handles a page.
type Kind string

const (
	KindHTML        Kind = "html"
	KindXML         Kind = "xml"
	KindJSON        Kind = "json"
	KindUnsupported Kind = "unsupported"
)

// sniffLimit bounds how much of the body is inspected when the header says nothing useful.
const sniffLimit = 4096

// DetectContentType returns the lowercased media type of a response.
//
// Parameters such as charset are dropped. When the header is empty the body is sniffed:
// a body starting with '{' is "json" and a body containing "<rss" is "xml".
// Generic types (text/plain, application/octet-stream) are refined with gofeed's type detection.
func DetectContentType(contentType string, body []byte) string {
	ctype := mediaType(contentType)

	switch ctype {
	case "":
		trimmed := bytes.TrimSpace(body)
		if bytes.HasPrefix(trimmed, []byte("{")) {
			return "json"
		}
		if bytes.Contains(bytes.ToLower(head(body)), []byte("<rss")) {
			return "xml"
		}
		return ""
	case "text/plain", "application/octet-stream", "binary/octet-stream":
		switch gofeed.DetectFeedType(bytes.NewReader(head(body))) {
		case gofeed.FeedTypeRSS, gofeed.FeedTypeAtom:
			return "xml"
		case gofeed.FeedTypeJSON:
			return "json"
		}
	}
	return ctype
}

// Classify maps a media type to a Kind.
func Classify(ctype string) Kind {
	ctype = strings.ToLower(ctype)
	switch {
	case strings.Contains(ctype, "html"):
		return KindHTML
	case strings.Contains(ctype, "xml"):
		return KindXML
	case strings.Contains(ctype, "json"):
		return KindJSON
	default:
		return KindUnsupported
	}
}

func mediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return strings.ToLower(mt)
	}
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func head(body []byte) []byte {
	if len(body) > sniffLimit {
		return body[:sniffLimit]
	}
	return body
}
