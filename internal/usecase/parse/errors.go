// Package parse turns a URL into feed items.
// It fetches the page, decodes syndication feeds directly, and sends HTML pages through
// AI extraction with the selector heuristics as a fallback.
package parse

import "errors"

// Sentinel errors for parse operations.
var (
	// ErrFetchFailed indicates the page could not be downloaded.
	ErrFetchFailed = errors.New("URL fetch failed")

	// ErrParseFailed indicates no parser could read the downloaded document.
	ErrParseFailed = errors.New("page parse failed")
)
