// Package fetcher downloads the pages handed to the parser.
// It rotates request header profiles when a site refuses a client, guards against
// requests to internal addresses, and wraps every request in a per-host circuit breaker.
package fetcher

import "errors"

// Sentinel errors for page fetching.
var (
	// ErrInvalidURL indicates the URL is malformed or uses a scheme other than http/https.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP indicates the URL resolves to a private, loopback or link-local address.
	ErrPrivateIP = errors.New("URL resolves to a private IP address")

	// ErrForbidden indicates every header profile was answered with HTTP 403.
	ErrForbidden = errors.New("access forbidden for all header profiles")

	// ErrBodyTooLarge indicates the response body exceeded the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTooManyRedirects indicates the redirect chain was longer than allowed.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrTimeout indicates a single request exceeded the configured timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrHostUnavailable indicates the host's circuit breaker is open.
	ErrHostUnavailable = errors.New("host temporarily unavailable")
)
