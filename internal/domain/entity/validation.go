package entity

import (
	"fmt"
	"net/url"
)

// MaxURLLength is the longest page URL accepted by the parser.
const MaxURLLength = 2048

// ValidateURL checks that rawURL is an absolute http(s) URL with a host.
// Network-level checks (private addresses, DNS) belong to the fetcher, which can be configured per deployment.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}

	if len(rawURL) > MaxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", MaxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: "url is invalid: " + err.Error()}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "url must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "url must have a valid host"}
	}

	return nil
}
