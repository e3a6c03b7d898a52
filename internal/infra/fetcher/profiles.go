package fetcher

// HeaderProfile is a named set of request headers.
// Some sites refuse browser-like clients and accept plain tools, others the reverse,
// so the fetcher tries profiles in order until one is not answered with 403.
type HeaderProfile struct {
	Name    string
	Headers map[string]string
}

// DefaultProfiles returns the profiles tried by a PageFetcher, in order.
func DefaultProfiles() []HeaderProfile {
	return []HeaderProfile{
		{
			Name: "browser",
			Headers: map[string]string{
				"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Accept":          "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, text/html;q=0.8, */*;q=0.7",
				"Accept-Language": "en-US,en;q=0.9",
				"Cache-Control":   "no-cache",
				"Pragma":          "no-cache",
			},
		},
		{
			Name: "mozilla",
			Headers: map[string]string{
				"User-Agent": "Mozilla/5.0",
				"Accept":     "*/*",
			},
		},
		{
			Name: "curl",
			Headers: map[string]string{
				"User-Agent": "curl/7.68.0",
				"Accept":     "*/*",
			},
		},
	}
}
