package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/net/html/charset"

	"parserapi/internal/observability/metrics"
	"parserapi/internal/resilience/circuitbreaker"
	"parserapi/internal/resilience/retry"
)

// Page is a fetched document.
type Page struct {
	// URL is the requested URL.
	URL string
	// FinalURL is the URL after redirects; relative links resolve against it.
	FinalURL string
	// StatusCode is the HTTP status of the final response.
	StatusCode int
	// ContentType is the raw Content-Type header.
	ContentType string
	// Body is the response body. HTML bodies are converted to UTF-8; feed bodies are left as sent,
	// because XML decoders honour the encoding declared in the document itself.
	Body []byte
	// Profile is the name of the header profile that succeeded.
	Profile string
}

// BaseURL returns FinalURL parsed, falling back to URL.
func (p *Page) BaseURL() *url.URL {
	if u, err := url.Parse(p.FinalURL); err == nil && u.Host != "" {
		return u
	}
	u, _ := url.Parse(p.URL)
	return u
}

// PageFetcher fetches pages with header profile rotation.
//
// Thread safety: PageFetcher is safe for concurrent use.
type PageFetcher struct {
	client   *http.Client
	breakers *circuitbreaker.Group
	retryCfg retry.Config
	config   Config
	profiles []HeaderProfile
	resolver *net.Resolver
}

// Option customizes a PageFetcher.
type Option func(*PageFetcher)

// WithProfiles replaces the header profiles.
func WithProfiles(profiles []HeaderProfile) Option {
	return func(f *PageFetcher) { f.profiles = profiles }
}

// WithRetryConfig replaces the retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(f *PageFetcher) { f.retryCfg = cfg }
}

// WithBreakerConfig replaces the per-host circuit breaker configuration.
func WithBreakerConfig(cfg circuitbreaker.Config) Option {
	return func(f *PageFetcher) { f.breakers = circuitbreaker.NewGroup(withFetchSuccess(cfg)) }
}

// NewPageFetcher creates a PageFetcher.
//
// The HTTP client enforces TLS 1.2+, validates every redirect hop and, when DenyPrivateIPs is set,
// refuses to dial private addresses even if DNS changes between validation and connect.
func NewPageFetcher(config Config, opts ...Option) *PageFetcher {
	f := &PageFetcher{
		breakers: circuitbreaker.NewGroup(withFetchSuccess(circuitbreaker.PageFetchConfig())),
		retryCfg: retry.PageFetchConfig(),
		config:   config,
		profiles: DefaultProfiles(),
		resolver: net.DefaultResolver,
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if config.DenyPrivateIPs {
		dialer.Control = func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
				return fmt.Errorf("%w: %s", ErrPrivateIP, ip)
			}
			return nil
		}
	}

	f.client = &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > f.config.MaxRedirects {
				return fmt.Errorf("%w: stopped after %d requests", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.Context(), f.resolver, req.URL, f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// withFetchSuccess makes client errors (4xx other than 408/429) count as breaker successes:
// a missing page says nothing about the health of its host.
func withFetchSuccess(cfg circuitbreaker.Config) circuitbreaker.Config {
	cfg.IsSuccessful = func(err error) bool {
		var httpErr *retry.HTTPError
		return errors.As(err, &httpErr) && !retry.IsRetryable(err)
	}
	return cfg
}

// Fetch downloads rawURL.
//
// Header profiles are tried in order. Only an HTTP 403 moves on to the next profile;
// any other error is returned immediately. When every profile is refused, the error wraps ErrForbidden.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if err := validateURL(ctx, f.resolver, u, f.config.DenyPrivateIPs); err != nil {
		return nil, err
	}

	start := time.Now()
	profile := ""
	for _, p := range f.profiles {
		profile = p.Name
		page, err := f.fetchWithProfile(ctx, u, p)
		if err == nil {
			metrics.RecordPageFetch("success", profile, time.Since(start), len(page.Body))
			return page, nil
		}

		var httpErr *retry.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusForbidden {
			slog.DebugContext(ctx, "header profile refused, trying next",
				slog.String("url", rawURL),
				slog.String("profile", p.Name))
			continue
		}

		metrics.RecordPageFetch("failure", profile, time.Since(start), 0)
		return nil, err
	}

	metrics.RecordPageFetch("forbidden", profile, time.Since(start), 0)
	return nil, fmt.Errorf("%w: %s", ErrForbidden, u.Host)
}

func (f *PageFetcher) fetchWithProfile(ctx context.Context, u *url.URL, p HeaderProfile) (*Page, error) {
	cb := f.breakers.Get(u.Hostname())
	attempt := func() (*Page, error) {
		page, err := circuitbreaker.Run(cb, func() (*Page, error) {
			return f.doFetch(ctx, u, p)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrHostUnavailable, u.Host)
		}
		return page, err
	}

	if !f.config.Retry {
		return attempt()
	}
	return retry.Do(ctx, f.retryCfg, attempt)
}

// doFetch performs one HTTP request without retry or circuit breaker.
func (f *PageFetcher) doFetch(ctx context.Context, u *url.URL, p HeaderProfile) (*Page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: request exceeded %v", ErrTimeout, f.config.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil &&
			(errors.Is(urlErr.Err, ErrTooManyRedirects) || errors.Is(urlErr.Err, ErrPrivateIP) || errors.Is(urlErr.Err, ErrInvalidURL)) {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	contentType := resp.Header.Get("Content-Type")
	finalURL := u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{
		URL:         u.String(),
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        decodeHTML(body, contentType),
		Profile:     p.Name,
	}, nil
}

// decodeHTML converts HTML bodies to UTF-8 using the Content-Type charset or the document's meta charset.
// Other bodies, and bodies that fail to decode, are returned unchanged.
func decodeHTML(body []byte, contentType string) []byte {
	ct := strings.ToLower(contentType)
	if !strings.Contains(ct, "html") && (ct != "" || !looksLikeHTML(body)) {
		return body
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}

func looksLikeHTML(body []byte) bool {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("<html")) || bytes.Contains(lower, []byte("<!doctype html"))
}
