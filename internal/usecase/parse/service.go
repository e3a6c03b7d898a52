package parse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"parserapi/internal/domain/entity"
	"parserapi/internal/infra/cache"
	"parserapi/internal/infra/fetcher"
	"parserapi/internal/infra/syndication"
	"parserapi/internal/observability/logging"
	"parserapi/internal/observability/metrics"
	"parserapi/internal/observability/tracing"
)

const historyWriteTimeout = 3 * time.Second

// PageFetcher downloads a page.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error)
}

// FeedDecoder reads RSS, Atom and JSON Feed documents.
type FeedDecoder interface {
	Decode(body []byte, baseURL *url.URL) (*entity.Feed, error)
}

// HTMLParser builds a feed from an HTML page. Both the AI extractor and the selector heuristics implement it.
type HTMLParser interface {
	Parse(ctx context.Context, page string, base *url.URL) (*entity.Feed, error)
}

// HTMLParserFunc adapts a function to HTMLParser.
type HTMLParserFunc func(ctx context.Context, page string, base *url.URL) (*entity.Feed, error)

// Parse calls f.
func (f HTMLParserFunc) Parse(ctx context.Context, page string, base *url.URL) (*entity.Feed, error) {
	return f(ctx, page, base)
}

// HistoryRecorder stores one row per finished parse.
type HistoryRecorder interface {
	Create(ctx context.Context, log *entity.ParseLog) error
}

// Config holds the item limits of a Service.
type Config struct {
	// DefaultItems is used when a request has no limit.
	DefaultItems int
	// MaxItems caps the limit a request may ask for.
	MaxItems int
}

// Request is one parse request.
type Request struct {
	URL string
	// Limit is the number of items to return. Non-positive means Config.DefaultItems.
	Limit int
	// Discover follows feed links advertised by HTML pages.
	Discover bool
	// NoAI skips the AI extractor for this request.
	NoAI bool
}

// Result is the outcome of a parse.
type Result struct {
	Feed   entity.FeedMeta `json:"feed"`
	Source entity.Source   `json:"source"`
	Items  []entity.Item   `json:"items"`
}

// Service parses pages into items.
//
// Thread safety: Service is safe for concurrent use. Identical concurrent requests share one parse.
type Service struct {
	fetcher   PageFetcher
	decoder   FeedDecoder
	extractor HTMLParser
	heuristic HTMLParser
	config    Config

	cache    cache.Cache
	cacheTTL time.Duration
	history  HistoryRecorder

	group singleflight.Group
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithCache caches results in c for ttl. A nil cache or non-positive ttl disables caching.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithHistory records every parse with h.
func WithHistory(h HistoryRecorder) Option {
	return func(s *Service) {
		s.history = h
	}
}

// NewService creates a Service. extractor may be nil when AI extraction is disabled;
// heuristic is required.
func NewService(pf PageFetcher, decoder FeedDecoder, extractor, heuristic HTMLParser, cfg Config, opts ...Option) *Service {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 50
	}
	if cfg.DefaultItems <= 0 || cfg.DefaultItems > cfg.MaxItems {
		cfg.DefaultItems = min(5, cfg.MaxItems)
	}
	s := &Service{
		fetcher:   pf,
		decoder:   decoder,
		extractor: extractor,
		heuristic: heuristic,
		config:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheTTL <= 0 {
		s.cache = nil
	}
	return s
}

// Limit turns a requested item count into the effective one.
func (s *Service) Limit(requested int) int {
	switch {
	case requested <= 0:
		return s.config.DefaultItems
	case requested > s.config.MaxItems:
		return s.config.MaxItems
	default:
		return requested
	}
}

// AIEnabled reports whether HTML pages go through the AI extractor.
func (s *Service) AIEnabled() bool {
	return s.extractor != nil
}

// Parse fetches req.URL and converts it to a Result.
//
// Validation failures are *entity.ValidationError. Download failures wrap ErrFetchFailed.
// A page from which nothing could be extracted is not an error; its Result has no items.
func (s *Service) Parse(ctx context.Context, req Request) (*Result, error) {
	req.URL = strings.TrimSpace(req.URL)
	if err := entity.ValidateURL(req.URL); err != nil {
		return nil, err
	}
	limit := s.Limit(req.Limit)
	key := cacheKey(req, limit)

	if res, ok := s.lookup(ctx, key); ok {
		return res, nil
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.parse(ctx, req, limit, key)
	})
	if shared {
		logging.FromContext(ctx).Debug("parse shared with concurrent request", slog.String("url", req.URL))
	}
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (s *Service) parse(ctx context.Context, req Request, limit int, key string) (*Result, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	feed, source, err := s.run(ctx, req)
	duration := time.Since(start)

	var res *Result
	if err == nil {
		res = &Result{
			Feed:   feed.Meta(req.URL),
			Source: source,
			Items:  BuildItems(feed, limit),
		}
	}
	s.record(ctx, req.URL, feed, source, res, duration, err)

	if err != nil {
		logger.Warn("parse failed",
			slog.String("url", req.URL),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return nil, err
	}

	logger.Info("parse completed",
		slog.String("url", req.URL),
		slog.String("source", string(source)),
		slog.String("version", feed.Version),
		slog.Int("entries", len(feed.Entries)),
		slog.Int("items", len(res.Items)),
		slog.Duration("duration", duration))

	s.store(ctx, key, res)
	return res, nil
}

// run fetches the page and picks the pipeline by content type.
func (s *Service) run(ctx context.Context, req Request) (*entity.Feed, entity.Source, error) {
	page, err := s.fetch(ctx, req.URL)
	if err != nil {
		return nil, "", err
	}
	base := page.BaseURL()
	ctype := syndication.DetectContentType(page.ContentType, page.Body)

	switch syndication.Classify(ctype) {
	case syndication.KindHTML:
		return s.parseHTML(ctx, req, page, base, false)
	case syndication.KindXML, syndication.KindJSON:
		feed, err := s.decode(ctx, page.Body, base)
		if err == nil {
			return feed, entity.SourceFeed, nil
		}
		logging.FromContext(ctx).Info("feed decode failed, falling back to HTML parsing",
			slog.String("url", req.URL),
			slog.String("content_type", ctype),
			slog.Any("error", err))
		return s.parseHTML(ctx, req, page, base, true)
	default:
		logging.FromContext(ctx).Info("unsupported content type, trying HTML parsing",
			slog.String("url", req.URL),
			slog.String("content_type", ctype))
		return s.parseHTML(ctx, req, page, base, true)
	}
}

func (s *Service) fetch(ctx context.Context, rawURL string) (*fetcher.Page, error) {
	ctx, span := tracing.StartSpan(ctx, "parse.fetch", attribute.String("url", rawURL))
	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
	} else {
		span.SetAttributes(
			attribute.Int("http.status_code", page.StatusCode),
			attribute.String("content_type", page.ContentType),
			attribute.Int("body_size", len(page.Body)))
	}
	tracing.EndSpan(span, err)
	return page, err
}

func (s *Service) decode(ctx context.Context, body []byte, base *url.URL) (*entity.Feed, error) {
	_, span := tracing.StartSpan(ctx, "parse.decode")
	feed, err := s.decoder.Decode(body, base)
	if err == nil {
		span.SetAttributes(attribute.String("feed.version", feed.Version), attribute.Int("feed.entries", len(feed.Entries)))
	}
	tracing.EndSpan(span, err)
	return feed, err
}

// parseHTML runs discovery, then the AI extractor, then the heuristics.
// fallback marks a feed-typed body that failed to decode; its source is then always SourceFeedFallback.
func (s *Service) parseHTML(ctx context.Context, req Request, page *fetcher.Page, base *url.URL, fallback bool) (*entity.Feed, entity.Source, error) {
	logger := logging.FromContext(ctx)
	body := string(page.Body)
	label := func(src entity.Source) entity.Source {
		if fallback {
			return entity.SourceFeedFallback
		}
		return src
	}

	if req.Discover && !fallback {
		if feed, ok := s.discover(ctx, body, base); ok {
			return feed, entity.SourceFeed, nil
		}
	}

	if s.extractor != nil && !req.NoAI {
		ctx, span := tracing.StartSpan(ctx, "parse.extract")
		feed, err := s.extractor.Parse(ctx, body, base)
		tracing.EndSpan(span, err)
		if err == nil {
			return feed, label(entity.SourceAI), nil
		}
		logger.Info("AI extraction failed, using heuristics",
			slog.String("url", req.URL),
			slog.Any("error", err))
	}

	ctx, span := tracing.StartSpan(ctx, "parse.heuristic")
	feed, err := s.heuristic.Parse(ctx, body, base)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return feed, label(entity.SourceHeuristic), nil
}

// discover fetches the feeds an HTML page links to and returns the first one, in page order, that decodes with entries.
func (s *Service) discover(ctx context.Context, page string, base *url.URL) (*entity.Feed, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, false
	}
	links := syndication.Discover(doc, base)
	if len(links) == 0 {
		return nil, false
	}

	ctx, span := tracing.StartSpan(ctx, "parse.discover", attribute.Int("candidates", len(links)))
	defer span.End()

	feeds := make([]*entity.Feed, len(links))
	g, gctx := errgroup.WithContext(ctx)
	for i, link := range links {
		g.Go(func() error {
			p, err := s.fetcher.Fetch(gctx, link)
			if err != nil {
				logging.FromContext(ctx).Debug("discovered feed fetch failed",
					slog.String("feed_url", link), slog.Any("error", err))
				return nil
			}
			switch syndication.Classify(syndication.DetectContentType(p.ContentType, p.Body)) {
			case syndication.KindXML, syndication.KindJSON:
			default:
				return nil
			}
			if f, err := s.decoder.Decode(p.Body, p.BaseURL()); err == nil && len(f.Entries) > 0 {
				feeds[i] = f
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, f := range feeds {
		if f != nil {
			span.SetAttributes(attribute.String("feed_url", links[i]))
			logging.FromContext(ctx).Info("using discovered feed", slog.String("feed_url", links[i]))
			return f, true
		}
	}
	return nil, false
}

func (s *Service) record(ctx context.Context, rawURL string, feed *entity.Feed, source entity.Source, res *Result, duration time.Duration, err error) {
	entry := &entity.ParseLog{
		URL:        rawURL,
		Source:     source,
		DurationMS: duration.Milliseconds(),
	}
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
		entry.Error = err.Error()
	case len(res.Items) == 0:
		outcome = "empty"
	}
	if feed != nil {
		entry.Version = feed.Version
	}
	if res != nil {
		entry.ItemCount = len(res.Items)
	}
	metrics.RecordParse(string(source), outcome, duration, entry.ItemCount)

	if s.history == nil {
		return
	}
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	werr := s.history.Create(hctx, entry)
	metrics.RecordHistoryWrite(werr == nil)
	if werr != nil {
		logging.FromContext(ctx).Warn("failed to record parse history",
			slog.String("url", rawURL),
			slog.Any("error", werr))
	}
}

func (s *Service) lookup(ctx context.Context, key string) (*Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheLookup(s.cache.Name(), "error")
		logging.FromContext(ctx).Warn("cache lookup failed", slog.Any("error", err))
		return nil, false
	case !ok:
		metrics.RecordCacheLookup(s.cache.Name(), "miss")
		return nil, false
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		metrics.RecordCacheLookup(s.cache.Name(), "error")
		return nil, false
	}
	metrics.RecordCacheLookup(s.cache.Name(), "hit")
	return &res, true
}

func (s *Service) store(ctx context.Context, key string, res *Result) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.cache.Set(context.WithoutCancel(ctx), key, data, s.cacheTTL); err != nil && !errors.Is(err, context.Canceled) {
		logging.FromContext(ctx).Warn("cache store failed", slog.Any("error", err))
	}
}

func cacheKey(req Request, limit int) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		req.URL,
		strconv.Itoa(limit),
		strconv.FormatBool(req.Discover),
		strconv.FormatBool(req.NoAI),
	}, "\x00")))
	return "parse:" + hex.EncodeToString(sum[:])
}
