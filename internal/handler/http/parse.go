package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parserapi/internal/domain/entity"
	"parserapi/internal/handler/http/respond"
	"parserapi/internal/observability/slo"
	"parserapi/internal/usecase/parse"
)

// Parser is the use case behind /parse.
type Parser interface {
	Parse(ctx context.Context, req parse.Request) (*parse.Result, error)
}

// ParseHandler serves GET /parse.
type ParseHandler struct {
	Svc Parser
	SLO *slo.Tracker // optional
}

// ServeHTTP converts a page into a feed
// @Summary      Parse a URL into feed items
// @Description  Fetches the URL and returns its entries. RSS, Atom and JSON Feed documents are decoded directly;
// @Description  HTML pages go through AI extraction with a heuristic fallback.
// @Tags         parse
// @Produce      json
// @Produce      application/rss+xml
// @Produce      application/atom+xml
// @Produce      application/feed+json
// @Param        url       query string true  "Page or feed URL"
// @Param        limit     query int    false "Number of items (default 5, max 50)"
// @Param        format    query string false "Output format" Enums(json, rss, atom, jsonfeed)
// @Param        discover  query bool   false "Follow feed links advertised by HTML pages"
// @Param        ai        query bool   false "Use AI extraction for HTML pages (default true)"
// @Success      200 {object} parse.Result
// @Failure      400 {object} map[string]string "Invalid parameters"
// @Failure      429 {object} map[string]string "Rate limit exceeded" headers(Retry-After=integer)
// @Failure      500 {object} map[string]string "Fetch or parse failure"
// @Failure      504 {object} map[string]string "Request timeout"
// @Router       /parse [get]
func (h ParseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	code := h.serve(w, r)
	if h.SLO != nil {
		h.SLO.Observe(time.Since(start), code >= http.StatusInternalServerError)
	}
}

func (h ParseHandler) serve(w http.ResponseWriter, r *http.Request) int {
	req, format, err := parseQuery(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return http.StatusBadRequest
	}

	res, err := h.Svc.Parse(r.Context(), req)
	if err != nil {
		code := errorStatus(err)
		var ve *entity.ValidationError
		switch {
		case errors.As(err, &ve):
			respond.Error(w, code, errors.New(ve.Message))
		case code == http.StatusGatewayTimeout:
			respond.Detail(w, code, errors.New("request timeout"))
		default:
			respond.Detail(w, code, err)
		}
		return code
	}

	return writeResult(w, format, res)
}

// errorStatus maps use case errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parseQuery reads the /parse query parameters. URL validation is left to the use case.
func parseQuery(r *http.Request) (parse.Request, Format, error) {
	q := r.URL.Query()

	req := parse.Request{URL: strings.TrimSpace(q.Get("url"))}
	if req.URL == "" {
		return req, "", errors.New("url is required")
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return req, "", errors.New("limit must be a positive integer")
		}
		req.Limit = n
	}

	var err error
	if req.Discover, err = boolParam(q.Get("discover"), "discover", false); err != nil {
		return req, "", err
	}
	ai, err := boolParam(q.Get("ai"), "ai", true)
	if err != nil {
		return req, "", err
	}
	req.NoAI = !ai

	format, err := ParseFormat(q.Get("format"))
	if err != nil {
		return req, "", err
	}
	return req, format, nil
}

func boolParam(s, name string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return v, nil
}
