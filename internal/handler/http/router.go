// Package http provides the HTTP handlers and middleware of the parser API:
// the /parse endpoint with its output formats, parse history, health probes and metrics.
package http

import (
	"net/http"
	"time"
)

// Routes holds the handlers mounted by NewMux. Nil handlers are not mounted, except Root which defaults to RootHandler.
type Routes struct {
	Parse   http.Handler
	History http.Handler
	Health  http.Handler
	Ready   http.Handler
	Live    http.Handler
	Metrics http.Handler
	Docs    http.Handler // mounted under /docs/

	// ParseLimiter and ParseTimeout apply to /parse only.
	ParseLimiter *RateLimiter
	ParseTimeout time.Duration

	Root http.Handler
}

// NewMux registers the API routes. Unknown paths answer 404 JSON.
func NewMux(rt Routes) *http.ServeMux {
	mux := http.NewServeMux()

	if rt.Parse != nil {
		parse := Timeout(rt.ParseTimeout)(rt.Parse)
		if rt.ParseLimiter != nil {
			parse = rt.ParseLimiter.Limit(parse)
		}
		mux.Handle("GET /parse", parse)
	}

	for pattern, h := range map[string]http.Handler{
		"GET /history": rt.History,
		"GET /health":  rt.Health,
		"GET /ready":   rt.Ready,
		"GET /live":    rt.Live,
		"GET /metrics": rt.Metrics,
	} {
		if h != nil {
			mux.Handle(pattern, h)
		}
	}

	if rt.Docs != nil {
		mux.Handle("GET /docs/", rt.Docs)
		mux.Handle("GET /docs", http.RedirectHandler("/docs/index.html", http.StatusMovedPermanently))
	}

	root := rt.Root
	if root == nil {
		root = RootHandler{}
	}
	mux.Handle("/", root)
	return mux
}
