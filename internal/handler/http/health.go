package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"parserapi/internal/handler/http/respond"
	"parserapi/internal/infra/cache"
	"parserapi/internal/observability/logging"
)

// ParserName is reported by /health and /.
const ParserName = "ParserAPI"

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the /health body.
type HealthResponse struct {
	Status    string                 `json:"status"` // "healthy" or "unhealthy"
	Version   string                 `json:"version"`
	Parser    string                 `json:"parser"`
	Timestamp string                 `json:"timestamp"` // RFC 3339, UTC
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus is the result of one dependency check.
type CheckStatus struct {
	Status  string         `json:"status"` // "healthy", "degraded" or "unhealthy"
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthHandler reports the service status and the state of its optional dependencies.
// Only configured dependencies are checked; an unhealthy one turns the response into 503.
type HealthHandler struct {
	Version    string
	DB         *sql.DB     // history store, nil when DATABASE_URL is unset
	Cache      cache.Cache // nil when caching is disabled
	AIProvider string      // LLM provider name, "none" when AI extraction is off
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"parser": {Status: statusHealthy},
	}
	allHealthy := true

	if h.DB != nil {
		check := checkDatabase(ctx, h.DB)
		checks["database"] = check
		allHealthy = allHealthy && check.Status != statusUnhealthy
	}

	if h.Cache != nil {
		check := checkCache(ctx, h.Cache)
		checks["cache"] = check
		allHealthy = allHealthy && check.Status != statusUnhealthy
	}

	if h.AIProvider != "" {
		checks["ai"] = CheckStatus{
			Status:  statusHealthy,
			Details: map[string]any{"provider": h.AIProvider, "enabled": h.AIProvider != "none"},
		}
	}

	status := statusHealthy
	code := http.StatusOK
	if !allHealthy {
		status = statusUnhealthy
		code = http.StatusServiceUnavailable
		logging.FromContext(ctx).Warn("health check failed", "checks", checks)
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Version:   h.Version,
		Parser:    ParserName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// checkDatabase pings the history store and reports connection pool statistics.
func checkDatabase(ctx context.Context, db *sql.DB) CheckStatus {
	if err := db.PingContext(ctx); err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: respond.SanitizeError(err)}
	}

	stats := db.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  statusDegraded,
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80.0 {
		return CheckStatus{
			Status:  statusDegraded,
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}

	return CheckStatus{Status: statusHealthy, Details: details}
}

func checkCache(ctx context.Context, c cache.Cache) CheckStatus {
	details := map[string]any{"backend": c.Name()}
	if err := c.Ping(ctx); err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: respond.SanitizeError(err), Details: details}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

// ReadyHandler answers readiness probes. It fails while a configured dependency is unreachable.
type ReadyHandler struct {
	DB    *sql.DB
	Cache cache.Cache
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			http.Error(w, "database not ready: "+respond.SanitizeError(err), http.StatusServiceUnavailable)
			return
		}
	}
	if h.Cache != nil {
		if err := h.Cache.Ping(ctx); err != nil {
			http.Error(w, "cache not ready: "+respond.SanitizeError(err), http.StatusServiceUnavailable)
			return
		}
	}

	writePlain(w, "ready")
}

// LiveHandler answers liveness probes.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writePlain(w, "alive")
}

func writePlain(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
