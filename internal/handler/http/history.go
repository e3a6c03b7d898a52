package http

import (
	"errors"
	"net/http"
	"strconv"

	"parserapi/internal/domain/entity"
	"parserapi/internal/handler/http/respond"
	"parserapi/internal/repository"
)

// HistoryResponse is the /history body.
type HistoryResponse struct {
	Items []*entity.ParseLog `json:"items"`
	Count int                `json:"count"`
}

// HistoryHandler lists recent parse requests from the history store.
type HistoryHandler struct {
	Repo repository.ParseLogRepository // nil when DATABASE_URL is unset
}

// ServeHTTP lists recent parses
// @Summary      Recent parse requests
// @Description  Most recent first. Available only when a database is configured.
// @Tags         history
// @Produce      json
// @Param        limit query int false "Number of rows (default 20, max 100)"
// @Success      200 {object} HistoryResponse
// @Failure      400 {object} map[string]string "Invalid limit"
// @Failure      500 {object} map[string]string "Database error"
// @Failure      503 {object} map[string]string "History store not configured"
// @Router       /history [get]
func (h HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		respond.Error(w, http.StatusServiceUnavailable, errors.New("history is not enabled"))
		return
	}

	limit := repository.DefaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respond.Error(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = repository.ClampHistoryLimit(n)
	}

	logs, err := h.Repo.ListRecent(r.Context(), limit)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if logs == nil {
		logs = []*entity.ParseLog{}
	}
	respond.JSON(w, http.StatusOK, HistoryResponse{Items: logs, Count: len(logs)})
}
