package http

import (
	"errors"
	"net/http"

	"parserapi/internal/handler/http/respond"
)

// Info is the document served at /.
type Info struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
	Usage       map[string]string `json:"usage"`
}

// RootHandler serves the API information at / and 404 for every unknown path.
type RootHandler struct {
	Version     string
	Description string
}

// ServeHTTP returns API information
// @Summary      API information
// @Tags         meta
// @Produce      json
// @Success      200 {object} Info
// @Router       / [get]
func (h RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFound(w, r)
		return
	}

	respond.JSON(w, http.StatusOK, Info{
		Name:        ParserName,
		Version:     h.Version,
		Description: h.Description,
		Endpoints: map[string]string{
			"/parse":   "Parse a feed from URL (GET)",
			"/health":  "Health check (GET)",
			"/history": "Recent parse requests (GET)",
			"/docs":    "Interactive API documentation (Swagger UI)",
		},
		Usage: map[string]string{
			"example": "/parse?url=https://example.com",
		},
	})
}

// NotFound writes {"error":"not found"} with status 404.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	respond.Error(w, http.StatusNotFound, errors.New("not found"))
}
