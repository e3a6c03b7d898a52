package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHandler(t *testing.T) {
	handler := RootHandler{Version: "4.0.0", Description: "AI-powered feed parser"}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var info Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "ParserAPI", info.Name)
	assert.Equal(t, "4.0.0", info.Version)
	assert.Contains(t, info.Endpoints, "/parse")
	assert.Contains(t, info.Endpoints, "/health")
	assert.Contains(t, info.Endpoints, "/docs")
	assert.Equal(t, "/parse?url=https://example.com", info.Usage["example"])
}

func TestRootHandler_UnknownPath(t *testing.T) {
	rec := httptest.NewRecorder()
	RootHandler{}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}
