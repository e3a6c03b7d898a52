package responsewriter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := Wrap(rec)

	assert.Equal(t, http.StatusOK, rw.StatusCode())
	assert.Zero(t, rw.BytesWritten())
	assert.False(t, rw.Written())
	assert.Same(t, rw, Wrap(rw), "wrapping twice returns the same recorder")
}

func TestResponseWriter_Records(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantBytes  int
	}{
		{
			name:       "explicit status",
			write:      func(w http.ResponseWriter) { w.WriteHeader(http.StatusNotFound) },
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "implicit 200 on write",
			write:      func(w http.ResponseWriter) { _, _ = w.Write([]byte("hello")) },
			wantStatus: http.StatusOK,
			wantBytes:  5,
		},
		{
			name: "second status ignored",
			write: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadRequest)
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "multiple writes add up",
			write: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"a":`))
				_, _ = w.Write([]byte(`1}`))
			},
			wantStatus: http.StatusCreated,
			wantBytes:  7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rw := Wrap(rec)

			tt.write(rw)

			assert.Equal(t, tt.wantStatus, rw.StatusCode())
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBytes, rw.BytesWritten())
			assert.True(t, rw.Written())
		})
	}
}

func TestResponseWriter_Flush(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := Wrap(rec)

	rw.Flush()

	assert.True(t, rec.Flushed)
	assert.True(t, rw.Written())
}

func TestResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := Wrap(rec)

	assert.Same(t, rec, rw.Unwrap())
}
