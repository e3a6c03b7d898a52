// Package respond writes JSON responses and error bodies.
// Error messages pass through SanitizeError so API keys and DSN passwords never reach clients or logs.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// headers are already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes {"error": message}. It is used for client errors whose message is safe to show.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": SanitizeError(err)})
}

// Detail writes {"detail": message} with the message sanitized. Parse failures use this shape.
func Detail(w http.ResponseWriter, code int, err error) {
	msg := SanitizeError(err)
	if code >= http.StatusInternalServerError {
		slog.Default().Error("request failed",
			slog.String("status", http.StatusText(code)),
			slog.Int("code", code),
			slog.String("error", msg))
	}
	JSON(w, code, map[string]string{"detail": msg})
}

// SafeError hides the message of server errors behind a generic text and logs the sanitized original.
// Client errors are returned as {"error": message}.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	if code < http.StatusInternalServerError {
		Error(w, code, err)
		return
	}
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}
