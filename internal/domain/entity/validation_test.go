package entity

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https URL", url: "https://example.com/feed", wantErr: false},
		{name: "valid http URL", url: "http://example.com/feed", wantErr: false},
		{name: "valid URL with port", url: "https://example.com:8080/feed", wantErr: false},
		{name: "valid URL with query", url: "https://example.com/feed?param=value", wantErr: false},
		{name: "loopback allowed at this layer", url: "http://127.0.0.1:8080/", wantErr: false},
		{name: "empty URL", url: "", wantErr: true},
		{name: "invalid scheme - ftp", url: "ftp://example.com/feed", wantErr: true},
		{name: "invalid scheme - file", url: "file:///etc/passwd", wantErr: true},
		{name: "invalid scheme - javascript", url: "javascript:alert(1)", wantErr: true},
		{name: "no host", url: "https://", wantErr: true},
		{name: "malformed URL", url: "ht!tp://example.com", wantErr: true},
		{name: "no scheme", url: "example.com", wantErr: true},
		{name: "URL exceeding maximum length", url: "https://example.com/" + strings.Repeat("a", 2050), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL_ErrorTypes(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "https://", "ht!tp://x"} {
		t.Run(raw, func(t *testing.T) {
			err := ValidateURL(raw)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("expected ValidationError, got %T", err)
			}
			if validationErr.Field != "url" {
				t.Errorf("Field = %q, want %q", validationErr.Field, "url")
			}
		})
	}
}
