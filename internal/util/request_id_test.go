package util

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "propagates well formed id", incoming: "req-incoming_123", keep: true},
		{name: "generates when missing", incoming: ""},
		{name: "replaces id with newline", incoming: "abc\ninjected"},
		{name: "replaces overlong id", incoming: strings.Repeat("a", 65)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			if tc.incoming != "" {
				req.Header.Set("X-Request-Id", tc.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			header := rec.Header().Get("X-Request-Id")
			if seen == "" || seen != header {
				t.Fatalf("context id %q and header %q should match and be non-empty", seen, header)
			}
			if tc.keep && seen != tc.incoming {
				t.Fatalf("expected incoming id to be kept, got %q", seen)
			}
			if !tc.keep && seen == tc.incoming {
				t.Fatalf("expected a fresh id, got %q", seen)
			}
		})
	}
}
