package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	var seen string
	h := Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		Logger(r.Context(), zap.NewNop()).Info("inside")
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"kept", "client-req-1234", true},
		{"malformed replaced", "bad id with spaces", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/schools", nil)
			if tt.incoming != "" {
				req.Header.Set(Header, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(Header)
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q", got, seen)
			}
			if tt.keep != (got == tt.incoming) {
				t.Errorf("id %q, incoming %q, keep %v", got, tt.incoming, tt.keep)
			}
		})
	}

	entries := logs.FilterMessage("inside").All()
	if len(entries) != 3 {
		t.Fatalf("log entries = %d", len(entries))
	}
	if entries[1].ContextMap()["request_id"] != "client-req-1234" {
		t.Errorf("request_id field = %v", entries[1].ContextMap()["request_id"])
	}
}

func TestLogger_Fallback(t *testing.T) {
	nop := zap.NewNop()
	if Logger(httptest.NewRequest("GET", "/", nil).Context(), nop) != nop {
		t.Error("expected fallback logger outside the middleware")
	}
}
