package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errInvalidTransition = Conflict("invalid status transition")

func TestStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		wantMsg string
	}{
		{"no documents", mongo.ErrNoDocuments, 404, "Not found."},
		{"wrapped no documents", fmt.Errorf("get school: %w", mongo.ErrNoDocuments), 404, "Not found."},
		{"validation", Invalid("Number of students must be 1 or more."), 400, "Number of students must be 1 or more."},
		{"wrapped sentinel", fmt.Errorf("approve x: %w", errInvalidTransition), 409, "invalid status transition"},
		{"throttled", New(ErrTooManyRequests, "Slow down."), 429, "Slow down."},
		{"bare class", ErrForbidden, 403, "You do not have permission to do that."},
		{"unknown", errors.New("boom"), 500, "Internal server error."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := Status(tt.err)
			if got != tt.want || msg != tt.wantMsg {
				t.Errorf("Status = (%d, %q), want (%d, %q)", got, msg, tt.want, tt.wantMsg)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("reserve: %w", errInvalidTransition)
	if !errors.Is(err, errInvalidTransition) {
		t.Error("expected errors.Is to match the sentinel")
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("expected errors.Is to match the class")
	}
}

func TestFail_WritesBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, zap.NewNop(), "test", NotFound("School not found."))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var b struct {
		Status  string `json:"status"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Status != "error" || b.Code != 404 || b.Message != "School not found." {
		t.Errorf("body = %+v", b)
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ada"}`))
	if err := Decode(r, &dst); err != nil || dst.Name != "Ada" {
		t.Fatalf("Decode = %v, name %q", err, dst.Name)
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"nope":1}`))
	err := Decode(r, &dst)
	if code, _ := Status(err); code != http.StatusBadRequest {
		t.Errorf("unknown field: status %d, want 400", code)
	}
}
