package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/testutil"
)

func TestPathID(t *testing.T) {
	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/x", nil), "id", "64b7f0c2a1b2c3d4e5f60718")
	rec := httptest.NewRecorder()
	id, ok := PathID(rec, req, "id")
	if !ok || id.Hex() != "64b7f0c2a1b2c3d4e5f60718" {
		t.Fatalf("PathID = %v %v", id, ok)
	}

	bad := testutil.WithChiURLParam(httptest.NewRequest("GET", "/x", nil), "id", "nope")
	rec = httptest.NewRecorder()
	if _, ok := PathID(rec, bad, "id"); ok || rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id: ok=%v code=%d", ok, rec.Code)
	}
}

func TestActor_Anonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	if _, ok := Actor(rec, httptest.NewRequest("GET", "/x", nil)); ok || rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: ok=%v code=%d", ok, rec.Code)
	}
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest("GET", "/x?donor=64b7f0c2a1b2c3d4e5f60718&status=Pending,%20accepted,&class=bad", nil)

	donor, err := QueryID(req, "donor")
	if err != nil || donor == nil || donor.Hex() != "64b7f0c2a1b2c3d4e5f60718" {
		t.Errorf("donor = %v, %v", donor, err)
	}
	if missing, err := QueryID(req, "principal"); missing != nil || err != nil {
		t.Errorf("absent param = %v, %v", missing, err)
	}
	if _, err := QueryID(req, "class"); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("bad class: %v", err)
	}
	if got := strings.Join(Statuses(req, "assignment"), "|"); got != "pending|approved" {
		t.Errorf("Statuses = %q", got)
	}
}

func TestDayRange(t *testing.T) {
	tests := []struct {
		query    string
		from, to string
		wantErr  bool
	}{
		{"from=2026-03-01&to=2026-03-07", "2026-03-01", "2026-03-07", false},
		{"from=2026-03-01", "2026-03-01", "2026-03-01", false},
		{"from=2026-03-07&to=2026-03-01", "", "", true},
		{"from=03/01/2026", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			from, to, err := DayRange(httptest.NewRequest("GET", "/x?"+tt.query, nil))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if from != tt.from || to != tt.to {
				t.Errorf("got %s..%s, want %s..%s", from, to, tt.from, tt.to)
			}
		})
	}
}
