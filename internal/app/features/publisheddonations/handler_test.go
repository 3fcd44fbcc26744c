package publisheddonations_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/features/publisheddonations"
	"github.com/mealbridge/mealbridge/internal/app/services/fulfillment"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	t      *testing.T
	router http.Handler
	fx     *testutil.Fixtures
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	h := publisheddonations.NewHandler(fulfillment.New(db, nil, logger), logger)
	return &env{t: t, router: publisheddonations.Routes(h, sm), fx: testutil.NewFixtures(t, db)}
}

func (e *env) do(u *models.User, method, target string, body any) *testutil.ResponseRecorder {
	e.t.Helper()
	req := testutil.JSONRequest(e.t, method, target, body)
	if u != nil {
		req = testutil.AsUser(req, *u)
	}
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestPublishAndBrowse(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := e.fx.CreateDonor(ctx, "Dana Donor")
	school := e.fx.CreateSchool(ctx, "Lincoln")
	principal := e.fx.CreatePrincipal(ctx, "Pat Principal", school.ID)

	rec := e.do(&donor, "POST", "/", map[string]any{
		"item_name": "  Rice  ", "quantity": 20, "unit": "kg", "category": "Food",
		"description": "<b>jasmine</b><script>x</script>", "number_of_students": 30,
	})
	rec.AssertStatus(t, http.StatusCreated)
	var pd models.PublishedDonation
	rec.Decode(t, &pd)
	if pd.ItemName != "Rice" || pd.RemainingStudents != 30 || pd.Status != models.DonationAvailable {
		t.Errorf("unexpected donation: %+v", pd)
	}

	var list []models.PublishedDonation
	e.do(&principal, "GET", "/", nil).Decode(t, &list)
	if len(list) != 1 {
		t.Errorf("available: got %d, want 1", len(list))
	}

	e.do(&donor, "GET", "/mine", nil).AssertStatus(t, http.StatusOK)
	e.do(&principal, "GET", "/mine", nil).AssertStatus(t, http.StatusForbidden)
	e.do(&principal, "GET", "/"+pd.ID.Hex(), nil).AssertContains(t, `"item_name":"Rice"`)
	e.do(nil, "GET", "/", nil).AssertStatus(t, http.StatusUnauthorized)
}

func TestPublishValidation(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	donor := e.fx.CreateDonor(ctx, "Dana Donor")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing item", map[string]any{"category": "food", "number_of_students": 3}, 400},
		{"zero students", map[string]any{"item_name": "Rice", "category": "food", "number_of_students": 0}, 400},
		{"remaining above total", map[string]any{"item_name": "Rice", "category": "food", "number_of_students": 3, "remaining_students": 4}, 400},
		{"bad category", map[string]any{"item_name": "Rice", "category": "cars", "number_of_students": 3}, 400},
		{"unknown field", map[string]any{"item_name": "Rice", "category": "food", "number_of_students": 3, "colour": "red"}, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.do(&donor, "POST", "/", tt.body).AssertStatus(t, tt.want)
		})
	}
}

func TestPatchAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := e.fx.CreateDonor(ctx, "Dana Donor")
	other := e.fx.CreateDonor(ctx, "Omar Other")
	pd := e.fx.CreatePublishedDonation(ctx, donor, "Beans", 10, 10)
	path := "/" + pd.ID.Hex()

	e.do(&other, "PATCH", path, map[string]any{"quantity": 5}).AssertStatus(t, http.StatusForbidden)

	rec := e.do(&donor, "PATCH", path, map[string]any{"remaining_students": 0})
	rec.AssertStatus(t, http.StatusOK)
	var got models.PublishedDonation
	rec.Decode(t, &got)
	if got.RemainingStudents != 0 || got.Status != models.DonationAvailable {
		t.Errorf("patch must not derive status: %+v", got)
	}

	e.do(&other, "DELETE", path, nil).AssertStatus(t, http.StatusForbidden)
	e.do(&donor, "DELETE", path, nil).AssertStatus(t, http.StatusNoContent)
	e.do(&donor, "GET", path, nil).AssertStatus(t, http.StatusNotFound)
	e.do(&donor, "GET", "/not-an-id", nil).AssertStatus(t, http.StatusBadRequest)
}
