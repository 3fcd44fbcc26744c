package feedback_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/features/feedback"
	"github.com/mealbridge/mealbridge/internal/app/services/registry"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.uber.org/zap"
)

func TestFeedback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	router := feedback.Routes(feedback.NewHandler(registry.New(db, nil, logger), logger), sm)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	school := fx.CreateSchool(ctx, "Lincoln")
	principal := fx.CreatePrincipal(ctx, "Pat Principal", school.ID)
	teacher := fx.CreateTeacher(ctx, "Tom Teacher", school.ID)
	donor := fx.CreateDonor(ctx, "Dana Donor")
	class := fx.CreateClass(ctx, "4A", school.ID, &teacher)

	do := func(u models.User, method, target string, body any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.AsUser(testutil.JSONRequest(t, method, target, body), u))
		return rec
	}

	submits := []struct {
		name string
		user models.User
		body map[string]any
		want int
	}{
		{"ok", teacher, map[string]any{"date": "2026-03-02", "class_id": class.ID.Hex(), "rating": 4, "comment": "<b>Loved</b> the soup"}, http.StatusCreated},
		{"rating too high", teacher, map[string]any{"date": "2026-03-02", "class_id": class.ID.Hex(), "rating": 6}, http.StatusBadRequest},
		{"bad date", teacher, map[string]any{"date": "March 2", "class_id": class.ID.Hex(), "rating": 3}, http.StatusBadRequest},
		{"principal", principal, map[string]any{"date": "2026-03-02", "class_id": class.ID.Hex(), "rating": 3}, http.StatusForbidden},
	}
	for _, tc := range submits {
		t.Run(tc.name, func(t *testing.T) {
			do(tc.user, "POST", "/", tc.body).AssertStatus(t, tc.want)
		})
	}

	var list []models.Feedback
	do(principal, "GET", "/?from=2026-03-01&to=2026-03-31", nil).Decode(t, &list)
	if len(list) != 1 || list[0].Comment != "Loved the soup" {
		t.Errorf("unexpected feedback: %+v", list)
	}
	do(donor, "GET", "/?school="+school.ID.Hex()+"&from=2026-03-01", nil).AssertStatus(t, http.StatusForbidden)
	do(principal, "GET", "/?from=2026-03-31&to=2026-03-01", nil).AssertStatus(t, http.StatusBadRequest)
}
