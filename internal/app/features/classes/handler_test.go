package classes_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/features/classes"
	"github.com/mealbridge/mealbridge/internal/app/services/registry"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.uber.org/zap"
)

func TestClasses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	router := classes.Routes(classes.NewHandler(registry.New(db, nil, logger), logger), sm)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	school := fx.CreateSchool(ctx, "Lincoln")
	principal := fx.CreatePrincipal(ctx, "Pat Principal", school.ID)
	teacher := fx.CreateTeacher(ctx, "Tom Teacher", school.ID)
	other := fx.CreateTeacher(ctx, "Olga Other", fx.CreateSchool(ctx, "Roosevelt").ID)
	class := fx.CreateClass(ctx, "4A", school.ID, nil)
	base := "/" + class.ID.Hex()

	do := func(u models.User, method, target string, body any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.AsUser(testutil.JSONRequest(t, method, target, body), u))
		return rec
	}

	do(teacher, "PATCH", base, map[string]string{"name": "4B"}).AssertStatus(t, http.StatusForbidden)
	do(principal, "PATCH", base, map[string]string{"grade": "4"}).AssertContains(t, `"grade":"4"`)

	do(principal, "POST", base+"/teacher", map[string]string{"teacher_id": other.ID.Hex()}).AssertStatus(t, http.StatusBadRequest)
	do(principal, "POST", base+"/teacher", map[string]string{"teacher_id": teacher.ID.Hex()}).AssertStatus(t, http.StatusOK)

	var mine []models.Class
	do(teacher, "GET", "/", nil).Decode(t, &mine)
	if len(mine) != 1 {
		t.Errorf("teacher classes: got %d, want 1", len(mine))
	}
	do(teacher, "GET", "/?teacher="+other.ID.Hex(), nil).AssertStatus(t, http.StatusForbidden)
	do(other, "GET", base, nil).AssertStatus(t, http.StatusForbidden)

	stock := []struct {
		path     string
		servings int
		code     int
		want     int
	}{
		{"/meal-stock", 5, http.StatusOK, 5},
		{"/meal-stock/consume", 3, http.StatusOK, 2},
		{"/meal-stock/consume", 3, http.StatusConflict, 2},
		{"/meal-stock", 0, http.StatusBadRequest, 2},
	}
	for _, s := range stock {
		rec := do(teacher, "POST", base+s.path, map[string]int{"servings": s.servings})
		rec.AssertStatus(t, s.code)
		var got models.Class
		do(teacher, "GET", base, nil).Decode(t, &got)
		if got.MealStock != s.want {
			t.Errorf("%s %d: meal_stock = %d, want %d", s.path, s.servings, got.MealStock, s.want)
		}
	}

	do(principal, "DELETE", base, nil).AssertStatus(t, http.StatusNoContent)
	do(principal, "GET", base, nil).AssertStatus(t, http.StatusNotFound)
}
