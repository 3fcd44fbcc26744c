package classrequests_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/features/classrequests"
	"github.com/mealbridge/mealbridge/internal/app/services/fulfillment"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.uber.org/zap"
)

func TestClassRequests(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	router := classrequests.Routes(classrequests.NewHandler(fulfillment.New(db, nil, logger), logger), sm)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	school := fx.CreateSchool(ctx, "Lincoln")
	donor := fx.CreateDonor(ctx, "Dana Donor")
	other := fx.CreateDonor(ctx, "Omar Other")
	principal := fx.CreatePrincipal(ctx, "Pat Principal", school.ID)
	class := fx.CreateClass(ctx, "4A", school.ID, nil)

	do := func(u models.User, method, target string, body any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.AsUser(testutil.JSONRequest(t, method, target, body), u))
		return rec
	}

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"money without amount", map[string]any{"donor_id": donor.ID.Hex(), "class_id": class.ID.Hex(), "kind": "money"}, 400},
		{"goods without items", map[string]any{"donor_id": donor.ID.Hex(), "class_id": class.ID.Hex(), "kind": "goods"}, 400},
		{"not a donor", map[string]any{"donor_id": principal.ID.Hex(), "class_id": class.ID.Hex(), "kind": "money", "amount": 10}, 400},
		{"money", map[string]any{"donor_id": donor.ID.Hex(), "class_id": class.ID.Hex(), "kind": "money", "amount": 25}, 201},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(principal, "POST", "/", tt.body).AssertStatus(t, tt.want)
		})
	}

	rec := do(principal, "POST", "/", map[string]any{
		"donor_id": donor.ID.Hex(), "class_id": class.ID.Hex(), "kind": "goods", "items": "pencils", "message": "thanks",
	})
	rec.AssertStatus(t, http.StatusCreated)
	var cr models.ClassDonationRequest
	rec.Decode(t, &cr)

	var list []models.ClassDonationRequest
	do(donor, "GET", "/", nil).Decode(t, &list)
	if len(list) != 2 {
		t.Errorf("donor inbox: got %d, want 2", len(list))
	}
	do(other, "GET", "/", nil).Decode(t, &list)
	if len(list) != 0 {
		t.Errorf("other donor inbox: got %d, want 0", len(list))
	}
	do(other, "GET", "/?donor="+donor.ID.Hex(), nil).AssertStatus(t, http.StatusForbidden)

	path := "/" + cr.ID.Hex()
	do(other, "POST", path+"/approve", nil).AssertStatus(t, http.StatusForbidden)
	do(principal, "POST", path+"/approve", nil).AssertStatus(t, http.StatusForbidden)

	rec = do(donor, "POST", path+"/approve", map[string]string{"note": "on the way"})
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"response_note":"on the way"`)

	do(donor, "POST", path+"/reject", nil).AssertStatus(t, http.StatusConflict)
}
