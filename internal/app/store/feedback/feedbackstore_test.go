package feedbackstore_test

import (
	"testing"

	feedbackstore "github.com/mealbridge/mealbridge/internal/app/store/feedback"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := feedbackstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := primitive.NewObjectID()
	for _, d := range []string{"2026-03-03", "2026-03-01", "2026-04-01"} {
		if _, err := store.Create(ctx, models.Feedback{Date: d, SchoolID: school, Rating: 4, Comment: "ok"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.Create(ctx, models.Feedback{Date: "2026-03-02", SchoolID: primitive.NewObjectID(), Rating: 1}); err != nil {
		t.Fatal(err)
	}

	got, err := store.List(ctx, school, "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Date != "2026-03-01" || got[1].Date != "2026-03-03" {
		t.Errorf("List: %+v", got)
	}
}
