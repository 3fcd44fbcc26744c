package classrequeststore_test

import (
	"errors"
	"testing"

	classrequeststore "github.com/mealbridge/mealbridge/internal/app/store/classrequests"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateRespond(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := classrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor, principal := primitive.NewObjectID(), primitive.NewObjectID()
	r, err := store.Create(ctx, models.ClassDonationRequest{
		PrincipalID: principal,
		DonorID:     donor,
		ClassID:     primitive.NewObjectID(),
		Kind:        models.RequestKindMoney,
		Amount:      250,
		Status:      models.RequestApproved, // ignored
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.Status != models.RequestPending {
		t.Errorf("status: got %q, want pending", r.Status)
	}

	got, err := store.Respond(ctx, r.ID, models.RequestApproved, "happy to help")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if got.Status != models.RequestApproved || got.RespondedAt == nil || got.ResponseNote != "happy to help" {
		t.Errorf("unexpected: %+v", got)
	}
	if _, err := store.Respond(ctx, r.ID, models.RequestRejected, ""); !errors.Is(err, classrequeststore.ErrAlreadyAnswered) {
		t.Errorf("second Respond: got %v, want ErrAlreadyAnswered", err)
	}
	if _, err := store.Respond(ctx, primitive.NewObjectID(), models.RequestRejected, ""); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing: got %v", err)
	}

	byDonor, err := store.ListByDonor(ctx, donor)
	if err != nil || len(byDonor) != 1 {
		t.Errorf("ListByDonor: %d %v", len(byDonor), err)
	}
	byPrincipal, err := store.ListByPrincipal(ctx, principal)
	if err != nil || len(byPrincipal) != 1 {
		t.Errorf("ListByPrincipal: %d %v", len(byPrincipal), err)
	}
}
