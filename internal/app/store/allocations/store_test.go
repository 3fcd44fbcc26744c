package allocationstore_test

import (
	"errors"
	"testing"
	"time"

	allocationstore "github.com/mealbridge/mealbridge/internal/app/store/allocations"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newAllocation(flow string, donor, principal, class, pd primitive.ObjectID) models.Allocation {
	return models.Allocation{
		Flow:                flow,
		PublishedDonationID: pd,
		DonorID:             donor,
		PrincipalID:         principal,
		SchoolID:            primitive.NewObjectID(),
		ClassID:             class,
		NumberOfStudents:    10,
	}
}

func TestStore_CreateDefaultsPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := allocationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, newAllocation(models.FlowRequest,
		primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.ID.IsZero() || a.Status != models.AllocPending || a.CreatedAt.IsZero() {
		t.Errorf("unexpected allocation: %+v", a)
	}
}

func TestStore_Transition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := allocationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, newAllocation(models.FlowRequest,
		primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()))
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	got, err := store.Transition(ctx, a.ID, []string{models.AllocPending}, models.AllocApproved,
		bson.M{"approved_at": now, "capacity_held": 7})
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if got.Status != models.AllocApproved || got.CapacityHeld != 7 || got.ApprovedAt == nil {
		t.Errorf("unexpected result: %+v", got)
	}

	// The same transition a second time does not match.
	if _, err := store.Transition(ctx, a.ID, []string{models.AllocPending}, models.AllocApproved, nil); !errors.Is(err, allocationstore.ErrStatusChanged) {
		t.Errorf("second transition: got %v, want ErrStatusChanged", err)
	}

	if _, err := store.Transition(ctx, primitive.NewObjectID(), []string{models.AllocPending}, models.AllocApproved, nil); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing record: got %v, want ErrNoDocuments", err)
	}
}

func TestStore_Revert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := allocationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, newAllocation(models.FlowAssignment,
		primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()))
	if _, err := store.Transition(ctx, a.ID, []string{models.AllocPending}, models.AllocApproved,
		bson.M{"approved_at": time.Now().UTC()}); err != nil {
		t.Fatal(err)
	}
	if err := store.Revert(ctx, a.ID, models.AllocApproved, models.AllocPending, "approved_at"); err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.AllocPending || got.ApprovedAt != nil {
		t.Errorf("after revert: %+v", got)
	}
}

func TestStore_ArchiveDropsFromPools(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := allocationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor, class := primitive.NewObjectID(), primitive.NewObjectID()
	keep, _ := store.Create(ctx, newAllocation(models.FlowRequest, donor, primitive.NewObjectID(), class, primitive.NewObjectID()))
	gone, _ := store.Create(ctx, newAllocation(models.FlowRequest, donor, primitive.NewObjectID(), class, primitive.NewObjectID()))

	if _, err := store.Archive(ctx, gone.ID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if _, err := store.Archive(ctx, gone.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("second Archive: got %v, want ErrNoDocuments", err)
	}
	if _, err := store.Transition(ctx, gone.ID, []string{models.AllocPending}, models.AllocApproved, nil); !errors.Is(err, allocationstore.ErrStatusChanged) {
		t.Errorf("transition on archived: got %v, want ErrStatusChanged", err)
	}

	pool, err := store.PendingPool(ctx, donor)
	if err != nil {
		t.Fatal(err)
	}
	if len(pool) != 1 || pool[0].ID != keep.ID {
		t.Errorf("PendingPool: got %d records, want only the kept one", len(pool))
	}

	all, err := store.List(ctx, allocationstore.Filter{DonorID: &donor, IncludeArchived: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("List with archived: got %d, want 2", len(all))
	}
}

func TestStore_PoolsAndCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := allocationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor, class, pd := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	mk := func(flow, status string) models.Allocation {
		a := newAllocation(flow, donor, primitive.NewObjectID(), class, pd)
		a.Status = status
		out, err := store.Create(ctx, a)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	mk(models.FlowRequest, models.AllocPending)
	mk(models.FlowAssignment, models.AllocApproved)
	mk(models.FlowAssignment, models.AllocDispatched)
	mk(models.FlowRequest, models.AllocClaimed)
	mk(models.FlowAssignment, models.AllocRejected)

	approved, err := store.ApprovedPool(ctx, class)
	if err != nil {
		t.Fatal(err)
	}
	if len(approved) != 2 {
		t.Errorf("ApprovedPool: got %d, want 2", len(approved))
	}

	open, err := store.CountOpen(ctx, pd)
	if err != nil {
		t.Fatal(err)
	}
	if open != 3 {
		t.Errorf("CountOpen: got %d, want 3", open)
	}

	assignments, err := store.List(ctx, allocationstore.Filter{Flow: models.FlowAssignment, PublishedDonationID: &pd})
	if err != nil {
		t.Fatal(err)
	}
	if len(assignments) != 3 {
		t.Errorf("assignment flow: got %d, want 3", len(assignments))
	}
}
