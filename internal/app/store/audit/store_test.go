package audit_test

import (
	"testing"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LogAndForSubject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	subject := primitive.NewObjectID()
	for _, et := range []string{audit.EventAllocationCreated, audit.EventAllocationChanged} {
		err := store.Log(ctx, audit.Event{
			Category:    audit.CategoryPipeline,
			EventType:   et,
			SubjectType: "allocation",
			SubjectID:   &subject,
			Success:     true,
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventSignOut, Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.ForSubject(ctx, subject, 10)
	if err != nil {
		t.Fatalf("ForSubject failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID.IsZero() || events[0].CreatedAt.IsZero() {
		t.Error("expected ID and CreatedAt to be filled in")
	}
}

func TestStore_QueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := primitive.NewObjectID()
	old := time.Now().UTC().Add(-48 * time.Hour)

	_ = store.Log(ctx, audit.Event{Category: audit.CategoryPipeline, EventType: audit.EventDonationPublished, SchoolID: &school, CreatedAt: old, Success: true})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryPipeline, EventType: audit.EventAllocationCreated, SchoolID: &school, Success: true})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventSchoolCreated, Success: true})

	since := time.Now().UTC().Add(-time.Hour)
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int64
	}{
		{"all", audit.QueryFilter{}, 3},
		{"category", audit.QueryFilter{Category: audit.CategoryPipeline}, 2},
		{"school", audit.QueryFilter{SchoolID: &school}, 2},
		{"since", audit.QueryFilter{Since: &since}, 2},
		{"type", audit.QueryFilter{EventType: audit.EventSchoolCreated}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := store.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if n != tt.want {
				t.Errorf("Count = %d, want %d", n, tt.want)
			}
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if int64(len(events)) != tt.want {
				t.Errorf("Query returned %d, want %d", len(events), tt.want)
			}
		})
	}
}

func TestStore_FailedSignIns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventSignInFailedWrongPassword, Success: false})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventSignInSuccess, Success: true})

	events, err := store.FailedSignIns(ctx, time.Now().Add(-time.Minute), 10)
	if err != nil {
		t.Fatalf("FailedSignIns failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventSignInFailedWrongPassword {
		t.Errorf("FailedSignIns = %+v", events)
	}
}
