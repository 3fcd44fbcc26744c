package apiconfigstore_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	apiconfigstore "github.com/mealbridge/mealbridge/internal/app/store/apiconfigs"
	"github.com/mealbridge/mealbridge/internal/app/system/indexes"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
)

func TestStore_OrderingAndFailures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := apiconfigstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mk := func(name string, priority int, active bool) models.APIConfig {
		c, err := store.Create(ctx, models.APIConfig{Name: name, Provider: "openrouter", Model: "m", Priority: priority, Active: active, SealedKey: "x"})
		if err != nil {
			t.Fatal(err)
		}
		return c
	}
	second := mk("second", 2, true)
	first := mk("first", 1, true)
	tied := mk("tied", 1, true)
	mk("off", 0, false)

	if err := store.RecordFailure(ctx, first.ID, strings.Repeat("e", 600)); err != nil {
		t.Fatal(err)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range active {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "tied,first,second" {
		t.Errorf("ListActive order: %v", names)
	}
	if active[1].FailureCount != 1 || len(active[1].LastError) != 500 {
		t.Errorf("failure not recorded: count=%d len=%d", active[1].FailureCount, len(active[1].LastError))
	}

	reset, err := store.ResetFailures(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reset.FailureCount != 0 || reset.LastError != "" {
		t.Errorf("ResetFailures: %+v", reset)
	}

	at := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.RecordSuccess(ctx, tied.ID, at); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetByID(ctx, tied.ID)
	if got.LastUsed == nil || !got.LastUsed.Equal(at) {
		t.Errorf("LastUsed: %v, want %v", got.LastUsed, at)
	}

	off := false
	if _, err := store.Update(ctx, second.ID, apiconfigstore.Patch{Active: &off}); err != nil {
		t.Fatal(err)
	}
	if active, _ := store.ListActive(ctx); len(active) != 2 {
		t.Errorf("after deactivate: %d active", len(active))
	}
}

func TestStore_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatal(err)
	}
	store := apiconfigstore.New(db)

	if _, err := store.Create(ctx, models.APIConfig{Name: "main"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, models.APIConfig{Name: "main"}); !errors.Is(err, apiconfigstore.ErrDuplicateName) {
		t.Errorf("got %v, want ErrDuplicateName", err)
	}
}
