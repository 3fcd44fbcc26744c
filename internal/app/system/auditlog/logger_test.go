package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	"github.com/mealbridge/mealbridge/internal/app/system/auditlog"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/api/auth/signin", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.SignInSuccess(ctx, req, primitive.NewObjectID(), "a@example.com")
	logger.Pipeline(ctx, audit.EventAllocationCreated, nil, "allocation", primitive.NewObjectID(), nil, nil)
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		wantDB  int64
		wantLog int
	}{
		{"all", "all", 1, 1},
		{"empty means all", "", 1, 1},
		{"db only", "db", 1, 0},
		{"log only", "log", 0, 1},
		{"off", "off", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			core, logs := observer.New(zapcore.InfoLevel)
			logger := auditlog.New(store, zap.New(core), auditlog.Config{Pipeline: tt.setting})

			logger.Pipeline(ctx, audit.EventAllocationChanged, nil, "allocation", primitive.NewObjectID(), nil,
				map[string]string{"from": "pending", "to": "approved"})

			n, err := store.Count(ctx, audit.QueryFilter{})
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if n != tt.wantDB {
				t.Errorf("stored events = %d, want %d", n, tt.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.wantLog {
				t.Errorf("zap entries = %d, want %d", got, tt.wantLog)
			}
		})
	}
}

func TestLogger_CategoriesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Pipeline: "db"})
	req := httptest.NewRequest("POST", "/api/auth/signin", nil)

	logger.SignInSuccess(ctx, req, primitive.NewObjectID(), "a@example.com")
	logger.Pipeline(ctx, audit.EventDonationPublished, nil, "published_donation", primitive.NewObjectID(), nil, nil)

	if n, _ := store.Count(ctx, audit.QueryFilter{Category: audit.CategoryAuth}); n != 0 {
		t.Errorf("auth events stored = %d, want 0", n)
	}
	if n, _ := store.Count(ctx, audit.QueryFilter{Category: audit.CategoryPipeline}); n != 1 {
		t.Errorf("pipeline events stored = %d, want 1", n)
	}
}

func TestLogger_SignInFailed_RecordsRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})
	req := httptest.NewRequest("POST", "/api/auth/signin", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "MealBridgeApp/1.0")

	logger.SignInFailed(ctx, req, audit.EventSignInFailedWrongPassword, nil, "a@example.com", "wrong password")

	events, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil || len(events) != 1 {
		t.Fatalf("Query = %v, %d events", err, len(events))
	}
	e := events[0]
	if e.IP != "203.0.113.9" || e.UserAgent != "MealBridgeApp/1.0" || e.Success || e.FailureReason != "wrong password" {
		t.Errorf("event = %+v", e)
	}
}

func TestLogger_SignOut_InvalidID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})
	logger.SignOut(ctx, httptest.NewRequest("POST", "/api/auth/signout", nil), "garbage")

	events, _ := store.Query(ctx, audit.QueryFilter{EventType: audit.EventSignOut})
	if len(events) != 1 || events[0].ActorID != nil {
		t.Errorf("expected one sign-out event without actor, got %+v", events)
	}
}
