package ai

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apiconfigstore "github.com/mealbridge/mealbridge/internal/app/store/apiconfigs"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/indexes"
	"github.com/mealbridge/mealbridge/internal/app/system/secret"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func reply(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

var admin = authz.Actor{ID: primitive.NewObjectID(), Name: "Ada", Role: models.RoleAdmin}

func newService(t *testing.T, rt roundTripFunc) (*Service, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sealer, err := secret.NewSealer([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	svc := New(db, sealer, nil, zap.NewNop(), Options{
		Endpoint:   "https://ai.test/v1/chat/completions",
		HTTPClient: &http.Client{Transport: rt},
	})
	return svc, db
}

func addConfig(t *testing.T, svc *Service, name, key string, priority int) models.APIConfig {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c, err := svc.CreateConfig(ctx, admin, ConfigInput{Name: name, APIKey: key, Model: "m-" + name, Priority: priority})
	if err != nil {
		t.Fatalf("CreateConfig(%s): %v", name, err)
	}
	return c
}

// keyedEndpoint answers for key "good" and fails every other key.
func keyedEndpoint(t *testing.T, calls *[]string) roundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		key := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
		*calls = append(*calls, key)

		var body chatRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" || body.Model == "" {
			t.Errorf("unexpected request body: %+v", body)
		}
		if key != "good" {
			return reply(http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`), nil
		}
		return reply(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"  Kids loved the soup.  "}}]}`), nil
	}
}

func TestSummarize_FailsOverToNextConfig(t *testing.T) {
	var calls []string
	svc, db := newService(t, keyedEndpoint(t, &calls))
	first := addConfig(t, svc, "primary", "bad", 0)
	second := addConfig(t, svc, "backup", "good", 1)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	res := svc.Summarize(ctx, "summarize: great")

	if !res.Available || res.Text != "Kids loved the soup." || res.Model != "m-backup" || res.ConfigID != second.ID.Hex() {
		t.Fatalf("result: %+v", res)
	}
	if len(calls) != 2 || calls[0] != "bad" || calls[1] != "good" {
		t.Errorf("call order: %v", calls)
	}

	store := apiconfigstore.New(db)
	got, err := store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FailureCount != 1 || !strings.Contains(got.LastError, "429") {
		t.Errorf("first config: failures=%d last_error=%q", got.FailureCount, got.LastError)
	}
	got, err = store.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.LastUsed == nil || got.FailureCount != 0 {
		t.Errorf("second config: %+v", got)
	}
}

func TestSummarize_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		prompt  string
		calls   int
		failing int
	}{
		{name: "no configs", prompt: "x"},
		{name: "all fail", keys: []string{"bad", "worse"}, prompt: "x", calls: 2, failing: 2},
		{name: "empty prompt", keys: []string{"good"}, prompt: "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			svc, db := newService(t, keyedEndpoint(t, &calls))
			for i, k := range tt.keys {
				addConfig(t, svc, k, k, i)
			}

			ctx, cancel := testutil.TestContext()
			defer cancel()
			res := svc.Summarize(ctx, tt.prompt)
			if res.Available || res.Text != Placeholder {
				t.Errorf("result: %+v", res)
			}
			if len(calls) != tt.calls {
				t.Errorf("calls: got %d, want %d", len(calls), tt.calls)
			}

			list, err := apiconfigstore.New(db).List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			failing := 0
			for _, c := range list {
				if c.FailureCount > 0 {
					failing++
				}
			}
			if failing != tt.failing {
				t.Errorf("configs with failures: got %d, want %d", failing, tt.failing)
			}
		})
	}
}

func TestSummarize_TransportError(t *testing.T) {
	svc, _ := newService(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	addConfig(t, svc, "only", "good", 0)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if res := svc.Summarize(ctx, "x"); res.Available || res.Text != Placeholder {
		t.Errorf("result: %+v", res)
	}
}

func TestComplete_RejectsEmptyChoice(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return reply(http.StatusOK, `{"choices":[]}`), nil
	})}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := complete(ctx, hc, "https://ai.test", "k", "m", "p"); !errors.Is(err, errEmptyCompletion) {
		t.Errorf("got %v, want errEmptyCompletion", err)
	}
}

func TestActiveConfigs_CachedUntilTTL(t *testing.T) {
	svc, db := newService(t, nil)
	var clock atomic.Int64
	clock.Store(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC).Unix())
	svc.now = func() time.Time { return time.Unix(clock.Load(), 0) }

	addConfig(t, svc, "one", "k1", 0)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if list, _ := svc.ActiveConfigs(ctx); len(list) != 1 {
		t.Fatalf("initial: %d", len(list))
	}

	// Written behind the service's back, so the cache does not know.
	if _, err := apiconfigstore.New(db).Create(ctx, models.APIConfig{Name: "two", SealedKey: "x", Active: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if list, _ := svc.ActiveConfigs(ctx); len(list) != 1 {
		t.Errorf("within TTL: got %d, want cached 1", len(list))
	}

	clock.Add(int64(DefaultCacheTTL/time.Second) + 1)
	if list, _ := svc.ActiveConfigs(ctx); len(list) != 2 {
		t.Errorf("after TTL: got %d, want 2", len(list))
	}

	addConfig(t, svc, "three", "k3", 2)
	if list, _ := svc.ActiveConfigs(ctx); len(list) != 3 {
		t.Errorf("after CreateConfig: got %d, want 3", len(list))
	}
}

func TestConfigCRUD(t *testing.T) {
	svc, db := newService(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	c := addConfig(t, svc, "main", "sk-live-123", 0)
	if c.SealedKey == "" || strings.Contains(c.SealedKey, "sk-live-123") {
		t.Fatalf("key not sealed: %q", c.SealedKey)
	}
	if plain, err := svc.sealer.Open(c.SealedKey); err != nil || plain != "sk-live-123" {
		t.Errorf("Open: %q, %v", plain, err)
	}
	if !c.Active || c.Provider != "openrouter" {
		t.Errorf("defaults: %+v", c)
	}

	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(raw), "sealed") {
		t.Errorf("sealed key leaked to JSON: %s", raw)
	}

	off := false
	key := "sk-live-456"
	updated, err := svc.UpdateConfig(ctx, admin, c.ID, ConfigPatch{APIKey: &key, Active: &off})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if updated.Active || updated.SealedKey == c.SealedKey {
		t.Errorf("updated: %+v", updated)
	}
	if list, _ := svc.ActiveConfigs(ctx); len(list) != 0 {
		t.Errorf("inactive config still active: %d", len(list))
	}

	if _, err := svc.CreateConfig(ctx, admin, ConfigInput{Name: "main", APIKey: "k"}); !errors.Is(err, apierr.ErrConflict) {
		t.Errorf("duplicate name: got %v", err)
	}
	if _, err := svc.CreateConfig(ctx, admin, ConfigInput{Name: "nokey"}); !errors.Is(err, apierr.ErrValidation) {
		t.Errorf("missing key: got %v", err)
	}

	donor := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleDonor}
	if _, err := svc.ListConfigs(ctx, donor); !errors.Is(err, apierr.ErrForbidden) {
		t.Errorf("donor list: got %v", err)
	}

	if err := svc.DeleteConfig(ctx, admin, c.ID); err != nil {
		t.Fatalf("DeleteConfig: %v", err)
	}
	if err := svc.DeleteConfig(ctx, admin, c.ID); !errors.Is(err, apierr.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
	if _, err := svc.GetConfig(ctx, admin, c.ID); !errors.Is(err, apierr.ErrNotFound) {
		t.Errorf("get deleted: got %v", err)
	}
}

func TestCreateConfig_WithoutSealer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nil, nil, zap.NewNop(), Options{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := svc.CreateConfig(ctx, admin, ConfigInput{Name: "primary", APIKey: "sk-1"})
	if !errors.Is(err, apierr.ErrUnavailable) {
		t.Fatalf("CreateConfig without sealer: got %v, want ErrUnavailable", err)
	}
	n, err := db.Collection("api_configs").CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("stored %d configs, want 0", n)
	}
}
