package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testAppConfig() AppConfig {
	return AppConfig{
		SessionKey:      "test-session-key-for-testing-only-0123",
		SessionName:     "test-session",
		SessionMaxAge:   time.Hour,
		AICacheTTL:      time.Minute,
		APIKeySecret:    "0123456789abcdef0123456789abcdef",
		LoginRateLimit:  10,
		LoginRateWindow: time.Minute,
		AdminEmail:      "Admin@Example.com",
		AdminPassword:   "correct-horse-battery",
		AdminName:       "Ada Admin",
	}
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name    string
		prod    bool
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"defaults", false, func(*AppConfig) {}, ""},
		{"no secret in dev", false, func(c *AppConfig) { c.APIKeySecret = "" }, ""},
		{"no secret in prod", true, func(c *AppConfig) { c.APIKeySecret = "" }, "api_key_secret"},
		{"short secret", false, func(c *AppConfig) { c.APIKeySecret = "short" }, "api key secret"},
		{"dev session key in prod", true, func(c *AppConfig) { c.SessionKey = devSessionKey }, "session_key"},
		{"bad cron", false, func(c *AppConfig) { c.ReconcileSchedule = "every now and then" }, "reconcile_schedule"},
		{"descriptor cron", false, func(c *AppConfig) { c.ReconcileSchedule = "@every 10m" }, ""},
		{"bad audit mode", false, func(c *AppConfig) { c.AuditLogPipeline = "loud" }, "audit_log_pipeline"},
		{"zero rate limit", false, func(c *AppConfig) { c.LoginRateLimit = 0 }, "login_rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig()
			tt.mutate(&cfg)
			err := validateApp(tt.prod, cfg)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestStartup_BootstrapsAdminOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	cfg := testAppConfig()

	for i := 0; i < 2; i++ {
		deps := DBDeps{MongoDatabase: db, Runtime: &Runtime{}}
		if err := Startup(ctx, &config.CoreConfig{}, cfg, deps, testLogger()); err != nil {
			t.Fatalf("Startup #%d failed: %v", i+1, err)
		}
		if err := Shutdown(ctx, &config.CoreConfig{}, cfg, deps, testLogger()); err != nil {
			t.Fatalf("Shutdown #%d failed: %v", i+1, err)
		}
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if n != 1 {
		t.Errorf("admins: got %d, want 1", n)
	}
}

func TestBuildHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	cfg := testAppConfig()
	core := &config.CoreConfig{Env: "dev"}

	if _, err := BuildHandler(core, cfg, DBDeps{MongoDatabase: db}, testLogger()); err == nil {
		t.Error("BuildHandler without Startup should fail")
	}

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, Runtime: &Runtime{}}
	if err := Startup(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	defer deps.Runtime.Scheduler.Stop(ctx)
	defer deps.Runtime.Limiter.Close()

	h, err := BuildHandler(core, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	tests := []struct {
		method, path string
		want         int
		contains     string
	}{
		{"GET", "/health", http.StatusOK, `"database":"connected"`},
		{"GET", "/api/auth/me", http.StatusOK, `"signedIn":false`},
		{"GET", "/api/schools", http.StatusUnauthorized, `"status":"error"`},
		{"GET", "/api/published-donations", http.StatusUnauthorized, ""},
		{"GET", "/api/admin/apis", http.StatusUnauthorized, ""},
		{"GET", "/api/admin/audit", http.StatusUnauthorized, ""},
		{"GET", "/api/nope", http.StatusNotFound, `"code":404`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body %s does not contain %s", rec.Body.String(), tt.contains)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}
