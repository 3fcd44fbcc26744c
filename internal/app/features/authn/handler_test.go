package authn_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/features/authn"
	authnsvc "github.com/mealbridge/mealbridge/internal/app/services/authn"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	userstore "github.com/mealbridge/mealbridge/internal/app/store/users"
	"github.com/mealbridge/mealbridge/internal/app/system/auditlog"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/app/system/ratelimit"
	"github.com/mealbridge/mealbridge/internal/app/system/status"
	"github.com/mealbridge/mealbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	db       *mongo.Database
	router   http.Handler
	fixtures *testutil.Fixtures
}

func newEnv(t *testing.T, attempts int) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessions, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	sessions.SetUserFetcher(userstore.NewFetcher(db))

	limiter := ratelimit.NewSignInLimiter(attempts, time.Minute)
	t.Cleanup(limiter.Close)

	al := auditlog.New(audit.New(db), logger, auditlog.Config{})
	h := authn.NewHandler(authnsvc.New(db, limiter, al, logger), sessions, al, logger)

	r := chi.NewRouter()
	r.Use(sessions.LoadSessionUser)
	r.Mount("/api/auth", authn.Routes(h))
	return &env{db: db, router: r, fixtures: testutil.NewFixtures(t, db)}
}

func (e *env) do(req *http.Request, cookies ...*http.Cookie) *testutil.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *testutil.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			return c
		}
	}
	return nil
}

func (e *env) signUp(t *testing.T, email, password string) *testutil.ResponseRecorder {
	t.Helper()
	return e.do(testutil.JSONRequest(t, "POST", "/api/auth/signup", map[string]string{
		"email": email, "password": password, "full_name": "Dana Giver", "role": "donor",
	}))
}

func (e *env) signIn(t *testing.T, email, password string) *testutil.ResponseRecorder {
	t.Helper()
	return e.do(testutil.JSONRequest(t, "POST", "/api/auth/signin", map[string]string{
		"email": email, "password": password,
	}))
}

func TestSignUp_LeavesCallerSignedOut(t *testing.T) {
	e := newEnv(t, 10)

	rec := e.signUp(t, "Dana@Example.com", "correct-horse")
	rec.AssertStatus(t, http.StatusCreated)
	if sessionCookie(rec) != nil {
		t.Error("sign-up must not create a session")
	}
	if body := rec.Body.String(); strings.Contains(body, "password") {
		t.Errorf("response leaks password fields: %s", body)
	}

	me := e.do(httptest.NewRequest("GET", "/api/auth/me", nil))
	me.AssertStatus(t, http.StatusOK)
	me.AssertContains(t, `"signedIn":false`)
}

func TestSignUp_Validation(t *testing.T) {
	e := newEnv(t, 10)
	e.signUp(t, "dup@example.com", "correct-horse").AssertStatus(t, http.StatusCreated)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"bad email", map[string]string{"email": "nope", "password": "correct-horse", "full_name": "A", "role": "donor"}, 400},
		{"short password", map[string]string{"email": "a@example.com", "password": "abc", "full_name": "A", "role": "donor"}, 400},
		{"common password", map[string]string{"email": "a@example.com", "password": "password", "full_name": "A", "role": "donor"}, 400},
		{"admin role", map[string]string{"email": "a@example.com", "password": "correct-horse", "full_name": "A", "role": "admin"}, 400},
		{"teacher without school", map[string]string{"email": "a@example.com", "password": "correct-horse", "full_name": "A", "role": "teacher"}, 400},
		{"unknown school", map[string]string{"email": "a@example.com", "password": "correct-horse", "full_name": "A", "role": "teacher", "school_id": "64b7f0c2a1b2c3d4e5f60718"}, 400},
		{"duplicate email", map[string]string{"email": "DUP@example.com", "password": "correct-horse", "full_name": "A", "role": "donor"}, 409},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.do(testutil.JSONRequest(t, "POST", "/api/auth/signup", tt.body)).AssertStatus(t, tt.want)
		})
	}
}

func TestSignIn_SessionRoundTrip(t *testing.T) {
	e := newEnv(t, 10)
	e.signUp(t, "dana@example.com", "correct-horse").AssertStatus(t, http.StatusCreated)

	rec := e.signIn(t, "DANA@example.com", "correct-horse")
	rec.AssertStatus(t, http.StatusOK)
	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("expected session cookie to be set")
	}

	me := e.do(httptest.NewRequest("GET", "/api/auth/me", nil), cookie)
	me.AssertContains(t, `"signedIn":true`)
	me.AssertContains(t, `"role":"donor"`)

	out := e.do(httptest.NewRequest("POST", "/api/auth/signout", nil), cookie)
	out.AssertStatus(t, http.StatusOK)
	if c := sessionCookie(out); c == nil || c.MaxAge >= 0 {
		t.Errorf("sign-out should expire the cookie, got %+v", c)
	}
}

func TestSignIn_Refusals(t *testing.T) {
	e := newEnv(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.signUp(t, "dana@example.com", "correct-horse").AssertStatus(t, http.StatusCreated)
	e.signUp(t, "gone@example.com", "correct-horse").AssertStatus(t, http.StatusCreated)
	gone, err := userstore.New(e.db).GetByEmail(ctx, "gone@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if err := userstore.New(e.db).SetStatus(ctx, gone.ID, status.Disabled); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"unknown email", "who@example.com", "correct-horse", 401},
		{"wrong password", "dana@example.com", "wrong-horse", 401},
		{"disabled", "gone@example.com", "correct-horse", 403},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.signIn(t, tt.email, tt.password)
			rec.AssertStatus(t, tt.want)
			if sessionCookie(rec) != nil {
				t.Error("refused sign-in must not set a cookie")
			}
		})
	}

	n, err := e.db.Collection("audit_events").CountDocuments(ctx, map[string]any{"success": false})
	if err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if n != 3 {
		t.Errorf("failed sign-ins audited: got %d, want 3", n)
	}
}

func TestSignIn_RateLimited(t *testing.T) {
	// 4 per IP allows 2 per email.
	e := newEnv(t, 4)
	e.signUp(t, "dana@example.com", "correct-horse").AssertStatus(t, http.StatusCreated)

	e.signIn(t, "dana@example.com", "wrong-horse").AssertStatus(t, http.StatusUnauthorized)
	e.signIn(t, "dana@example.com", "wrong-horse").AssertStatus(t, http.StatusUnauthorized)
	e.signIn(t, "dana@example.com", "correct-horse").AssertStatus(t, http.StatusTooManyRequests)
}

func TestMe_Anonymous(t *testing.T) {
	e := newEnv(t, 10)
	rec := e.do(httptest.NewRequest("GET", "/api/auth/me", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"signedIn":false`)
}
