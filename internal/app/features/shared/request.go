// internal/app/features/shared/request.go
//
// Package shared holds the request plumbing every JSON feature uses: the
// signed-in actor, object IDs from the path and query, and day ranges.
package shared

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/inputval"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor returns the signed-in actor or answers 401.
func Actor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	a, ok := authz.UserCtx(r)
	if !ok {
		apierr.Write(w, http.StatusUnauthorized, "Sign in required.")
		return authz.Actor{}, false
	}
	return a, true
}

// PathID parses the chi URL parameter key as an ObjectID or answers 400.
func PathID(w http.ResponseWriter, r *http.Request, key string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		apierr.Write(w, http.StatusBadRequest, "Invalid "+key+".")
		return primitive.NilObjectID, false
	}
	return id, true
}

// QueryID parses an optional ObjectID query parameter. An absent or empty
// parameter yields nil.
func QueryID(r *http.Request, key string) (*primitive.ObjectID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apierr.Invalid("Invalid %s.", key)
	}
	return &id, nil
}

// Statuses splits a comma-separated status query parameter, mapping each
// flow's display words to stored allocation states.
func Statuses(r *http.Request, flow string) []string {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, models.CanonicalStatus(flow, s))
		}
	}
	return out
}

// DayRange reads from and to (YYYY-MM-DD). to defaults to from.
func DayRange(r *http.Request) (string, string, error) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if to == "" {
		to = from
	}
	if !inputval.IsValidDate(from) || !inputval.IsValidDate(to) {
		return "", "", apierr.Invalid("from and to must be dates (YYYY-MM-DD).")
	}
	if to < from {
		return "", "", apierr.Invalid("to must not be before from.")
	}
	return from, to, nil
}

// Decode reads a JSON body and runs its validate tags.
func Decode(r *http.Request, dst any) error {
	if err := apierr.Decode(r, dst); err != nil {
		return err
	}
	if res := inputval.Validate(dst); res.HasErrors() {
		return apierr.Invalid("%s", res.First())
	}
	return nil
}
