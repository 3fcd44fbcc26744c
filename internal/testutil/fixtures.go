package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures inserts test records directly, bypassing stores and services.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database { return f.db }

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateUser inserts an active user. schoolID may be nil.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, schoolID *primitive.ObjectID) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		PasswordHash: "$2a$10$fixturefixturefixturefixturefixturefixturefixturefixtu",
		Role:         role,
		Status:       "active",
		SchoolID:     schoolID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

func emailFor(name, role string) string {
	return strings.Join(strings.Fields(text.Fold(name)), ".") + "@" + role + ".test"
}

func (f *Fixtures) CreateDonor(ctx context.Context, name string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, emailFor(name, "donor"), models.RoleDonor, nil)
}

func (f *Fixtures) CreatePrincipal(ctx context.Context, name string, schoolID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, emailFor(name, "principal"), models.RolePrincipal, &schoolID)
}

func (f *Fixtures) CreateTeacher(ctx context.Context, name string, schoolID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, emailFor(name, "teacher"), models.RoleTeacher, &schoolID)
}

func (f *Fixtures) CreateSchool(ctx context.Context, name string) models.School {
	f.t.Helper()
	now := time.Now().UTC()
	s := models.School{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Address:   "1 Test Road",
		City:      "Testville",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "schools", s)
	return s
}

// CreateClass inserts a class in schoolID. teacher may be nil.
func (f *Fixtures) CreateClass(ctx context.Context, name string, schoolID primitive.ObjectID, teacher *models.User) models.Class {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Class{
		ID:        primitive.NewObjectID(),
		SchoolID:  schoolID,
		Name:      name,
		NameCI:    text.Fold(name),
		Grade:     "4",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if teacher != nil {
		c.TeacherID = &teacher.ID
		c.TeacherName = teacher.FullName
	}
	f.insert(ctx, "classes", c)
	return c
}

func (f *Fixtures) CreateStudent(ctx context.Context, name, key string, class models.Class) models.Student {
	f.t.Helper()
	now := time.Now().UTC()
	s := models.Student{
		ID:         primitive.NewObjectID(),
		ClassID:    class.ID,
		SchoolID:   class.SchoolID,
		StudentKey: key,
		FullName:   name,
		FullNameCI: text.Fold(name),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if class.TeacherID != nil {
		s.TeacherID = *class.TeacherID
	}
	f.insert(ctx, "students", s)
	return s
}

// CreatePublishedDonation inserts an available food donation with the given
// total and remaining capacity.
func (f *Fixtures) CreatePublishedDonation(ctx context.Context, donor models.User, item string, total, remaining int) models.PublishedDonation {
	f.t.Helper()
	now := time.Now().UTC()
	pd := models.PublishedDonation{
		ID:                primitive.NewObjectID(),
		DonorID:           donor.ID,
		DonorName:         donor.FullName,
		ItemName:          item,
		Quantity:          float64(total),
		Unit:              "meals",
		Category:          models.CategoryFood,
		NumberOfStudents:  total,
		RemainingStudents: remaining,
		Status:            models.StatusForRemaining(remaining),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	f.insert(ctx, "published_donations", pd)
	return pd
}

// ActorOf is the authz view of u, as a handler would see it once signed in.
func ActorOf(u models.User) authz.Actor {
	a := authz.Actor{ID: u.ID, Name: u.FullName, Email: u.Email, Role: u.Role}
	if u.SchoolID != nil {
		a.SchoolID = *u.SchoolID
	}
	return a
}
