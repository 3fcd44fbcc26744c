// internal/app/store/publisheddonations/store.go
package publisheddonationstore

import (
	"context"
	"errors"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInsufficientCapacity is returned by a strict Reserve that asks for more
// places than remain.
var ErrInsufficientCapacity = apierr.Conflict("not enough remaining capacity on this donation")

// ReserveMode decides what Reserve does when fewer places remain than requested.
type ReserveMode int

const (
	// Strict takes exactly n places or nothing.
	Strict ReserveMode = iota
	// Clamp takes min(n, remaining) places.
	Clamp
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("published_donations")}
}

func (s *Store) Create(ctx context.Context, pd models.PublishedDonation) (models.PublishedDonation, error) {
	now := time.Now().UTC()
	pd.ID = primitive.NewObjectID()
	if pd.Status == "" {
		pd.Status = models.DonationAvailable
	}
	pd.CreatedAt = now
	pd.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, pd); err != nil {
		return models.PublishedDonation{}, err
	}
	return pd, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.PublishedDonation, error) {
	var pd models.PublishedDonation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&pd); err != nil {
		return models.PublishedDonation{}, err
	}
	return pd, nil
}

// Patch lists the fields an update may set. Nil fields are left alone.
type Patch struct {
	ItemName          *string
	Quantity          *float64
	Unit              *string
	Category          *string
	Description       *string
	NumberOfStudents  *int
	RemainingStudents *int
	Status            *string
	ExpiresAt         *time.Time
}

func (p Patch) set() bson.M {
	set := bson.M{}
	put := func(key string, ok bool, v any) {
		if ok {
			set[key] = v
		}
	}
	put("item_name", p.ItemName != nil, deref(p.ItemName))
	put("quantity", p.Quantity != nil, deref(p.Quantity))
	put("unit", p.Unit != nil, deref(p.Unit))
	put("category", p.Category != nil, deref(p.Category))
	put("description", p.Description != nil, deref(p.Description))
	put("number_of_students", p.NumberOfStudents != nil, deref(p.NumberOfStudents))
	put("remaining_students", p.RemainingStudents != nil, deref(p.RemainingStudents))
	put("status", p.Status != nil, deref(p.Status))
	put("expires_at", p.ExpiresAt != nil, deref(p.ExpiresAt))
	return set
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Update writes the supplied fields as given and returns the stored record.
// It does not derive status from remaining_students.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.PublishedDonation, error) {
	set := p.set()
	set["updated_at"] = time.Now().UTC()

	var out models.PublishedDonation
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.PublishedDonation{}, err
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.PublishedDonation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PublishedDonation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAvailable returns every record whose status is available, newest first.
// remaining_students is not consulted.
func (s *Store) ListAvailable(ctx context.Context) ([]models.PublishedDonation, error) {
	return s.find(ctx, bson.M{"status": models.DonationAvailable})
}

func (s *Store) ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.PublishedDonation, error) {
	return s.find(ctx, bson.M{"donor_id": donorID})
}

// Delete removes a record. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// statusExpr recomputes status from remaining_students inside an update
// pipeline. A fulfilled record keeps its status.
var statusExpr = bson.M{"$cond": bson.A{
	bson.M{"$eq": bson.A{"$status", models.DonationFulfilled}},
	models.DonationFulfilled,
	bson.M{"$cond": bson.A{
		bson.M{"$gt": bson.A{"$remaining_students", 0}},
		models.DonationAvailable,
		models.DonationReserved,
	}},
}}

func summarize(pd *models.PublishedDonation) {
	if pd.Status != models.DonationFulfilled {
		pd.Status = models.StatusForRemaining(pd.RemainingStudents)
	}
}

// ReserveResult reports a completed reservation.
type ReserveResult struct {
	Taken    int
	Donation models.PublishedDonation // state after the reservation
}

// Reserve takes up to n places from a donation in one atomic update and
// recomputes status. remaining_students never goes below zero.
//
// In Strict mode the update only matches when at least n places remain;
// otherwise ErrInsufficientCapacity is returned and nothing changes. In Clamp
// mode min(n, remaining) places are taken, which may be zero.
func (s *Store) Reserve(ctx context.Context, id primitive.ObjectID, n int, mode ReserveMode) (ReserveResult, error) {
	if n < 0 {
		return ReserveResult{}, apierr.Invalid("Number of students must be 0 or more.")
	}
	now := time.Now().UTC()

	filter := bson.M{"_id": id}
	newRemaining := any(bson.M{"$subtract": bson.A{"$remaining_students", n}})
	if mode == Strict {
		filter["remaining_students"] = bson.M{"$gte": n}
		filter["status"] = bson.M{"$ne": models.DonationFulfilled}
	} else {
		newRemaining = bson.M{"$max": bson.A{0, newRemaining}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"remaining_students": newRemaining, "updated_at": now}}},
		{{Key: "$set", Value: bson.M{"status": statusExpr}}},
	}

	var before models.PublishedDonation
	err := s.c.FindOneAndUpdate(ctx, filter, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) && mode == Strict {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return ReserveResult{}, gerr
		}
		return ReserveResult{}, ErrInsufficientCapacity
	}
	if err != nil {
		return ReserveResult{}, err
	}

	taken := n
	if taken > before.RemainingStudents {
		taken = max(before.RemainingStudents, 0)
	}
	after := before
	after.RemainingStudents = max(before.RemainingStudents-n, 0)
	after.UpdatedAt = now
	summarize(&after)
	return ReserveResult{Taken: taken, Donation: after}, nil
}

// Release gives n places back to a donation, capped at number_of_students,
// and recomputes status. It is the inverse of a Reserve that took n.
func (s *Store) Release(ctx context.Context, id primitive.ObjectID, n int) (models.PublishedDonation, error) {
	if n < 0 {
		return models.PublishedDonation{}, apierr.Invalid("Number of students must be 0 or more.")
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"remaining_students": bson.M{"$min": bson.A{
				"$number_of_students",
				bson.M{"$add": bson.A{"$remaining_students", n}},
			}},
			"updated_at": time.Now().UTC(),
		}}},
		{{Key: "$set", Value: bson.M{"status": statusExpr}}},
	}

	var out models.PublishedDonation
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.PublishedDonation{}, err
	}
	return out, nil
}

// MarkFulfilled sets status fulfilled when no places remain. It reports
// whether the record changed.
func (s *Store) MarkFulfilled(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"_id":                id,
		"remaining_students": bson.M{"$lte": 0},
		"status":             bson.M{"$ne": models.DonationFulfilled},
	}, bson.M{"$set": bson.M{"status": models.DonationFulfilled, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// staleFilter matches records whose status disagrees with remaining_students.
var staleFilter = bson.M{"$or": bson.A{
	bson.M{"status": models.DonationAvailable, "remaining_students": bson.M{"$lte": 0}},
	bson.M{"status": models.DonationReserved, "remaining_students": bson.M{"$gt": 0}},
}}

// ListStale returns records whose status disagrees with remaining_students.
// Fulfilled records are never stale.
func (s *Store) ListStale(ctx context.Context) ([]models.PublishedDonation, error) {
	return s.find(ctx, staleFilter)
}

// Reconcile rewrites the status of every stale record and returns how many
// were changed.
func (s *Store) Reconcile(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"status": statusExpr, "updated_at": time.Now().UTC()}}},
	}
	res, err := s.c.UpdateMany(ctx, staleFilter, pipeline)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

type DocumentKey struct {
	ID primitive.ObjectID `bson:"_id"`
}

// ChangeEvent is one change-stream notification. Document is nil for deletes.
type ChangeEvent struct {
	Op       string                    `bson:"operationType"`
	Key      DocumentKey               `bson:"documentKey"`
	Document *models.PublishedDonation `bson:"fullDocument"`
}

// Watch opens a change stream over inserts, updates, replaces and deletes.
// Updates carry the current document. The caller closes the stream.
func (s *Store) Watch(ctx context.Context) (*mongo.ChangeStream, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}}}}},
	}
	return s.c.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
}

// IsChangeStreamUnsupported reports whether err means the deployment is a
// standalone server without change streams.
func IsChangeStreamUnsupported(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && (se.HasErrorCode(40573) || se.HasErrorCode(40324))
}
