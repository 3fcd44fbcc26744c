// internal/app/store/allocations/store.go
package allocationstore

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

// ErrStatusChanged is returned when a conditional transition finds the record
// in a different status than expected, or archived.
var ErrStatusChanged = apierr.Conflict("allocation is no longer in the expected status")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("allocations")}
}

func (s *Store) Create(ctx context.Context, a models.Allocation) (models.Allocation, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	if a.Status == "" {
		a.Status = models.AllocPending
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Allocation{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Allocation, error) {
	var a models.Allocation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Allocation{}, err
	}
	return a, nil
}

// Transition moves a non-archived allocation from one of the given statuses to
// `to`, writing the extra fields in set with it. The write only matches while
// the record is still in one of from, so a transition cannot run twice.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, from []string, to string, set bson.M) (models.Allocation, error) {
	fields := bson.M{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range set {
		fields[k] = v
	}
	filter := bson.M{
		"_id":         id,
		"status":      bson.M{"$in": from},
		"archived_at": bson.M{"$exists": false},
	}

	var out models.Allocation
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return models.Allocation{}, gerr
		}
		return models.Allocation{}, ErrStatusChanged
	}
	if err != nil {
		return models.Allocation{}, err
	}
	return out, nil
}

// Revert puts an allocation back into `from` after a failed follow-up write,
// clearing the fields in unset. It only matches while the status is still `to`.
func (s *Store) Revert(ctx context.Context, id primitive.ObjectID, to, from string, unset ...string) error {
	return s.RevertRestoring(ctx, id, to, from, nil, unset...)
}

// RevertRestoring is Revert that also writes back the prior values in restore.
// A field must not appear in both restore and unset.
func (s *Store) RevertRestoring(ctx context.Context, id primitive.ObjectID, to, from string, restore bson.M, unset ...string) error {
	set := bson.M{"status": from, "updated_at": time.Now().UTC()}
	for k, v := range restore {
		set[k] = v
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		u := bson.M{}
		for _, f := range unset {
			u[f] = ""
		}
		update["$unset"] = u
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": to}, update)
	return err
}

// Archive soft-deletes an allocation. Archived records drop out of every pool.
func (s *Store) Archive(ctx context.Context, id primitive.ObjectID) (models.Allocation, error) {
	now := time.Now().UTC()
	var out models.Allocation
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "archived_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"archived_at": now, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return models.Allocation{}, err
	}
	return out, nil
}

// Filter narrows List. Zero fields are ignored. ClassIDs only applies when
// ClassID is nil.
type Filter struct {
	Flow                string
	DonorID             *primitive.ObjectID
	PrincipalID         *primitive.ObjectID
	SchoolID            *primitive.ObjectID
	ClassID             *primitive.ObjectID
	PublishedDonationID *primitive.ObjectID
	ClassIDs            []primitive.ObjectID
	Statuses            []string
	IncludeArchived     bool
}

func (f Filter) bson() bson.M {
	m := bson.M{}
	if f.Flow != "" {
		m["flow"] = f.Flow
	}
	ids := map[string]*primitive.ObjectID{
		"donor_id":              f.DonorID,
		"principal_id":          f.PrincipalID,
		"school_id":             f.SchoolID,
		"class_id":              f.ClassID,
		"published_donation_id": f.PublishedDonationID,
	}
	for k, v := range ids {
		if v != nil {
			m[k] = *v
		}
	}
	if f.ClassID == nil && len(f.ClassIDs) > 0 {
		m["class_id"] = bson.M{"$in": f.ClassIDs}
	}
	if len(f.Statuses) > 0 {
		m["status"] = bson.M{"$in": f.Statuses}
	}
	if !f.IncludeArchived {
		m["archived_at"] = bson.M{"$exists": false}
	}
	return m
}

// List returns allocations matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Allocation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, f.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Allocation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingPool is what a donor still has to answer.
func (s *Store) PendingPool(ctx context.Context, donorID primitive.ObjectID) ([]models.Allocation, error) {
	return s.List(ctx, Filter{DonorID: &donorID, Statuses: []string{models.AllocPending}})
}

// ApprovedPool is what a class's teacher can claim.
func (s *Store) ApprovedPool(ctx context.Context, classID primitive.ObjectID) ([]models.Allocation, error) {
	return s.List(ctx, Filter{ClassID: &classID, Statuses: []string{models.AllocApproved, models.AllocDispatched}})
}

// CountOpen counts non-archived allocations still tying up a published donation.
func (s *Store) CountOpen(ctx context.Context, publishedDonationID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, Filter{
		PublishedDonationID: &publishedDonationID,
		Statuses:            models.OpenStatuses,
	}.bson())
}

// CountClaimed counts allocations for a school claimed within [from, to).
func (s *Store) CountClaimed(ctx context.Context, schoolID primitive.ObjectID, from, to time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"school_id":    schoolID,
		"status":       bson.M{"$in": bson.A{models.AllocClaimed, models.AllocServed}},
		"completed_at": bson.M{"$gte": from, "$lt": to},
	})
}
