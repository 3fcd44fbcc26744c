// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth     = "auth"
	CategoryPipeline = "pipeline"
	CategoryAdmin    = "admin"
)

// Auth event types
const (
	EventSignUp                    = "sign_up"
	EventSignInSuccess             = "sign_in_success"
	EventSignInFailedUserNotFound  = "sign_in_failed_user_not_found"
	EventSignInFailedWrongPassword = "sign_in_failed_wrong_password"
	EventSignInFailedUserDisabled  = "sign_in_failed_user_disabled"
	EventSignInFailedRateLimit     = "sign_in_failed_rate_limit"
	EventSignOut                   = "sign_out"
)

// Pipeline event types
const (
	EventDonationPublished   = "donation_published"
	EventDonationUpdated     = "donation_updated"
	EventDonationDeleted     = "donation_deleted"
	EventAllocationCreated   = "allocation_created"
	EventAllocationChanged   = "allocation_status_changed"
	EventAllocationArchived  = "allocation_archived"
	EventClassRequestCreated = "class_request_created"
	EventClassRequestAnswer  = "class_request_answered"
	EventCapacityReconciled  = "capacity_reconciled"
)

// Admin event types
const (
	EventSchoolCreated    = "school_created"
	EventSchoolDeleted    = "school_deleted"
	EventAPIConfigChanged = "api_config_changed"
	EventReportGenerated  = "report_generated"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who did it and to what.
	ActorID     *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	SubjectType string              `bson:"subject_type,omitempty" json:"subject_type,omitempty"`
	SubjectID   *primitive.ObjectID `bson:"subject_id,omitempty" json:"subject_id,omitempty"`
	SchoolID    *primitive.ObjectID `bson:"school_id,omitempty" json:"school_id,omitempty"`

	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query. Zero fields are ignored.
type QueryFilter struct {
	ActorID   *primitive.ObjectID
	SubjectID *primitive.ObjectID
	SchoolID  *primitive.ObjectID
	Category  string
	EventType string
	Since     *time.Time
	Until     *time.Time
	Limit     int64
	Offset    int64
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log inserts event, filling ID and CreatedAt when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.ActorID != nil {
		q["actor_id"] = *f.ActorID
	}
	if f.SubjectID != nil {
		q["subject_id"] = *f.SubjectID
	}
	if f.SchoolID != nil {
		q["school_id"] = *f.SchoolID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.Since != nil || f.Until != nil {
		tr := bson.M{}
		if f.Since != nil {
			tr["$gte"] = *f.Since
		}
		if f.Until != nil {
			tr["$lte"] = *f.Until
		}
		q["created_at"] = tr
	}
	return q
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// ForSubject lists the history of one record.
func (s *Store) ForSubject(ctx context.Context, subjectID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{SubjectID: &subjectID, Limit: limit})
}

// FailedSignIns lists failed sign-in attempts since the given time.
func (s *Store) FailedSignIns(ctx context.Context, since time.Time, limit int64) ([]Event, error) {
	q := bson.M{
		"category":   CategoryAuth,
		"success":    false,
		"created_at": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
