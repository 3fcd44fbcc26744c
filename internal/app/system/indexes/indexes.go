// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection's index set is reconciled
idempotently and errors are aggregated so startup can fail fast with the
full picture.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, set := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(set.coll), set.models); err != nil {
			problems = append(problems, set.coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type indexSet struct {
	coll   string
	models []mongo.IndexModel
}

func idx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func uniq(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func desired() []indexSet {
	return []indexSet{
		{"users", []mongo.IndexModel{
			uniq("uniq_users_email", bson.D{{Key: "email", Value: 1}}),
			idx("idx_users_role_school", bson.D{{Key: "role", Value: 1}, {Key: "school_id", Value: 1}}),
		}},
		{"schools", []mongo.IndexModel{
			idx("idx_schools_name_ci", bson.D{{Key: "name_ci", Value: 1}}),
			idx("idx_schools_principal", bson.D{{Key: "principal_id", Value: 1}}),
		}},
		{"classes", []mongo.IndexModel{
			idx("idx_classes_school_name", bson.D{{Key: "school_id", Value: 1}, {Key: "name_ci", Value: 1}}),
			idx("idx_classes_teacher", bson.D{{Key: "teacher_id", Value: 1}}),
		}},
		{"students", []mongo.IndexModel{
			uniq("uniq_students_teacher_key", bson.D{{Key: "teacher_id", Value: 1}, {Key: "student_key", Value: 1}}),
			idx("idx_students_class", bson.D{{Key: "class_id", Value: 1}, {Key: "full_name_ci", Value: 1}}),
		}},
		{"published_donations", []mongo.IndexModel{
			idx("idx_pd_status_created", bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_pd_donor_created", bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
		{"allocations", []mongo.IndexModel{
			idx("idx_alloc_donor_status", bson.D{{Key: "donor_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_alloc_principal", bson.D{{Key: "principal_id", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_alloc_class_status", bson.D{{Key: "class_id", Value: 1}, {Key: "status", Value: 1}}),
			idx("idx_alloc_donation_status", bson.D{{Key: "published_donation_id", Value: 1}, {Key: "status", Value: 1}}),
		}},
		{"class_donation_requests", []mongo.IndexModel{
			idx("idx_cdr_donor_created", bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_cdr_principal_created", bson.D{{Key: "principal_id", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
		{"donations", []mongo.IndexModel{
			idx("idx_donations_donor_created", bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_donations_school_status", bson.D{{Key: "school_id", Value: 1}, {Key: "status", Value: 1}}),
		}},
		{"meal_tracking", []mongo.IndexModel{
			uniq("uniq_meal_date_student", bson.D{{Key: "date", Value: 1}, {Key: "student_id", Value: 1}}),
			idx("idx_meal_school_date", bson.D{{Key: "school_id", Value: 1}, {Key: "date", Value: 1}}),
		}},
		{"feedback", []mongo.IndexModel{
			idx("idx_feedback_school_date", bson.D{{Key: "school_id", Value: 1}, {Key: "date", Value: 1}}),
		}},
		{"reports", []mongo.IndexModel{
			idx("idx_reports_school_created", bson.D{{Key: "school_id", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
		{"api_configs", []mongo.IndexModel{
			uniq("uniq_api_configs_name", bson.D{{Key: "name", Value: 1}}),
			idx("idx_api_configs_active_priority", bson.D{{Key: "active", Value: 1}, {Key: "priority", Value: 1}}),
		}},
		{"audit_events", []mongo.IndexModel{
			idx("idx_audit_created", bson.D{{Key: "created_at", Value: -1}}),
			idx("idx_audit_category_created", bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(p *bool) bool { return p != nil && *p }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var ex existingIndex
		if err := cur.Decode(&ex); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(ex.Key)] = ex
	}
	return out, cur.Err()
}

// ensureIndexSet creates missing indexes and recreates ones whose name or
// uniqueness drifted from the desired definition.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A missing namespace lists as an error on some servers; create will fix it.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := *m.Options.Name
		unique := boolOf(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if ex.Name == name && boolOf(ex.Unique) == unique {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", name))
				continue
			}
			zap.L().Info("recreating drifted index",
				zap.String("collection", coll.Name()),
				zap.String("from", ex.Name),
				zap.String("to", name),
				zap.Bool("unique", unique))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index on %s (duplicates present)", coll.Name(), name, sig))
				continue
			}
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		zap.L().Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
