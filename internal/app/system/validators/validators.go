// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the MealBridge collections when missing and attaches
// JSON-Schema validators. Deployments that reject collMod are logged and
// skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Registries
	ensure("users", usersSchema())
	ensure("schools", schoolsSchema())
	ensure("classes", classesSchema())
	ensure("students", studentsSchema())

	// Pipeline
	ensure("published_donations", publishedDonationsSchema())
	ensure("allocations", allocationsSchema())
	ensure("class_donation_requests", classRequestsSchema())
	ensure("donations", donationsSchema())

	// Tracking and reporting
	ensure("meal_tracking", mealTrackingSchema())
	ensure("feedback", feedbackSchema())
	ensure("reports", nil)
	ensure("api_configs", apiConfigsSchema())
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection reports created==true only when this call made it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func commandMatches(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank   = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	objectID   = bson.M{"bsonType": "objectId"}
	optionalID = bson.M{"bsonType": bson.A{"objectId", "null"}}
	dayString  = bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}
	counter    = bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "full_name", "role", "status", "password_hash"},
			"properties": bson.M{
				"email":         nonBlank,
				"full_name":     nonBlank,
				"password_hash": nonBlank,
				"role":          bson.M{"enum": bson.A{"donor", "principal", "teacher", "admin"}},
				"status":        bson.M{"enum": bson.A{"active", "disabled"}},
				"school_id":     optionalID,
			},
		},
	}
}

func schoolsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "status"},
			"properties": bson.M{
				"name":         nonBlank,
				"name_ci":      nonBlank,
				"status":       bson.M{"enum": bson.A{"active", "disabled"}},
				"principal_id": optionalID,
			},
		},
	}
}

func classesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"school_id", "name", "meal_stock"},
			"properties": bson.M{
				"school_id":     objectID,
				"name":          nonBlank,
				"teacher_id":    optionalID,
				"student_count": counter,
				"meal_stock":    counter,
			},
		},
	}
}

func studentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"teacher_id", "student_key", "full_name"},
			"properties": bson.M{
				"teacher_id":  objectID,
				"class_id":    optionalID,
				"student_key": nonBlank,
				"full_name":   nonBlank,
			},
		},
	}
}

// publishedDonationsSchema pins the ledger bounds: the remaining count never
// goes negative and never exceeds the published number of students.
func publishedDonationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"donor_id", "item_name", "number_of_students", "remaining_students", "status"},
			"properties": bson.M{
				"donor_id":           objectID,
				"item_name":          nonBlank,
				"number_of_students": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
				"remaining_students": counter,
				"status":             bson.M{"enum": bson.A{"available", "reserved", "fulfilled"}},
				"category":           bson.M{"enum": bson.A{"food", "monetary", "supplies", "other"}},
			},
		},
		"$expr": bson.M{"$lte": bson.A{"$remaining_students", "$number_of_students"}},
	}
}

func allocationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"flow", "published_donation_id", "class_id", "number_of_students", "capacity_held", "status"},
			"properties": bson.M{
				"flow":                  bson.M{"enum": bson.A{"request", "assignment"}},
				"published_donation_id": objectID,
				"class_id":              objectID,
				"number_of_students":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
				"capacity_held":         counter,
				"status":                bson.M{"enum": bson.A{"pending", "approved", "dispatched", "claimed", "served", "rejected"}},
			},
		},
	}
}

func classRequestsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"principal_id", "donor_id", "class_id", "kind", "status"},
			"properties": bson.M{
				"principal_id": objectID,
				"donor_id":     objectID,
				"class_id":     objectID,
				"kind":         bson.M{"enum": bson.A{"money", "goods"}},
				"status":       bson.M{"enum": bson.A{"pending", "approved", "rejected"}},
			},
		},
	}
}

func donationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"donor_id", "category", "status"},
			"properties": bson.M{
				"donor_id": objectID,
				"category": bson.M{"enum": bson.A{"food", "monetary", "supplies", "other"}},
				"status":   bson.M{"enum": bson.A{"pledged", "received", "cancelled"}},
			},
		},
	}
}

func mealTrackingSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"date", "student_id", "served"},
			"properties": bson.M{
				"date":       dayString,
				"student_id": objectID,
				"served":     bson.M{"bsonType": "bool"},
			},
		},
	}
}

func feedbackSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"date", "teacher_id", "rating"},
			"properties": bson.M{
				"date":       dayString,
				"teacher_id": objectID,
				"rating":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": 5},
			},
		},
	}
}

func apiConfigsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "sealed_key", "priority", "active"},
			"properties": bson.M{
				"name":       nonBlank,
				"sealed_key": nonBlank,
				"priority":   bson.M{"bsonType": bson.A{"int", "long"}},
				"active":     bson.M{"bsonType": "bool"},
			},
		},
	}
}
