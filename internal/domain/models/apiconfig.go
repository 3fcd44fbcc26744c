// internal/domain/models/apiconfig.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// APIConfig is one credential for the external chat-completion endpoint.
// SealedKey is the encrypted bearer key and never leaves the server.
// Lower Priority values are tried first.
type APIConfig struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Provider     string             `bson:"provider" json:"provider"`
	SealedKey    string             `bson:"sealed_key" json:"-"`
	Model        string             `bson:"model" json:"model"`
	Priority     int                `bson:"priority" json:"priority"`
	Active       bool               `bson:"active" json:"active"`
	LastUsed     *time.Time         `bson:"last_used,omitempty" json:"last_used,omitempty"`
	FailureCount int                `bson:"failure_count" json:"failure_count"`
	LastError    string             `bson:"last_error,omitempty" json:"last_error,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
