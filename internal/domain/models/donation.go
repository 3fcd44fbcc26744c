// internal/domain/models/donation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation history statuses.
const (
	GiftPledged   = "pledged"
	GiftReceived  = "received"
	GiftCancelled = "cancelled"
)

// Donation is an entry in a donor's giving history, optionally directed at a school.
type Donation struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	DonorID     primitive.ObjectID  `bson:"donor_id" json:"donor_id"`
	DonorName   string              `bson:"donor_name" json:"donor_name"`
	SchoolID    *primitive.ObjectID `bson:"school_id,omitempty" json:"school_id,omitempty"`
	Category    string              `bson:"category" json:"category"`
	ItemName    string              `bson:"item_name,omitempty" json:"item_name,omitempty"`
	Quantity    float64             `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Amount      float64             `bson:"amount,omitempty" json:"amount,omitempty"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Status      string              `bson:"status" json:"status"`
	ReceivedAt  *time.Time          `bson:"received_at,omitempty" json:"received_at,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}
