// internal/domain/models/publisheddonation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Published donation statuses.
const (
	DonationAvailable = "available"
	DonationReserved  = "reserved"
	DonationFulfilled = "fulfilled"
)

// Donation categories.
const (
	CategoryFood     = "food"
	CategoryMonetary = "monetary"
	CategorySupplies = "supplies"
	CategoryOther    = "other"
)

// IsValidCategory reports whether c is a known donation category.
func IsValidCategory(c string) bool {
	switch c {
	case CategoryFood, CategoryMonetary, CategorySupplies, CategoryOther:
		return true
	}
	return false
}

// PublishedDonation is a donor's offer with a finite capacity measured in students.
//
// Invariant: 0 <= RemainingStudents <= NumberOfStudents. Status summarizes
// RemainingStudents (0 => reserved, >0 => available) except once fulfilled,
// which is terminal. Only the capacity ledger in the publisheddonations store
// keeps the two in step; a plain Update writes whatever it is given.
type PublishedDonation struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	DonorID           primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	DonorName         string             `bson:"donor_name" json:"donor_name"`
	ItemName          string             `bson:"item_name" json:"item_name"`
	Quantity          float64            `bson:"quantity" json:"quantity"`
	Unit              string             `bson:"unit" json:"unit"`
	Category          string             `bson:"category" json:"category"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	NumberOfStudents  int                `bson:"number_of_students" json:"number_of_students"`
	RemainingStudents int                `bson:"remaining_students" json:"remaining_students"`
	Status            string             `bson:"status" json:"status"`
	ExpiresAt         *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// StatusForRemaining is the summary status for a remaining capacity value.
func StatusForRemaining(remaining int) string {
	if remaining > 0 {
		return DonationAvailable
	}
	return DonationReserved
}
