// internal/domain/models/classrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Class donation request kinds and statuses.
const (
	RequestKindMoney = "money"
	RequestKindGoods = "goods"

	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// ClassDonationRequest is a principal asking one donor for money or goods for a
// class. It has no link to any published donation's capacity.
type ClassDonationRequest struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	PrincipalID   primitive.ObjectID `bson:"principal_id" json:"principal_id"`
	PrincipalName string             `bson:"principal_name" json:"principal_name"`
	DonorID       primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	SchoolID      primitive.ObjectID `bson:"school_id" json:"school_id"`
	ClassID       primitive.ObjectID `bson:"class_id" json:"class_id"`
	ClassName     string             `bson:"class_name" json:"class_name"`
	Kind          string             `bson:"kind" json:"kind"`
	Amount        float64            `bson:"amount,omitempty" json:"amount,omitempty"`
	Items         string             `bson:"items,omitempty" json:"items,omitempty"`
	Message       string             `bson:"message,omitempty" json:"message,omitempty"`
	Status        string             `bson:"status" json:"status"`
	ResponseNote  string             `bson:"response_note,omitempty" json:"response_note,omitempty"`
	RespondedAt   *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
