// internal/domain/models/report.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report is a generated summary of one school's activity over a date range.
// A report is always stored, even when the AI summary could not be produced.
type Report struct {
	ID                 primitive.ObjectID  `bson:"_id" json:"id"`
	SchoolID           primitive.ObjectID  `bson:"school_id" json:"school_id"`
	SchoolName         string              `bson:"school_name" json:"school_name"`
	PeriodStart        string              `bson:"period_start" json:"period_start"`
	PeriodEnd          string              `bson:"period_end" json:"period_end"`
	MealsServed        int64               `bson:"meals_served" json:"meals_served"`
	DonationsReceived  int64               `bson:"donations_received" json:"donations_received"`
	AllocationsClaimed int64               `bson:"allocations_claimed" json:"allocations_claimed"`
	FeedbackCount      int                 `bson:"feedback_count" json:"feedback_count"`
	AverageRating      float64             `bson:"average_rating" json:"average_rating"`
	FeedbackSummary    string              `bson:"feedback_summary" json:"feedback_summary"`
	AIAvailable        bool                `bson:"ai_available" json:"ai_available"`
	AIModel            string              `bson:"ai_model,omitempty" json:"ai_model,omitempty"`
	PDFURL             string              `bson:"pdf_url,omitempty" json:"pdf_url,omitempty"`
	GeneratedBy        *primitive.ObjectID `bson:"generated_by,omitempty" json:"generated_by,omitempty"`
	CreatedAt          time.Time           `bson:"created_at" json:"created_at"`
}
