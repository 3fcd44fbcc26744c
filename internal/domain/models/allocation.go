// internal/domain/models/allocation.go
package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Allocation flows. Both are the same record; the flow only decides when
// capacity is taken and which status words the client sees.
const (
	// FlowRequest: principal asks, donor approves (capacity taken at approval,
	// clamped), teacher claims.
	FlowRequest = "request"
	// FlowAssignment: principal assigns directly (capacity taken at creation,
	// strict), donor accepts and dispatches, teacher claims and serves.
	FlowAssignment = "assignment"
)

// Canonical allocation states.
const (
	AllocPending    = "pending"
	AllocApproved   = "approved"
	AllocDispatched = "dispatched"
	AllocClaimed    = "claimed"
	AllocServed     = "served"
	AllocRejected   = "rejected"
)

var transitions = map[string][]string{
	AllocPending:    {AllocApproved, AllocRejected},
	AllocApproved:   {AllocDispatched, AllocClaimed},
	AllocDispatched: {AllocClaimed},
	AllocClaimed:    {AllocServed},
}

// CanTransition reports whether an allocation may move from one state to another.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SourcesFor returns every state that may move to the given state.
func SourcesFor(to string) []string {
	var out []string
	for from, tos := range transitions {
		for _, s := range tos {
			if s == to {
				out = append(out, from)
			}
		}
	}
	return out
}

// IsOpen reports whether the state still ties up the published donation.
func IsOpen(status string) bool {
	switch status {
	case AllocPending, AllocApproved, AllocDispatched:
		return true
	}
	return false
}

// OpenStatuses lists the states for which IsOpen is true.
var OpenStatuses = []string{AllocPending, AllocApproved, AllocDispatched}

// Allocation is one class's claim against a PublishedDonation.
//
// CapacityHeld is the number of places this allocation has actually taken from
// the published donation. Releasing it gives back exactly that amount.
type Allocation struct {
	ID                  primitive.ObjectID `bson:"_id" json:"id"`
	Flow                string             `bson:"flow" json:"flow"`
	PublishedDonationID primitive.ObjectID `bson:"published_donation_id" json:"published_donation_id"`
	ItemName            string             `bson:"item_name" json:"item_name"`
	DonorID             primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	DonorName           string             `bson:"donor_name" json:"donor_name"`
	PrincipalID         primitive.ObjectID `bson:"principal_id" json:"principal_id"`
	SchoolID            primitive.ObjectID `bson:"school_id" json:"school_id"`
	SchoolName          string             `bson:"school_name" json:"school_name"`
	ClassID             primitive.ObjectID `bson:"class_id" json:"class_id"`
	ClassName           string             `bson:"class_name" json:"class_name"`
	NumberOfStudents    int                `bson:"number_of_students" json:"number_of_students"`
	CapacityHeld        int                `bson:"capacity_held" json:"capacity_held"`
	Status              string             `bson:"status" json:"-"`

	TeacherID   *primitive.ObjectID `bson:"teacher_id,omitempty" json:"teacher_id,omitempty"`
	TeacherName string              `bson:"teacher_name,omitempty" json:"teacher_name,omitempty"`

	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
	ApprovedAt   *time.Time `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	DispatchedAt *time.Time `bson:"dispatched_at,omitempty" json:"dispatched_at,omitempty"`
	CompletedAt  *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	ServedAt     *time.Time `bson:"served_at,omitempty" json:"served_at,omitempty"`
	RejectedAt   *time.Time `bson:"rejected_at,omitempty" json:"rejected_at,omitempty"`
	ArchivedAt   *time.Time `bson:"archived_at,omitempty" json:"archived_at,omitempty"`
}

// DisplayStatus maps the canonical state to the word each flow's clients use.
func (a Allocation) DisplayStatus() string {
	switch a.Flow {
	case FlowAssignment:
		if a.Status == AllocApproved {
			return "accepted"
		}
	case FlowRequest:
		if a.Status == AllocClaimed {
			return "completed"
		}
	}
	return a.Status
}

// CanonicalStatus maps a flow's display word back to the stored state.
// Unknown words pass through unchanged.
func CanonicalStatus(flow, display string) string {
	switch {
	case flow == FlowAssignment && display == "accepted":
		return AllocApproved
	case flow == FlowRequest && display == "completed":
		return AllocClaimed
	}
	return display
}

// MarshalJSON adds both the flow-specific status and the canonical state.
func (a Allocation) MarshalJSON() ([]byte, error) {
	type plain Allocation
	return json.Marshal(struct {
		plain
		Status string `json:"status"`
		State  string `json:"state"`
	}{plain: plain(a), Status: a.DisplayStatus(), State: a.Status})
}
