package fulfillment

import (
	"context"
	"strings"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/policy/pipelinepolicy"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	publisheddonationstore "github.com/mealbridge/mealbridge/internal/app/store/publisheddonations"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/htmlsanitize"
	"github.com/mealbridge/mealbridge/internal/app/system/normalize"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DonationInput is what a donor publishes. RemainingStudents defaults to
// NumberOfStudents when nil.
type DonationInput struct {
	ItemName          string
	Quantity          float64
	Unit              string
	Category          string
	Description       string
	NumberOfStudents  int
	RemainingStudents *int
	ExpiresAt         *time.Time
}

// CreatePublishedDonation publishes a new available donation for donor.
func (s *Service) CreatePublishedDonation(ctx context.Context, donor authz.Actor, in DonationInput) (models.PublishedDonation, error) {
	if !donor.IsDonor() && !donor.IsAdmin() {
		return models.PublishedDonation{}, ErrForbidden
	}
	in.ItemName = normalize.Name(in.ItemName)
	in.Category = normalize.Category(in.Category)
	remaining := in.NumberOfStudents
	if in.RemainingStudents != nil {
		remaining = *in.RemainingStudents
	}

	switch {
	case in.ItemName == "":
		return models.PublishedDonation{}, apierr.Invalid("Item name is required.")
	case in.NumberOfStudents < 1:
		return models.PublishedDonation{}, apierr.Invalid("Number of students must be 1 or more.")
	case remaining < 0 || remaining > in.NumberOfStudents:
		return models.PublishedDonation{}, apierr.Invalid("Remaining students must be between 0 and the number of students.")
	case in.Quantity < 0:
		return models.PublishedDonation{}, apierr.Invalid("Quantity must be 0 or more.")
	case !models.IsValidCategory(in.Category):
		return models.PublishedDonation{}, apierr.Invalid("Category must be food, monetary, supplies, or other.")
	}

	pd, err := s.donations.Create(ctx, models.PublishedDonation{
		DonorID:           donor.ID,
		DonorName:         donor.Name,
		ItemName:          in.ItemName,
		Quantity:          in.Quantity,
		Unit:              strings.TrimSpace(in.Unit),
		Category:          in.Category,
		Description:       htmlsanitize.StripAll(in.Description),
		NumberOfStudents:  in.NumberOfStudents,
		RemainingStudents: remaining,
		Status:            models.DonationAvailable,
		ExpiresAt:         in.ExpiresAt,
	})
	if err != nil {
		return models.PublishedDonation{}, err
	}
	s.audit.Pipeline(ctx, audit.EventDonationPublished, &donor.ID, "published_donation", pd.ID, nil, map[string]string{
		"item":     pd.ItemName,
		"students": itoa(pd.NumberOfStudents),
	})
	return pd, nil
}

// DonationPatch is a partial update. Nil fields are left alone.
type DonationPatch = publisheddonationstore.Patch

// UpdatePublishedDonation writes the supplied fields as given. The fields are
// checked against each other and the stored record, but status is not derived.
func (s *Service) UpdatePublishedDonation(ctx context.Context, actor authz.Actor, id primitive.ObjectID, p DonationPatch) (models.PublishedDonation, error) {
	cur, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return models.PublishedDonation{}, notFound("Published donation", err)
	}
	if !pipelinepolicy.CanManageDonation(actor, cur) {
		return models.PublishedDonation{}, ErrForbidden
	}

	if p.ItemName != nil {
		name := normalize.Name(*p.ItemName)
		if name == "" {
			return models.PublishedDonation{}, apierr.Invalid("Item name is required.")
		}
		p.ItemName = &name
	}
	if p.Category != nil {
		c := normalize.Category(*p.Category)
		if !models.IsValidCategory(c) {
			return models.PublishedDonation{}, apierr.Invalid("Category must be food, monetary, supplies, or other.")
		}
		p.Category = &c
	}
	if p.Status != nil {
		st := normalize.Status(*p.Status)
		switch st {
		case models.DonationAvailable, models.DonationReserved, models.DonationFulfilled:
		default:
			return models.PublishedDonation{}, apierr.Invalid("Status must be available, reserved, or fulfilled.")
		}
		p.Status = &st
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return models.PublishedDonation{}, apierr.Invalid("Quantity must be 0 or more.")
	}
	if p.Description != nil {
		d := htmlsanitize.StripAll(*p.Description)
		p.Description = &d
	}

	total, remaining := cur.NumberOfStudents, cur.RemainingStudents
	if p.NumberOfStudents != nil {
		total = *p.NumberOfStudents
	}
	if p.RemainingStudents != nil {
		remaining = *p.RemainingStudents
	}
	if total < 1 {
		return models.PublishedDonation{}, apierr.Invalid("Number of students must be 1 or more.")
	}
	if remaining < 0 || remaining > total {
		return models.PublishedDonation{}, apierr.Invalid("Remaining students must be between 0 and the number of students.")
	}

	pd, err := s.donations.Update(ctx, id, p)
	if err != nil {
		return models.PublishedDonation{}, notFound("Published donation", err)
	}
	s.audit.Pipeline(ctx, audit.EventDonationUpdated, &actor.ID, "published_donation", pd.ID, nil, nil)
	return pd, nil
}

func (s *Service) GetPublishedDonation(ctx context.Context, id primitive.ObjectID) (models.PublishedDonation, error) {
	pd, err := s.donations.GetByID(ctx, id)
	return pd, notFound("Published donation", err)
}

// GetAvailablePublishedDonations returns exactly the records whose status is
// available.
func (s *Service) GetAvailablePublishedDonations(ctx context.Context) ([]models.PublishedDonation, error) {
	return s.donations.ListAvailable(ctx)
}

func (s *Service) ListPublishedDonationsByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.PublishedDonation, error) {
	return s.donations.ListByDonor(ctx, donorID)
}

// DeletePublishedDonation removes a donation that no open allocation references.
func (s *Service) DeletePublishedDonation(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	pd, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return notFound("Published donation", err)
	}
	if !pipelinepolicy.CanManageDonation(actor, pd) {
		return ErrForbidden
	}
	open, err := s.allocs.CountOpen(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return apierr.New(ErrInvalidTransition, "This donation still has %d open allocation(s).", open)
	}
	if _, err := s.donations.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Pipeline(ctx, audit.EventDonationDeleted, &actor.ID, "published_donation", id, nil, map[string]string{"item": pd.ItemName})
	return nil
}

// Reconcile rewrites the status of every published donation whose status
// disagrees with its remaining capacity.
func (s *Service) Reconcile(ctx context.Context) (int64, error) {
	n, err := s.donations.Reconcile(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.audit.Log(ctx, audit.Event{
			Category:  audit.CategoryPipeline,
			EventType: audit.EventCapacityReconciled,
			Success:   true,
			Details:   map[string]string{"changed": itoa(int(n))},
		})
	}
	return n, nil
}

// settle marks a donation fulfilled once nothing remains and no open
// allocation references it.
func (s *Service) settle(ctx context.Context, id primitive.ObjectID) error {
	pd, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return notFound("Published donation", err)
	}
	if pd.RemainingStudents > 0 || pd.Status == models.DonationFulfilled {
		return nil
	}
	open, err := s.allocs.CountOpen(ctx, id)
	if err != nil || open > 0 {
		return err
	}
	_, err = s.donations.MarkFulfilled(ctx, id)
	return err
}
