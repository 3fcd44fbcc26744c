package registry

import (
	"context"

	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/htmlsanitize"
	"github.com/mealbridge/mealbridge/internal/app/system/normalize"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GiftInput is one entry in a donor's giving history.
type GiftInput struct {
	SchoolID    *primitive.ObjectID
	Category    string
	ItemName    string
	Quantity    float64
	Amount      float64
	Description string
	Status      string
}

func validGiftStatus(st string) bool {
	switch st {
	case models.GiftPledged, models.GiftReceived, models.GiftCancelled:
		return true
	}
	return false
}

func (s *Service) CreateDonation(ctx context.Context, donor authz.Actor, in GiftInput) (models.Donation, error) {
	if !donor.IsDonor() && !donor.IsAdmin() {
		return models.Donation{}, ErrForbidden
	}
	in.Category = normalize.Category(in.Category)
	in.Status = normalize.Status(in.Status)
	switch {
	case !models.IsValidCategory(in.Category):
		return models.Donation{}, apierr.Invalid("Category must be food, monetary, supplies, or other.")
	case in.Amount < 0 || in.Quantity < 0:
		return models.Donation{}, apierr.Invalid("Amount and quantity must be 0 or more.")
	case in.Status != "" && !validGiftStatus(in.Status):
		return models.Donation{}, apierr.Invalid("Status must be pledged, received, or cancelled.")
	}
	if in.SchoolID != nil {
		if _, err := s.schools.GetByID(ctx, *in.SchoolID); err != nil {
			return models.Donation{}, notFound("School", err)
		}
	}
	return s.gifts.Create(ctx, models.Donation{
		DonorID:     donor.ID,
		DonorName:   donor.Name,
		SchoolID:    in.SchoolID,
		Category:    in.Category,
		ItemName:    normalize.Name(in.ItemName),
		Quantity:    in.Quantity,
		Amount:      in.Amount,
		Description: htmlsanitize.StripAll(in.Description),
		Status:      in.Status,
	})
}

func (s *Service) GetDonation(ctx context.Context, viewer authz.Actor, id primitive.ObjectID) (models.Donation, error) {
	d, err := s.gifts.GetByID(ctx, id)
	if err != nil {
		return models.Donation{}, notFound("Donation", err)
	}
	if !viewer.CanActFor(d.DonorID) {
		return models.Donation{}, ErrForbidden
	}
	return d, nil
}

func (s *Service) ListDonationsByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.Donation, error) {
	return s.gifts.ListByDonor(ctx, donorID)
}

func (s *Service) UpdateDonationStatus(ctx context.Context, actor authz.Actor, id primitive.ObjectID, st string) (models.Donation, error) {
	st = normalize.Status(st)
	if !validGiftStatus(st) {
		return models.Donation{}, apierr.Invalid("Status must be pledged, received, or cancelled.")
	}
	if _, err := s.GetDonation(ctx, actor, id); err != nil {
		return models.Donation{}, err
	}
	out, err := s.gifts.SetStatus(ctx, id, st)
	return out, notFound("Donation", err)
}

func (s *Service) DeleteDonation(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	if _, err := s.GetDonation(ctx, actor, id); err != nil {
		return err
	}
	_, err := s.gifts.Delete(ctx, id)
	return err
}
