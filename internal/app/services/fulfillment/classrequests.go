package fulfillment

import (
	"context"
	"strings"

	"github.com/mealbridge/mealbridge/internal/app/policy/pipelinepolicy"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/htmlsanitize"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClassRequestInput is a principal asking one donor for money or goods.
type ClassRequestInput struct {
	DonorID primitive.ObjectID
	ClassID primitive.ObjectID
	Kind    string
	Amount  float64
	Items   string
	Message string
}

func (s *Service) CreateClassDonationRequest(ctx context.Context, principal authz.Actor, in ClassRequestInput) (models.ClassDonationRequest, error) {
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	in.Items = htmlsanitize.StripAll(in.Items)
	switch in.Kind {
	case models.RequestKindMoney:
		if in.Amount <= 0 {
			return models.ClassDonationRequest{}, apierr.Invalid("Amount must be greater than 0 for a money request.")
		}
	case models.RequestKindGoods:
		if in.Items == "" {
			return models.ClassDonationRequest{}, apierr.Invalid("Items are required for a goods request.")
		}
	default:
		return models.ClassDonationRequest{}, apierr.Invalid("Kind must be money or goods.")
	}

	class, err := s.classes.GetByID(ctx, in.ClassID)
	if err != nil {
		return models.ClassDonationRequest{}, notFound("Class", err)
	}
	if !pipelinepolicy.CanAllocateToClass(principal, class) {
		return models.ClassDonationRequest{}, ErrForbidden
	}
	donor, err := s.users.GetByID(ctx, in.DonorID)
	if err != nil {
		return models.ClassDonationRequest{}, notFound("Donor", err)
	}
	if donor.Role != models.RoleDonor {
		return models.ClassDonationRequest{}, apierr.Invalid("The selected user is not a donor.")
	}

	r, err := s.requests.Create(ctx, models.ClassDonationRequest{
		PrincipalID:   principal.ID,
		PrincipalName: principal.Name,
		DonorID:       donor.ID,
		SchoolID:      class.SchoolID,
		ClassID:       class.ID,
		ClassName:     class.Name,
		Kind:          in.Kind,
		Amount:        in.Amount,
		Items:         in.Items,
		Message:       htmlsanitize.StripAll(in.Message),
	})
	if err != nil {
		return models.ClassDonationRequest{}, err
	}
	s.audit.Pipeline(ctx, audit.EventClassRequestCreated, &principal.ID, "class_request", r.ID, &r.SchoolID, map[string]string{"kind": r.Kind})
	return r, nil
}

func (s *Service) ApproveClassDonationRequest(ctx context.Context, donor authz.Actor, id primitive.ObjectID, note string) (models.ClassDonationRequest, error) {
	return s.respond(ctx, donor, id, models.RequestApproved, note)
}

func (s *Service) RejectClassDonationRequest(ctx context.Context, donor authz.Actor, id primitive.ObjectID, note string) (models.ClassDonationRequest, error) {
	return s.respond(ctx, donor, id, models.RequestRejected, note)
}

func (s *Service) respond(ctx context.Context, donor authz.Actor, id primitive.ObjectID, to, note string) (models.ClassDonationRequest, error) {
	r, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return models.ClassDonationRequest{}, notFound("Class donation request", err)
	}
	if !donor.CanActFor(r.DonorID) {
		return models.ClassDonationRequest{}, ErrForbidden
	}
	out, err := s.requests.Respond(ctx, id, to, htmlsanitize.StripAll(note))
	if err != nil {
		return models.ClassDonationRequest{}, notFound("Class donation request", err)
	}
	s.audit.Pipeline(ctx, audit.EventClassRequestAnswer, &donor.ID, "class_request", out.ID, &out.SchoolID, map[string]string{"status": out.Status})
	return out, nil
}

func (s *Service) ListClassRequestsByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.ClassDonationRequest, error) {
	return s.requests.ListByDonor(ctx, donorID)
}

func (s *Service) ListClassRequestsByPrincipal(ctx context.Context, principalID primitive.ObjectID) ([]models.ClassDonationRequest, error) {
	return s.requests.ListByPrincipal(ctx, principalID)
}

// ClassRequestFilter picks one side of the class requests. Exactly one of the
// two IDs is used; DonorID wins when both are set.
type ClassRequestFilter struct {
	DonorID     *primitive.ObjectID
	PrincipalID *primitive.ObjectID
}

// ListClassRequestsVisible lists the requests viewer may read. Donors get the
// ones addressed to them and principals the ones they sent. Admins must name a
// donor or a principal.
func (s *Service) ListClassRequestsVisible(ctx context.Context, viewer authz.Actor, f ClassRequestFilter) ([]models.ClassDonationRequest, error) {
	switch {
	case viewer.IsAdmin():
	case viewer.IsDonor():
		if (f.DonorID != nil && *f.DonorID != viewer.ID) || f.PrincipalID != nil {
			return nil, ErrForbidden
		}
		f.DonorID = &viewer.ID
	case viewer.IsPrincipal():
		if (f.PrincipalID != nil && *f.PrincipalID != viewer.ID) || f.DonorID != nil {
			return nil, ErrForbidden
		}
		f.PrincipalID = &viewer.ID
	default:
		return nil, ErrForbidden
	}
	switch {
	case f.DonorID != nil:
		return s.requests.ListByDonor(ctx, *f.DonorID)
	case f.PrincipalID != nil:
		return s.requests.ListByPrincipal(ctx, *f.PrincipalID)
	}
	return nil, apierr.Invalid("Pass donor or principal.")
}
