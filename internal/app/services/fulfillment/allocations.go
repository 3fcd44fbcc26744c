package fulfillment

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/policy/pipelinepolicy"
	allocationstore "github.com/mealbridge/mealbridge/internal/app/store/allocations"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	publisheddonationstore "github.com/mealbridge/mealbridge/internal/app/store/publisheddonations"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AllocationInput names the donation, the class and how many students.
type AllocationInput struct {
	PublishedDonationID primitive.ObjectID
	ClassID             primitive.ObjectID
	NumberOfStudents    int
}

// draft loads everything a new allocation needs and checks the principal may
// allocate to the class.
func (s *Service) draft(ctx context.Context, principal authz.Actor, in AllocationInput, flow string) (models.Allocation, models.PublishedDonation, error) {
	if in.NumberOfStudents < 1 {
		return models.Allocation{}, models.PublishedDonation{}, apierr.Invalid("Number of students must be 1 or more.")
	}
	class, err := s.classes.GetByID(ctx, in.ClassID)
	if err != nil {
		return models.Allocation{}, models.PublishedDonation{}, notFound("Class", err)
	}
	if !pipelinepolicy.CanAllocateToClass(principal, class) {
		return models.Allocation{}, models.PublishedDonation{}, ErrForbidden
	}
	school, err := s.schools.GetByID(ctx, class.SchoolID)
	if err != nil {
		return models.Allocation{}, models.PublishedDonation{}, notFound("School", err)
	}
	pd, err := s.donations.GetByID(ctx, in.PublishedDonationID)
	if err != nil {
		return models.Allocation{}, models.PublishedDonation{}, notFound("Published donation", err)
	}
	if pd.Status == models.DonationFulfilled {
		return models.Allocation{}, models.PublishedDonation{}, apierr.New(ErrInvalidTransition, "This donation has already been fulfilled.")
	}

	return models.Allocation{
		Flow:                flow,
		PublishedDonationID: pd.ID,
		ItemName:            pd.ItemName,
		DonorID:             pd.DonorID,
		DonorName:           pd.DonorName,
		PrincipalID:         principal.ID,
		SchoolID:            school.ID,
		SchoolName:          school.Name,
		ClassID:             class.ID,
		ClassName:           class.Name,
		NumberOfStudents:    in.NumberOfStudents,
		Status:              models.AllocPending,
		TeacherID:           class.TeacherID,
		TeacherName:         class.TeacherName,
	}, pd, nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID, flow string) (models.Allocation, error) {
	a, err := s.allocs.GetByID(ctx, id)
	if err != nil {
		return models.Allocation{}, notFound("Allocation", err)
	}
	if a.ArchivedAt != nil && a.Status != models.AllocRejected {
		return models.Allocation{}, apierr.NotFound("Allocation not found.")
	}
	if flow != "" && a.Flow != flow {
		return models.Allocation{}, apierr.New(ErrInvalidTransition, "This action does not apply to a %s allocation.", a.Flow)
	}
	return a, nil
}

// move checks the state machine and writes the transition conditionally on
// the status a was loaded with.
func (s *Service) move(ctx context.Context, a models.Allocation, to string, set bson.M) (models.Allocation, error) {
	if !models.CanTransition(a.Status, to) {
		return models.Allocation{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, to)
	}
	out, err := s.allocs.Transition(ctx, a.ID, []string{a.Status}, to, set)
	if err != nil {
		return models.Allocation{}, transitionErr(err)
	}
	return out, nil
}

func (s *Service) logChange(ctx context.Context, actor authz.Actor, a models.Allocation, from string) {
	s.audit.Pipeline(ctx, audit.EventAllocationChanged, &actor.ID, "allocation", a.ID, &a.SchoolID, map[string]string{
		"flow": a.Flow,
		"from": from,
		"to":   a.Status,
		"held": itoa(a.CapacityHeld),
	})
}

// --- request flow ---

// CreateReadyDonation records a principal's pending request. No capacity is
// taken; the count is only checked against what remains right now.
func (s *Service) CreateReadyDonation(ctx context.Context, principal authz.Actor, in AllocationInput) (models.Allocation, error) {
	a, pd, err := s.draft(ctx, principal, in, models.FlowRequest)
	if err != nil {
		return models.Allocation{}, err
	}
	if in.NumberOfStudents > pd.RemainingStudents {
		return models.Allocation{}, fmt.Errorf("%w: requested %d, %d remain", ErrInsufficientCapacity, in.NumberOfStudents, pd.RemainingStudents)
	}
	out, err := s.allocs.Create(ctx, a)
	if err != nil {
		return models.Allocation{}, err
	}
	s.audit.Pipeline(ctx, audit.EventAllocationCreated, &principal.ID, "allocation", out.ID, &out.SchoolID, map[string]string{
		"flow":     out.Flow,
		"students": itoa(out.NumberOfStudents),
	})
	return out, nil
}

// ApproveDonationRequest approves a pending request and takes up to its
// student count from the donation. remaining becomes max(0, R-N).
func (s *Service) ApproveDonationRequest(ctx context.Context, donor authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	a, err := s.load(ctx, id, models.FlowRequest)
	if err != nil {
		return models.Allocation{}, err
	}
	if !pipelinepolicy.CanAnswer(donor, a) {
		return models.Allocation{}, ErrForbidden
	}
	if !models.CanTransition(a.Status, models.AllocApproved) {
		return models.Allocation{}, fmt.Errorf("%w: %s to approved", ErrInvalidTransition, a.Status)
	}

	var out models.Allocation
	err = s.atomically(ctx, func(ctx context.Context) error {
		res, err := s.donations.Reserve(ctx, a.PublishedDonationID, a.NumberOfStudents, publisheddonationstore.Clamp)
		if err != nil {
			return notFound("Published donation", err)
		}
		out, err = s.move(ctx, a, models.AllocApproved, bson.M{
			"approved_at":   time.Now().UTC(),
			"capacity_held": res.Taken,
		})
		if err != nil {
			s.undo(ctx, "release approval", func(ctx context.Context) error {
				_, err := s.donations.Release(ctx, a.PublishedDonationID, res.Taken)
				return err
			})
			return err
		}
		return nil
	})
	if err != nil {
		return models.Allocation{}, err
	}
	s.logChange(ctx, donor, out, a.Status)
	return out, nil
}

// RejectDonationRequest rejects a pending request. The record is kept and
// archived; whatever it held is released.
func (s *Service) RejectDonationRequest(ctx context.Context, donor authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	a, err := s.load(ctx, id, models.FlowRequest)
	if err != nil {
		return models.Allocation{}, err
	}
	if !pipelinepolicy.CanAnswer(donor, a) {
		return models.Allocation{}, ErrForbidden
	}
	return s.reject(ctx, donor, a)
}

// ClaimDonationByTeacher turns an approved request into class meal stock.
func (s *Service) ClaimDonationByTeacher(ctx context.Context, teacher authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	a, err := s.load(ctx, id, "")
	if err != nil {
		return models.Allocation{}, err
	}
	return s.claim(ctx, teacher, a)
}

// GetReadyDonation returns an allocation a may see.
func (s *Service) GetReadyDonation(ctx context.Context, viewer authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	a, err := s.allocs.GetByID(ctx, id)
	if err != nil {
		return models.Allocation{}, notFound("Allocation", err)
	}
	if !pipelinepolicy.CanViewAllocation(viewer, a) {
		return models.Allocation{}, ErrForbidden
	}
	if viewer.IsTeacher() {
		class, err := s.classes.GetByID(ctx, a.ClassID)
		if err != nil || !pipelinepolicy.CanTeach(viewer, class) {
			return models.Allocation{}, ErrForbidden
		}
	}
	return a, nil
}

// ListPendingForDonor is a donor's pending pool across both flows.
func (s *Service) ListPendingForDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.Allocation, error) {
	return s.allocs.PendingPool(ctx, donorID)
}

// ListForPrincipal returns everything a principal has requested or assigned.
func (s *Service) ListForPrincipal(ctx context.Context, principalID primitive.ObjectID) ([]models.Allocation, error) {
	return s.allocs.List(ctx, allocationstore.Filter{PrincipalID: &principalID})
}

// ListApprovedForClass is the pool a class's teacher can claim from.
func (s *Service) ListApprovedForClass(ctx context.Context, classID primitive.ObjectID) ([]models.Allocation, error) {
	return s.allocs.ApprovedPool(ctx, classID)
}

// DeleteReadyDonation archives an allocation, giving back any capacity an
// open one still holds.
func (s *Service) DeleteReadyDonation(ctx context.Context, admin authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	if !admin.IsAdmin() {
		return models.Allocation{}, ErrForbidden
	}
	a, err := s.allocs.GetByID(ctx, id)
	if err != nil {
		return models.Allocation{}, notFound("Allocation", err)
	}

	var out models.Allocation
	err = s.atomically(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.allocs.Archive(ctx, id)
		if err != nil {
			return notFound("Allocation", err)
		}
		if !models.IsOpen(a.Status) || a.CapacityHeld == 0 {
			return nil
		}
		if _, err := s.donations.Release(ctx, a.PublishedDonationID, a.CapacityHeld); err != nil {
			s.undo(ctx, "unarchive", func(ctx context.Context) error {
				return s.allocs.Revert(ctx, id, a.Status, a.Status, "archived_at")
			})
			return notFound("Published donation", err)
		}
		return nil
	})
	if err != nil {
		return models.Allocation{}, err
	}
	if err := s.settle(ctx, a.PublishedDonationID); err != nil {
		s.log.Warn("settle after archive failed", zap.Error(err))
	}
	s.audit.Pipeline(ctx, audit.EventAllocationArchived, &admin.ID, "allocation", id, &a.SchoolID, map[string]string{"status": a.Status})
	return out, nil
}

// --- assignment flow ---

// CreateDonationAssignmentDirect assigns capacity straight to a class. The
// full count is reserved up front or the assignment is refused.
func (s *Service) CreateDonationAssignmentDirect(ctx context.Context, principal authz.Actor, in AllocationInput) (models.Allocation, error) {
	a, _, err := s.draft(ctx, principal, in, models.FlowAssignment)
	if err != nil {
		return models.Allocation{}, err
	}
	a.CapacityHeld = in.NumberOfStudents

	var out models.Allocation
	err = s.atomically(ctx, func(ctx context.Context) error {
		if _, err := s.donations.Reserve(ctx, a.PublishedDonationID, a.NumberOfStudents, publisheddonationstore.Strict); err != nil {
			return notFound("Published donation", err)
		}
		var err error
		out, err = s.allocs.Create(ctx, a)
		if err != nil {
			s.undo(ctx, "release assignment", func(ctx context.Context) error {
				_, err := s.donations.Release(ctx, a.PublishedDonationID, a.NumberOfStudents)
				return err
			})
			return err
		}
		return nil
	})
	if err != nil {
		return models.Allocation{}, err
	}
	s.audit.Pipeline(ctx, audit.EventAllocationCreated, &principal.ID, "allocation", out.ID, &out.SchoolID, map[string]string{
		"flow":     out.Flow,
		"students": itoa(out.NumberOfStudents),
	})
	return out, nil
}

// RejectDonationAssignment is the exact inverse of creating the assignment.
func (s *Service) RejectDonationAssignment(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	a, err := s.load(ctx, id, models.FlowAssignment)
	if err != nil {
		return models.Allocation{}, err
	}
	if !pipelinepolicy.CanRejectAssignment(actor, a) {
		return models.Allocation{}, ErrForbidden
	}
	return s.reject(ctx, actor, a)
}

func (s *Service) AcceptDonationAssignment(ctx context.Context, donor authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	return s.answer(ctx, donor, id, models.AllocApproved, "approved_at")
}

func (s *Service) DispatchDonationAssignment(ctx context.Context, donor authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	return s.answer(ctx, donor, id, models.AllocDispatched, "dispatched_at")
}

func (s *Service) ClaimDonationAssignment(ctx context.Context, teacher authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	a, err := s.load(ctx, id, models.FlowAssignment)
	if err != nil {
		return models.Allocation{}, err
	}
	return s.claim(ctx, teacher, a)
}

// ServeDonationAssignment records that a claimed assignment has been served.
func (s *Service) ServeDonationAssignment(ctx context.Context, teacher authz.Actor, id primitive.ObjectID) (models.Allocation, error) {
	a, err := s.load(ctx, id, models.FlowAssignment)
	if err != nil {
		return models.Allocation{}, err
	}
	class, err := s.classes.GetByID(ctx, a.ClassID)
	if err != nil {
		return models.Allocation{}, notFound("Class", err)
	}
	if !pipelinepolicy.CanTeach(teacher, class) {
		return models.Allocation{}, ErrForbidden
	}
	out, err := s.move(ctx, a, models.AllocServed, bson.M{"served_at": time.Now().UTC()})
	if err != nil {
		return models.Allocation{}, err
	}
	s.logChange(ctx, teacher, out, a.Status)
	return out, nil
}

// ListAssignments lists assignment-flow allocations matching f.
func (s *Service) ListAssignments(ctx context.Context, f allocationstore.Filter) ([]models.Allocation, error) {
	f.Flow = models.FlowAssignment
	return s.allocs.List(ctx, f)
}

// ListAllocations lists allocations of either flow matching f.
func (s *Service) ListAllocations(ctx context.Context, f allocationstore.Filter) ([]models.Allocation, error) {
	return s.allocs.List(ctx, f)
}

// ListVisible narrows f to what viewer may read and lists the result. Donors
// only see allocations against their own donations, principals their own
// school, and teachers the classes they teach. Asking for someone else's
// records is refused.
func (s *Service) ListVisible(ctx context.Context, viewer authz.Actor, f allocationstore.Filter) ([]models.Allocation, error) {
	switch {
	case viewer.IsAdmin():
	case viewer.IsDonor():
		if f.DonorID != nil && *f.DonorID != viewer.ID {
			return nil, ErrForbidden
		}
		f.DonorID = &viewer.ID
	case viewer.IsPrincipal(), viewer.IsTeacher():
		if viewer.SchoolID.IsZero() || (f.SchoolID != nil && *f.SchoolID != viewer.SchoolID) {
			return nil, ErrForbidden
		}
		f.SchoolID = &viewer.SchoolID
		if viewer.IsTeacher() {
			taught, err := s.taughtClasses(ctx, viewer)
			if err != nil {
				return nil, err
			}
			if f.ClassID != nil {
				if !slices.Contains(taught, *f.ClassID) {
					return nil, ErrForbidden
				}
			} else if len(taught) == 0 {
				return []models.Allocation{}, nil
			}
			f.ClassIDs = taught
		}
	default:
		return nil, ErrForbidden
	}
	return s.allocs.List(ctx, f)
}

// taughtClasses lists the IDs of the classes in the teacher's school that
// pipelinepolicy.CanTeach allows.
func (s *Service) taughtClasses(ctx context.Context, teacher authz.Actor) ([]primitive.ObjectID, error) {
	classes, err := s.classes.ListBySchool(ctx, teacher.SchoolID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(classes))
	for _, c := range classes {
		if pipelinepolicy.CanTeach(teacher, c) {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

// --- shared steps ---

func (s *Service) answer(ctx context.Context, donor authz.Actor, id primitive.ObjectID, to, stamp string) (models.Allocation, error) {
	a, err := s.load(ctx, id, models.FlowAssignment)
	if err != nil {
		return models.Allocation{}, err
	}
	if !pipelinepolicy.CanAnswer(donor, a) {
		return models.Allocation{}, ErrForbidden
	}
	out, err := s.move(ctx, a, to, bson.M{stamp: time.Now().UTC()})
	if err != nil {
		return models.Allocation{}, err
	}
	s.logChange(ctx, donor, out, a.Status)
	return out, nil
}

// reject moves a pending allocation to rejected, archives it, and releases
// exactly what it held.
func (s *Service) reject(ctx context.Context, actor authz.Actor, a models.Allocation) (models.Allocation, error) {
	var out models.Allocation
	err := s.atomically(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		var err error
		out, err = s.move(ctx, a, models.AllocRejected, bson.M{"rejected_at": now, "archived_at": now})
		if err != nil {
			return err
		}
		if out.CapacityHeld == 0 {
			return nil
		}
		if _, err := s.donations.Release(ctx, a.PublishedDonationID, out.CapacityHeld); err != nil {
			s.undo(ctx, "unreject", func(ctx context.Context) error {
				return s.allocs.Revert(ctx, a.ID, models.AllocRejected, a.Status, "rejected_at", "archived_at")
			})
			return notFound("Published donation", err)
		}
		return nil
	})
	if err != nil {
		return models.Allocation{}, err
	}
	s.logChange(ctx, actor, out, a.Status)
	return out, nil
}

// claimRollback returns the fields that put a back the way it was before a
// claim: the teacher it carried is restored, or removed if it had none.
func claimRollback(a models.Allocation) (bson.M, []string) {
	restore := bson.M{}
	unset := []string{"completed_at"}
	if a.TeacherID != nil {
		restore["teacher_id"] = *a.TeacherID
	} else {
		unset = append(unset, "teacher_id")
	}
	if a.TeacherName != "" {
		restore["teacher_name"] = a.TeacherName
	} else {
		unset = append(unset, "teacher_name")
	}
	return restore, unset
}

// claim hands an approved or dispatched allocation to the class. The class
// gains the places held, or the requested count when nothing was held.
func (s *Service) claim(ctx context.Context, teacher authz.Actor, a models.Allocation) (models.Allocation, error) {
	class, err := s.classes.GetByID(ctx, a.ClassID)
	if err != nil {
		return models.Allocation{}, notFound("Class", err)
	}
	if !pipelinepolicy.CanTeach(teacher, class) {
		return models.Allocation{}, ErrForbidden
	}
	meals := a.CapacityHeld
	if meals == 0 {
		meals = a.NumberOfStudents
	}

	var out models.Allocation
	err = s.atomically(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.move(ctx, a, models.AllocClaimed, bson.M{
			"completed_at": time.Now().UTC(),
			"teacher_id":   teacher.ID,
			"teacher_name": teacher.Name,
		})
		if err != nil {
			return err
		}
		if _, err := s.classes.AddMealStock(ctx, a.ClassID, meals); err != nil {
			s.undo(ctx, "unclaim", func(ctx context.Context) error {
				restore, unset := claimRollback(a)
				return s.allocs.RevertRestoring(ctx, a.ID, models.AllocClaimed, a.Status, restore, unset...)
			})
			return notFound("Class", err)
		}
		return nil
	})
	if err != nil {
		return models.Allocation{}, err
	}
	if err := s.settle(ctx, a.PublishedDonationID); err != nil {
		s.log.Warn("settle after claim failed", zap.Error(err))
	}
	s.logChange(ctx, teacher, out, a.Status)
	return out, nil
}
