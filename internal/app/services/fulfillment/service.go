// Package fulfillment runs the donation pipeline: the published-donation
// capacity ledger, the request and assignment allocation flows, and class
// donation requests.
//
// Capacity only moves through the ledger's Reserve and Release, each paired
// with a conditional allocation status write inside one transaction. Without
// transaction support the service undoes its own partial writes.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	allocationstore "github.com/mealbridge/mealbridge/internal/app/store/allocations"
	classstore "github.com/mealbridge/mealbridge/internal/app/store/classes"
	classrequeststore "github.com/mealbridge/mealbridge/internal/app/store/classrequests"
	publisheddonationstore "github.com/mealbridge/mealbridge/internal/app/store/publisheddonations"
	schoolstore "github.com/mealbridge/mealbridge/internal/app/store/schools"
	userstore "github.com/mealbridge/mealbridge/internal/app/store/users"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/auditlog"
	"github.com/mealbridge/mealbridge/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrNotFound             = apierr.ErrNotFound
	ErrValidation           = apierr.ErrValidation
	ErrInvalidTransition    = apierr.Conflict("That action is not allowed in the record's current status.")
	ErrInsufficientCapacity = publisheddonationstore.ErrInsufficientCapacity
	ErrForbidden            = apierr.New(apierr.ErrForbidden, "You do not have permission to change this record.")
)

type Service struct {
	db        *mongo.Database
	donations *publisheddonationstore.Store
	allocs    *allocationstore.Store
	classes   *classstore.Store
	schools   *schoolstore.Store
	users     *userstore.Store
	requests  *classrequeststore.Store
	audit     *auditlog.Logger
	log       *zap.Logger
}

// New builds the service. audit may be nil.
func New(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		db:        db,
		donations: publisheddonationstore.New(db),
		allocs:    allocationstore.New(db),
		classes:   classstore.New(db),
		schools:   schoolstore.New(db),
		users:     userstore.New(db),
		requests:  classrequeststore.New(db),
		audit:     audit,
		log:       logger,
	}
}

// atomically runs fn in a transaction when the deployment has them.
func (s *Service) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return txn.Run(ctx, s.db, s.log, fn)
}

// undo runs a compensating write when ctx carries no transaction. Inside a
// transaction the abort already discards the partial write.
func (s *Service) undo(ctx context.Context, what string, fn func(ctx context.Context) error) {
	if mongo.SessionFromContext(ctx) != nil {
		return
	}
	if err := fn(ctx); err != nil {
		s.log.Error("compensating write failed; capacity may need reconciling",
			zap.String("undo", what), zap.Error(err))
	}
}

// itoa is a shorthand for strconv.Itoa
func itoa(i int) string { return strconv.Itoa(i) }

func notFound(what string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apierr.NotFound("%s not found.", what)
	}
	return err
}

func transitionErr(err error) error {
	if errors.Is(err, allocationstore.ErrStatusChanged) {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return notFound("Allocation", err)
}
