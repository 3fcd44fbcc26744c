// Package registry manages the records around the pipeline: schools, classes,
// student rosters, daily meal tracking, teacher feedback and donors' giving
// history.
package registry

import (
	"errors"

	classstore "github.com/mealbridge/mealbridge/internal/app/store/classes"
	donationstore "github.com/mealbridge/mealbridge/internal/app/store/donations"
	feedbackstore "github.com/mealbridge/mealbridge/internal/app/store/feedback"
	mealstore "github.com/mealbridge/mealbridge/internal/app/store/meals"
	schoolstore "github.com/mealbridge/mealbridge/internal/app/store/schools"
	studentstore "github.com/mealbridge/mealbridge/internal/app/store/students"
	userstore "github.com/mealbridge/mealbridge/internal/app/store/users"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrForbidden = apierr.New(apierr.ErrForbidden, "You do not have permission to change this record.")
	// ErrSchoolInUse is returned when deleting a school that still has classes.
	ErrSchoolInUse = apierr.Conflict("Remove the school's classes before deleting it.")
	// ErrClassInUse is returned when deleting a class that still has students.
	ErrClassInUse = apierr.Conflict("Remove the class's students before deleting it.")
)

type Service struct {
	schools  *schoolstore.Store
	classes  *classstore.Store
	students *studentstore.Store
	meals    *mealstore.Store
	feedback *feedbackstore.Store
	gifts    *donationstore.Store
	users    *userstore.Store
	audit    *auditlog.Logger
	log      *zap.Logger
}

func New(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		schools:  schoolstore.New(db),
		classes:  classstore.New(db),
		students: studentstore.New(db),
		meals:    mealstore.New(db),
		feedback: feedbackstore.New(db),
		gifts:    donationstore.New(db),
		users:    userstore.New(db),
		audit:    audit,
		log:      logger,
	}
}

func notFound(what string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apierr.NotFound("%s not found.", what)
	}
	return err
}
