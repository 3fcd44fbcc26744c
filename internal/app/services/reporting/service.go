// Package reporting builds per-school activity reports over a date range and
// exports them to PDF.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/policy/reportpolicy"
	"github.com/mealbridge/mealbridge/internal/app/services/ai"
	allocationstore "github.com/mealbridge/mealbridge/internal/app/store/allocations"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	donationstore "github.com/mealbridge/mealbridge/internal/app/store/donations"
	feedbackstore "github.com/mealbridge/mealbridge/internal/app/store/feedback"
	mealstore "github.com/mealbridge/mealbridge/internal/app/store/meals"
	reportstore "github.com/mealbridge/mealbridge/internal/app/store/reports"
	schoolstore "github.com/mealbridge/mealbridge/internal/app/store/schools"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/auditlog"
	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/app/system/htmlsanitize"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrForbidden = apierr.New(apierr.ErrForbidden, "You do not have permission to access this report.")
	// ErrPDFDisabled is returned by ExportReportPDF when no renderer is configured.
	ErrPDFDisabled = apierr.NotFound("PDF export is not enabled.")
)

// maxPromptComments caps how many comments are sent for summarizing.
const maxPromptComments = 200

// Summarizer produces the feedback summary. *ai.Service satisfies it.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) ai.Result
}

// Renderer prints an HTML document to PDF. *pdf.Chrome satisfies it.
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Uploader stores a PDF and returns its URL. *pdfstore.Cloudinary satisfies it.
type Uploader interface {
	Put(ctx context.Context, reportID string, data []byte) (string, error)
}

type Service struct {
	reports  *reportstore.Store
	schools  *schoolstore.Store
	meals    *mealstore.Store
	gifts    *donationstore.Store
	allocs   *allocationstore.Store
	feedback *feedbackstore.Store

	ai       Summarizer
	renderer Renderer
	uploader Uploader
	audit    *auditlog.Logger
	log      *zap.Logger
}

// New builds the service. renderer and uploader may be nil: without a renderer
// PDF export is disabled, and without an uploader PDFs are returned inline.
func New(db *mongo.Database, summarizer Summarizer, renderer Renderer, uploader Uploader, audit *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		reports:  reportstore.New(db),
		schools:  schoolstore.New(db),
		meals:    mealstore.New(db),
		gifts:    donationstore.New(db),
		allocs:   allocationstore.New(db),
		feedback: feedbackstore.New(db),
		ai:       summarizer,
		renderer: renderer,
		uploader: uploader,
		audit:    audit,
		log:      logger,
	}
}

// period parses an inclusive pair of calendar days and returns the half-open
// UTC instant range they cover.
func period(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, apierr.Invalid("Start date must be YYYY-MM-DD.")
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, apierr.Invalid("End date must be YYYY-MM-DD.")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apierr.Invalid("End date must not be before start date.")
	}
	return start, end.AddDate(0, 0, 1), nil
}

// GenerateReport aggregates a school's activity between two inclusive days and
// stores the report. A report is stored even when no summary was produced.
func (s *Service) GenerateReport(ctx context.Context, actor authz.Actor, schoolID primitive.ObjectID, from, to string) (models.Report, error) {
	if !reportpolicy.CanGenerate(actor, schoolID) {
		return models.Report{}, ErrForbidden
	}
	start, end, err := period(from, to)
	if err != nil {
		return models.Report{}, err
	}
	school, err := s.schools.GetByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Report{}, apierr.NotFound("School not found.")
		}
		return models.Report{}, err
	}

	r := models.Report{
		SchoolID:    school.ID,
		SchoolName:  school.Name,
		PeriodStart: from,
		PeriodEnd:   to,
	}
	if r.MealsServed, err = s.meals.CountServed(ctx, school.ID, from, to); err != nil {
		return models.Report{}, fmt.Errorf("count meals: %w", err)
	}
	if r.DonationsReceived, err = s.gifts.CountReceived(ctx, school.ID, start, end); err != nil {
		return models.Report{}, fmt.Errorf("count donations: %w", err)
	}
	if r.AllocationsClaimed, err = s.allocs.CountClaimed(ctx, school.ID, start, end); err != nil {
		return models.Report{}, fmt.Errorf("count claims: %w", err)
	}
	entries, err := s.feedback.List(ctx, school.ID, from, to)
	if err != nil {
		return models.Report{}, fmt.Errorf("list feedback: %w", err)
	}
	r.FeedbackCount = len(entries)
	r.AverageRating = averageRating(entries)

	res := ai.Result{Text: ai.Placeholder}
	if prompt := buildPrompt(school.Name, from, to, entries); prompt != "" && s.ai != nil {
		res = s.ai.Summarize(ctx, prompt)
	}
	r.FeedbackSummary = htmlsanitize.StripAll(res.Text)
	if r.FeedbackSummary == "" {
		r.FeedbackSummary = ai.Placeholder
		res.Available = false
	}
	r.AIAvailable = res.Available
	r.AIModel = res.Model
	if !actor.ID.IsZero() {
		r.GeneratedBy = &actor.ID
	}

	out, err := s.reports.Create(ctx, r)
	if err != nil {
		return models.Report{}, err
	}
	var actorID *primitive.ObjectID
	if !actor.ID.IsZero() {
		actorID = &actor.ID
	}
	s.audit.Pipeline(ctx, audit.EventReportGenerated, actorID, "report", out.ID, &out.SchoolID, map[string]string{
		"period_start": from,
		"period_end":   to,
		"ai":           fmt.Sprint(out.AIAvailable),
	})
	return out, nil
}

func averageRating(entries []models.Feedback) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, f := range entries {
		sum += f.Rating
	}
	return math.Round(float64(sum)/float64(len(entries))*100) / 100
}

// buildPrompt returns "" when there are no comments to summarize.
func buildPrompt(school, from, to string, entries []models.Feedback) string {
	var b strings.Builder
	n := 0
	for _, f := range entries {
		c := strings.TrimSpace(f.Comment)
		if c == "" {
			continue
		}
		if n == maxPromptComments {
			break
		}
		fmt.Fprintf(&b, "- %s, rating %d/5: %s\n", f.Date, f.Rating, c)
		n++
	}
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("Summarize the following teacher feedback about school meals at %s from %s to %s. "+
		"Point out recurring praise and problems in a short paragraph.\n\n%s", school, from, to, b.String())
}

func (s *Service) GetReport(ctx context.Context, viewer authz.Actor, id primitive.ObjectID) (models.Report, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Report{}, apierr.NotFound("Report not found.")
		}
		return models.Report{}, err
	}
	if !reportpolicy.Scope(viewer).Covers(r.SchoolID) {
		return models.Report{}, ErrForbidden
	}
	return r, nil
}

// ListReports returns the reports viewer may see, for one school when
// schoolID is set.
func (s *Service) ListReports(ctx context.Context, viewer authz.Actor, schoolID *primitive.ObjectID) ([]models.Report, error) {
	scope := reportpolicy.Scope(viewer)
	if !scope.CanView {
		return nil, ErrForbidden
	}
	if !scope.AllSchools {
		if schoolID != nil && *schoolID != scope.SchoolID {
			return nil, ErrForbidden
		}
		schoolID = &scope.SchoolID
	}
	return s.reports.List(ctx, schoolID)
}

func (s *Service) DeleteReport(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	r, err := s.GetReport(ctx, actor, id)
	if err != nil {
		return err
	}
	if !reportpolicy.CanGenerate(actor, r.SchoolID) {
		return ErrForbidden
	}
	_, err = s.reports.Delete(ctx, id)
	return err
}

// GenerateDaily produces the report for day for every active school that does
// not have one yet. It returns how many reports were generated.
func (s *Service) GenerateDaily(ctx context.Context, day time.Time) (int, error) {
	date := day.UTC().Format(models.DateLayout)
	schools, err := s.schools.List(ctx, true)
	if err != nil {
		return 0, err
	}
	system := authz.Actor{Role: models.RoleAdmin}
	made := 0
	for _, sc := range schools {
		exists, err := s.reports.Exists(ctx, sc.ID, date, date)
		if err != nil {
			return made, err
		}
		if exists {
			continue
		}
		if _, err := s.GenerateReport(ctx, system, sc.ID, date, date); err != nil {
			s.log.Warn("daily report failed", zap.String("school_id", sc.ID.Hex()), zap.Error(err))
			continue
		}
		made++
	}
	return made, nil
}
