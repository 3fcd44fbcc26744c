// internal/app/bootstrap/runtime.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mealbridge/mealbridge/internal/app/services/ai"
	authnsvc "github.com/mealbridge/mealbridge/internal/app/services/authn"
	"github.com/mealbridge/mealbridge/internal/app/services/fulfillment"
	"github.com/mealbridge/mealbridge/internal/app/services/registry"
	"github.com/mealbridge/mealbridge/internal/app/services/reporting"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	"github.com/mealbridge/mealbridge/internal/app/system/auditlog"
	"github.com/mealbridge/mealbridge/internal/app/system/pdf"
	"github.com/mealbridge/mealbridge/internal/app/system/pdfstore"
	"github.com/mealbridge/mealbridge/internal/app/system/ratelimit"
	"github.com/mealbridge/mealbridge/internal/app/system/secret"
	"github.com/mealbridge/mealbridge/internal/app/system/tasks"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runtime is the set of long-lived services shared by every handler.
type Runtime struct {
	Audit       *auditlog.Logger
	Limiter     *ratelimit.SignInLimiter
	Fulfillment *fulfillment.Service
	Registry    *registry.Service
	AI          *ai.Service
	Reporting   *reporting.Service
	Authn       *authnsvc.Service
	Scheduler   *tasks.Scheduler
}

func buildRuntime(appCfg AppConfig, db *mongo.Database, logger *zap.Logger) (*Runtime, error) {
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Pipeline: appCfg.AuditLogPipeline,
		Admin:    appCfg.AuditLogAdmin,
	})

	var sealer *secret.Sealer
	if appCfg.APIKeySecret != "" {
		key, err := secret.ParseKey(appCfg.APIKeySecret)
		if err != nil {
			return nil, err
		}
		if sealer, err = secret.NewSealer(key); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("api_key_secret not set; API configs cannot be stored")
	}

	summarizer := ai.New(db, sealer, audits, logger, ai.Options{
		Endpoint:     appCfg.AIEndpoint,
		DefaultModel: appCfg.AIDefaultModel,
		CacheTTL:     appCfg.AICacheTTL,
	})

	var renderer reporting.Renderer
	var uploader reporting.Uploader
	if appCfg.PDFEnabled {
		var extra []chromedp.ExecAllocatorOption
		if appCfg.PDFChromePath != "" {
			extra = append(extra, chromedp.ExecPath(appCfg.PDFChromePath))
		}
		renderer = pdf.NewChrome(logger, extra...)
		if appCfg.CloudinaryURL != "" {
			cld, err := pdfstore.NewCloudinary(appCfg.CloudinaryURL, appCfg.CloudinaryFolder)
			if err != nil {
				return nil, fmt.Errorf("pdf uploads: %w", err)
			}
			uploader = cld
		}
	}

	limiter := ratelimit.NewSignInLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	return &Runtime{
		Audit:       audits,
		Limiter:     limiter,
		Fulfillment: fulfillment.New(db, audits, logger),
		Registry:    registry.New(db, audits, logger),
		AI:          summarizer,
		Reporting:   reporting.New(db, summarizer, renderer, uploader, audits, logger),
		Authn:       authnsvc.New(db, limiter, audits, logger),
		Scheduler:   tasks.NewScheduler(logger),
	}, nil
}

// schedule registers the recurring jobs.
func (rt *Runtime) schedule(appCfg AppConfig, logger *zap.Logger) error {
	jobs := []tasks.Job{
		tasks.ReconcileCapacity(rt.Fulfillment, appCfg.ReconcileSchedule, logger),
		tasks.DailyReports(rt.Reporting, appCfg.DailyReportSchedule, time.Now, logger),
	}
	for _, j := range jobs {
		if err := rt.Scheduler.Add(j); err != nil {
			return err
		}
	}
	return nil
}
