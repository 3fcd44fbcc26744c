// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	apiconfigsfeature "github.com/mealbridge/mealbridge/internal/app/features/apiconfigs"
	assignmentsfeature "github.com/mealbridge/mealbridge/internal/app/features/assignments"
	auditfeature "github.com/mealbridge/mealbridge/internal/app/features/auditlog"
	authnfeature "github.com/mealbridge/mealbridge/internal/app/features/authn"
	classesfeature "github.com/mealbridge/mealbridge/internal/app/features/classes"
	classrequestsfeature "github.com/mealbridge/mealbridge/internal/app/features/classrequests"
	donationsfeature "github.com/mealbridge/mealbridge/internal/app/features/donations"
	feedbackfeature "github.com/mealbridge/mealbridge/internal/app/features/feedback"
	healthfeature "github.com/mealbridge/mealbridge/internal/app/features/health"
	mealsfeature "github.com/mealbridge/mealbridge/internal/app/features/meals"
	publishedfeature "github.com/mealbridge/mealbridge/internal/app/features/publisheddonations"
	readyfeature "github.com/mealbridge/mealbridge/internal/app/features/readydonations"
	realtimefeature "github.com/mealbridge/mealbridge/internal/app/features/realtime"
	reportsfeature "github.com/mealbridge/mealbridge/internal/app/features/reports"
	schoolsfeature "github.com/mealbridge/mealbridge/internal/app/features/schools"
	studentsfeature "github.com/mealbridge/mealbridge/internal/app/features/students"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	userstore "github.com/mealbridge/mealbridge/internal/app/store/users"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/auth"
	"github.com/mealbridge/mealbridge/internal/app/system/requestid"
	"go.uber.org/zap"
)

// BuildHandler constructs the root router. WAFFLE calls it after Startup,
// so deps.Runtime holds the services.
//
// Every request gets a request ID and, when signed in, a fresh copy of its
// session user. /health is open; /api/auth handles its own sessions; the
// remaining /api routes check the session inside each feature.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	if rt == nil || rt.Fulfillment == nil {
		return nil, errors.New("build handler: services not started")
	}

	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Role changes and disabled accounts take effect on the next request.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	r := chi.NewRouter()
	r.Use(requestid.Middleware(logger))
	r.Use(sessionMgr.LoadSessionUser)

	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	r.Route("/api", func(api chi.Router) {
		api.Mount("/auth", authnfeature.Routes(authnfeature.NewHandler(rt.Authn, sessionMgr, rt.Audit, logger)))

		// Donation pipeline
		api.Mount("/published-donations", publishedfeature.Routes(publishedfeature.NewHandler(rt.Fulfillment, logger), sessionMgr))
		api.Mount("/ready-donations", readyfeature.Routes(readyfeature.NewHandler(rt.Fulfillment, logger), sessionMgr))
		api.Mount("/assignments", assignmentsfeature.Routes(assignmentsfeature.NewHandler(rt.Fulfillment, logger), sessionMgr))
		api.Mount("/class-requests", classrequestsfeature.Routes(classrequestsfeature.NewHandler(rt.Fulfillment, logger), sessionMgr))

		// Registries
		api.Mount("/schools", schoolsfeature.Routes(schoolsfeature.NewHandler(rt.Registry, logger), sessionMgr))
		api.Mount("/classes", classesfeature.Routes(classesfeature.NewHandler(rt.Registry, logger), sessionMgr))
		api.Mount("/students", studentsfeature.Routes(studentsfeature.NewHandler(rt.Registry, logger), sessionMgr))
		api.Mount("/meals", mealsfeature.Routes(mealsfeature.NewHandler(rt.Registry, logger), sessionMgr))
		api.Mount("/feedback", feedbackfeature.Routes(feedbackfeature.NewHandler(rt.Registry, logger), sessionMgr))
		api.Mount("/donations", donationsfeature.Routes(donationsfeature.NewHandler(rt.Registry, logger), sessionMgr))

		// Reports and their summarizer credentials
		api.Mount("/reports", reportsfeature.Routes(reportsfeature.NewHandler(rt.Reporting, logger), sessionMgr))
		api.Mount("/admin/apis", apiconfigsfeature.Routes(apiconfigsfeature.NewHandler(rt.AI, logger), sessionMgr))
		api.Mount("/admin/audit", auditfeature.Routes(auditfeature.NewHandler(audit.New(deps.MongoDatabase), logger), sessionMgr))

		api.Mount("/stream", realtimefeature.Routes(realtimefeature.NewHandler(deps.MongoDatabase, logger), sessionMgr))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierr.Write(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierr.Write(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r, nil
}
