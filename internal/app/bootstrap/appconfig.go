// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds MealBridge's own configuration. WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything here is specific to
// this service and is loaded in LoadConfig.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie
	SessionKey    string // signing key, must be strong in production
	SessionName   string
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	// Feedback summarizer
	AIEndpoint     string
	AIDefaultModel string
	AICacheTTL     time.Duration
	APIKeySecret   string // AES key that seals stored API credentials

	// Report PDF export
	PDFEnabled       bool
	PDFChromePath    string // blank uses the chromedp default lookup
	CloudinaryURL    string // optional; PDFs are returned inline without it
	CloudinaryFolder string

	// Scheduled jobs (cron specs, blank disables)
	ReconcileSchedule   string
	DailyReportSchedule string

	// Sign-in throttling
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Admin bootstrap
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// Audit destinations: all, db, log or off
	AuditLogAuth     string
	AuditLogPipeline string
	AuditLogAdmin    string
}
