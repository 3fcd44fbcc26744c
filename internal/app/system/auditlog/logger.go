// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	"github.com/mealbridge/mealbridge/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config picks a destination per category: "all" (MongoDB + zap), "db",
// "log", or "off". An empty value means "all".
type Config struct {
	Auth     string
	Pipeline string
	Admin    string
}

// Logger writes audit events to MongoDB and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryAuth:
		s = l.config.Auth
	case audit.CategoryPipeline:
		s = l.config.Pipeline
	case audit.CategoryAdmin:
		s = l.config.Admin
	}
	if s == "" {
		return "all"
	}
	return s
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.SubjectID != nil {
		fields = append(fields, zap.String(event.SubjectType+"_id", event.SubjectID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's setting. A nil Logger is a
// no-op. Store failures are logged and swallowed.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func withRequest(e audit.Event, r *http.Request) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Auth ---

func (l *Logger) SignUp(ctx context.Context, r *http.Request, userID primitive.ObjectID, role string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:    audit.CategoryAuth,
		EventType:   audit.EventSignUp,
		SubjectType: "user",
		SubjectID:   &userID,
		Success:     true,
		Details:     map[string]string{"role": role},
	}, r))
}

func (l *Logger) SignInSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:    audit.CategoryAuth,
		EventType:   audit.EventSignInSuccess,
		ActorID:     &userID,
		SubjectType: "user",
		SubjectID:   &userID,
		Success:     true,
		Details:     map[string]string{"email": email},
	}, r))
}

// SignInFailed records a refused sign-in. userID is nil when no account matched.
func (l *Logger) SignInFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, email, reason string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		SubjectType:   "user",
		SubjectID:     userID,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	}, r))
}

func (l *Logger) SignOut(ctx context.Context, r *http.Request, userIDHex string) {
	e := audit.Event{Category: audit.CategoryAuth, EventType: audit.EventSignOut, Success: true}
	if oid, err := primitive.ObjectIDFromHex(userIDHex); err == nil {
		e.ActorID = &oid
	}
	l.Log(ctx, withRequest(e, r))
}

// --- Pipeline ---

// Pipeline records a change to a donation, allocation or class request.
func (l *Logger) Pipeline(ctx context.Context, eventType string, actorID *primitive.ObjectID, subjectType string, subjectID primitive.ObjectID, schoolID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryPipeline,
		EventType:   eventType,
		ActorID:     actorID,
		SubjectType: subjectType,
		SubjectID:   &subjectID,
		SchoolID:    schoolID,
		Success:     true,
		Details:     details,
	})
}

// --- Admin ---

func (l *Logger) Admin(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, subjectType string, subjectID primitive.ObjectID, details map[string]string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   eventType,
		ActorID:     &actorID,
		SubjectType: subjectType,
		SubjectID:   &subjectID,
		Success:     true,
		Details:     details,
	}, r))
}
