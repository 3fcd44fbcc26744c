// internal/app/system/requestid/requestid.go
package requestid

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Header carries the correlation ID in both directions.
const Header = "X-Request-ID"

type ctxKey struct{}

type entry struct {
	id  string
	log *zap.Logger
}

var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// Middleware keeps a well-formed incoming X-Request-ID or assigns a new UUID,
// echoes it on the response and stores a logger tagged with it.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(Header)
			if !validID.MatchString(id) {
				id = uuid.NewString()
			}
			w.Header().Set(Header, id)
			e := entry{id: id, log: logger.With(zap.String("request_id", id))}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, e)))
		})
	}
}

// FromContext returns the request's correlation ID, or "".
func FromContext(ctx context.Context) string {
	e, _ := ctx.Value(ctxKey{}).(entry)
	return e.id
}

// Logger returns the request-scoped logger, or fallback outside a request.
func Logger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if e, ok := ctx.Value(ctxKey{}).(entry); ok && e.log != nil {
		return e.log
	}
	return fallback
}
