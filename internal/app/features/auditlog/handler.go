// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	"go.uber.org/zap"
)

type Handler struct {
	Store *audit.Store
	Log   *zap.Logger
}

// NewHandler constructs the audit trail handler over the given event store.
func NewHandler(store *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}
