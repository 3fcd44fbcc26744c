// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/features/shared"
	"github.com/mealbridge/mealbridge/internal/app/store/audit"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/paging"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
)

type listResponse struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Page   paging.Info   `json:"page"`
}

// ServeList handles GET /api/admin/audit. Filters: category, event, actor,
// subject, school, and from/to as days (to is inclusive). Paged with
// start and size.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	filter, err := parseFilter(r)
	if err != nil {
		apierr.Fail(w, h.Log, "list audit events", err)
		return
	}
	page := paging.Parse(r)
	filter.Offset = page.Skip()
	filter.Limit = page.LimitPlusOne()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		apierr.Fail(w, h.Log, "list audit events", err)
		return
	}
	total, err := h.Store.Count(ctx, filter)
	if err != nil {
		apierr.Fail(w, h.Log, "count audit events", err)
		return
	}
	info := paging.TrimPage(&events, page)
	apierr.JSON(w, http.StatusOK, listResponse{Events: events, Total: total, Page: info})
}

func parseFilter(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	f := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event")),
	}
	var err error
	if f.ActorID, err = shared.QueryID(r, "actor"); err != nil {
		return f, err
	}
	if f.SubjectID, err = shared.QueryID(r, "subject"); err != nil {
		return f, err
	}
	if f.SchoolID, err = shared.QueryID(r, "school"); err != nil {
		return f, err
	}
	if s := strings.TrimSpace(q.Get("from")); s != "" {
		day, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return f, apierr.Invalid("from must be a date (YYYY-MM-DD).")
		}
		f.Since = &day
	}
	if s := strings.TrimSpace(q.Get("to")); s != "" {
		day, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return f, apierr.Invalid("to must be a date (YYYY-MM-DD).")
		}
		end := day.Add(24*time.Hour - time.Nanosecond)
		if f.Since != nil && end.Before(*f.Since) {
			return f, apierr.Invalid("to must not be before from.")
		}
		f.Until = &end
	}
	return f, nil
}
