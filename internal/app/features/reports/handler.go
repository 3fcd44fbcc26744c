// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mealbridge/mealbridge/internal/app/features/shared"
	"github.com/mealbridge/mealbridge/internal/app/services/reporting"
	"github.com/mealbridge/mealbridge/internal/app/system/apierr"
	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Reports *reporting.Service
	Log     *zap.Logger
}

func NewHandler(svc *reporting.Service, logger *zap.Logger) *Handler {
	return &Handler{Reports: svc, Log: logger}
}

type generateRequest struct {
	SchoolID string `json:"school_id" label:"School" validate:"required,objectid"`
	From     string `json:"from" label:"Start date" validate:"required,day"`
	To       string `json:"to" label:"End date" validate:"required,day"`
}

type pdfResponse struct {
	URL string `json:"url"`
}

// HandleGenerate aggregates and stores a report. Generation calls out to the
// summarizer, so it runs under the long timeout.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var in generateRequest
	if err := shared.Decode(r, &in); err != nil {
		apierr.Fail(w, h.Log, "generate report", err)
		return
	}
	schoolID, _ := primitive.ObjectIDFromHex(in.SchoolID)
	rep, err := h.Reports.GenerateReport(ctx, actor, schoolID, in.From, in.To)
	if err != nil {
		apierr.Fail(w, h.Log, "generate report", err)
		return
	}
	apierr.JSON(w, http.StatusCreated, rep)
}

// ServeList handles GET /api/reports?school=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	school, err := shared.QueryID(r, "school")
	if err != nil {
		apierr.Fail(w, h.Log, "list reports", err)
		return
	}
	list, err := h.Reports.ListReports(ctx, actor, school)
	if err != nil {
		apierr.Fail(w, h.Log, "list reports", err)
		return
	}
	apierr.JSON(w, http.StatusOK, list)
}

func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rep, err := h.Reports.GetReport(ctx, actor, id)
	if err != nil {
		apierr.Fail(w, h.Log, "get report", err)
		return
	}
	apierr.JSON(w, http.StatusOK, rep)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Reports.DeleteReport(ctx, actor, id); err != nil {
		apierr.Fail(w, h.Log, "delete report", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServePDF answers {"url": ...} when the document was uploaded and the PDF
// bytes otherwise.
func (h *Handler) ServePDF(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	out, err := h.Reports.ExportReportPDF(ctx, actor, id)
	if err != nil {
		apierr.Fail(w, h.Log, "export report pdf", err)
		return
	}
	if out.URL != "" {
		apierr.JSON(w, http.StatusOK, pdfResponse{URL: out.URL})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="report-`+id.Hex()+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		h.Log.Warn("write pdf failed", zap.String("report_id", id.Hex()), zap.Error(err))
	}
}
