package reporting

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/mealbridge/mealbridge/internal/app/system/authz"
	"github.com/mealbridge/mealbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

//go:embed templates/*.gohtml
var FS embed.FS

var reportTmpl = template.Must(template.ParseFS(FS, "templates/report_pdf.gohtml"))

// PDFExport is either an uploaded document (URL) or its raw bytes.
type PDFExport struct {
	URL  string
	Data []byte
}

// RenderHTML fills the report document template.
func RenderHTML(r models.Report) (string, error) {
	var b bytes.Buffer
	if err := reportTmpl.ExecuteTemplate(&b, "report_pdf", r); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return b.String(), nil
}

// ExportReportPDF prints a report to PDF. With an uploader configured the
// document is uploaded and its URL recorded on the report.
func (s *Service) ExportReportPDF(ctx context.Context, viewer authz.Actor, id primitive.ObjectID) (PDFExport, error) {
	if s.renderer == nil {
		return PDFExport{}, ErrPDFDisabled
	}
	r, err := s.GetReport(ctx, viewer, id)
	if err != nil {
		return PDFExport{}, err
	}
	html, err := RenderHTML(r)
	if err != nil {
		return PDFExport{}, err
	}
	data, err := s.renderer.Render(ctx, html)
	if err != nil {
		return PDFExport{}, err
	}
	if s.uploader == nil {
		return PDFExport{Data: data}, nil
	}

	url, err := s.uploader.Put(ctx, r.ID.Hex(), data)
	if err != nil {
		s.log.Warn("pdf upload failed, returning inline", zap.String("report_id", r.ID.Hex()), zap.Error(err))
		return PDFExport{Data: data}, nil
	}
	if err := s.reports.SetPDFURL(ctx, r.ID, url); err != nil {
		return PDFExport{}, err
	}
	return PDFExport{URL: url}, nil
}
