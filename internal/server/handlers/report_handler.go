package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/server/middleware"
)

// ReportService builds and stores daily reports.
type ReportService interface {
	DailyReport(ctx context.Context, subject models.Subject, day time.Time) (models.DailyReport, error)
	ExportDailyReport(ctx context.Context, subject models.Subject) (models.DailyReport, error)
	Today() time.Time
	Location() *time.Location
}

// ReportHandler serves the daily delivery and income report.
type ReportHandler struct {
	svc    ReportService
	logger *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc ReportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// Daily returns the report for ?date=YYYY-MM-DD, today by default.
func (h *ReportHandler) Daily(c *gin.Context) {
	day := h.svc.Today()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, h.svc.Location())
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	report, err := h.svc.DailyReport(c.Request.Context(), middleware.SubjectFrom(c), day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Export stores today's report and appends it to the spreadsheet. It answers
// 503 when no spreadsheet is configured.
func (h *ReportHandler) Export(c *gin.Context) {
	report, err := h.svc.ExportDailyReport(c.Request.Context(), middleware.SubjectFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
