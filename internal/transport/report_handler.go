package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/export"
	"mobile-pos/internal/middleware"
	"mobile-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultReportDays is the range used when from/to are omitted
const DefaultReportDays = 30

// ReportHandler serves reports, CSV exports and the dashboard
type ReportHandler struct {
	reports service.ReportService
	tickets service.ServiceTicketService
	now     func() time.Time
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports service.ReportService, tickets service.ServiceTicketService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		tickets: tickets,
		now:     time.Now,
		logger:  logger,
	}
}

// RegisterRoutes registers the admin reporting routes
func (h *ReportHandler) RegisterRoutes(r chi.Router, auth, admin func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth, admin)

		r.Get("/api/reports", h.Report)
		r.Get("/api/reports/export", h.Export)
		r.Get("/api/dashboard", h.Dashboard)
	})
}

// reportRange reads from and to, defaulting to the last DefaultReportDays days
func (h *ReportHandler) reportRange(r *http.Request) (time.Time, time.Time, error) {
	loc := h.reports.Location()

	from, err := queryDate(r, "from", loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date")
	}
	to, err := queryDate(r, "to", loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date")
	}

	if to.IsZero() {
		to = h.now().In(loc)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -(DefaultReportDays - 1))
	}
	return from, to, nil
}

func (h *ReportHandler) buildReport(w http.ResponseWriter, r *http.Request) (*domain.Report, bool) {
	from, to, err := h.reportRange(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	report, err := h.reports.Report(r.Context(), from, to, domain.Granularity(r.URL.Query().Get("granularity")))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return nil, false
	}
	return report, true
}

// Report returns the summary, buckets, top products and product rows
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// Export streams a CSV download. type is overview, products or services.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := export.Kind(r.URL.Query().Get("type"))
	if kind == "" {
		kind = export.KindOverview
	}
	if !kind.Valid() {
		middleware.RespondWithError(w, http.StatusBadRequest, "type must be overview, products or services")
		return
	}

	report, ok := h.buildReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	var err error
	switch kind {
	case export.KindOverview:
		err = export.WriteOverviewCSV(&buf, *report)
	case export.KindProducts:
		err = export.WriteProductsCSV(&buf, *report)
	case export.KindServices:
		var tickets []*domain.ServiceTicket
		tickets, err = h.tickets.List(r.Context(), domain.TicketFilter{From: report.From, To: report.To})
		if err != nil {
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
		err = export.WriteServicesCSV(&buf, tickets)
	}
	if err != nil {
		h.logger.Error("Failed to render CSV export", zap.String("type", string(kind)), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to render export")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(kind, *report)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Dashboard returns the admin landing summary
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reports.Dashboard(r.Context(), h.now())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, dashboard)
}
