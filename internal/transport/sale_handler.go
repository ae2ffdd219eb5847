package transport

import (
	"net/http"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/middleware"
	"mobile-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultSaleListLimit caps GET /api/sales when no limit is given
const DefaultSaleListLimit = 100

// UpdateSaleStatusRequest is the payload of a sale status change
type UpdateSaleStatusRequest struct {
	Status domain.SaleStatus `json:"status" validate:"required,oneof=completed pending cancelled"`
}

// SaleHandler serves billing and sales history
type SaleHandler struct {
	billing service.BillingService
	sales   service.SaleService
	loc     *time.Location
	logger  *zap.Logger
}

// NewSaleHandler creates a new SaleHandler. Date filters are read in loc.
func NewSaleHandler(billing service.BillingService, sales service.SaleService, loc *time.Location, logger *zap.Logger) *SaleHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SaleHandler{
		billing: billing,
		sales:   sales,
		loc:     loc,
		logger:  logger,
	}
}

// RegisterRoutes registers the sales routes
func (h *SaleHandler) RegisterRoutes(r chi.Router, auth, admin func(http.Handler) http.Handler) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Use(auth)

		r.Post("/quote", h.Quote)
		r.Post("/", h.Checkout)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.With(admin).Patch("/{id}/status", h.UpdateStatus)
	})
}

// Quote prices a cart without recording anything
func (h *SaleHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var cart domain.Cart
	if !decodeBody(w, r, &cart, h.logger) {
		return
	}

	sale, err := h.billing.Quote(r.Context(), cart)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sale)
}

// Checkout records a sale
func (h *SaleHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var cart domain.Cart
	if !decodeBody(w, r, &cart, h.logger) {
		return
	}

	sale, err := h.billing.Checkout(r.Context(), cart)
	if err != nil {
		staffID, _ := middleware.GetStaffID(r.Context())
		h.logger.Info("Checkout rejected",
			zap.String("staff_id", staffID.String()),
			zap.Error(err),
		)
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, sale)
}

// List returns sales newest first. Accepts from, to (YYYY-MM-DD), status and limit.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from", h.loc)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := queryDate(r, "to", h.loc)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid to date")
		return
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	limit, err := queryInt(r, "limit", DefaultSaleListLimit)
	if err != nil || limit <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	sales, err := h.sales.List(r.Context(), domain.SaleFilter{
		From:   from,
		To:     to,
		Status: domain.SaleStatus(r.URL.Query().Get("status")),
		Limit:  limit,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sales)
}

// Get returns a sale with its lines
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sale, err := h.sales.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sale)
}

// UpdateStatus moves a sale along its lifecycle
func (h *SaleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateSaleStatusRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	sale, err := h.sales.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sale)
}
