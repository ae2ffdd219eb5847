package transport

import (
	"net/http"
	"strings"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/middleware"
	"mobile-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServiceTicketHandler serves repair tickets. Material cost is only shown to
// and accepted from admins.
type ServiceTicketHandler struct {
	tickets service.ServiceTicketService
	loc     *time.Location
	logger  *zap.Logger
}

// NewServiceTicketHandler creates a new ServiceTicketHandler
func NewServiceTicketHandler(tickets service.ServiceTicketService, loc *time.Location, logger *zap.Logger) *ServiceTicketHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ServiceTicketHandler{
		tickets: tickets,
		loc:     loc,
		logger:  logger,
	}
}

// RegisterRoutes registers the service ticket routes
func (h *ServiceTicketHandler) RegisterRoutes(r chi.Router, auth, admin func(http.Handler) http.Handler) {
	r.Route("/api/service-tickets", func(r chi.Router) {
		r.Use(auth)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.With(admin).Patch("/{id}", h.Update)
	})
}

// redact hides material cost from non-admin staff
func redact(r *http.Request, tickets ...*domain.ServiceTicket) {
	if middleware.IsAdmin(r.Context()) {
		return
	}
	for _, t := range tickets {
		t.MaterialCost = nil
	}
}

// Create opens a repair ticket
func (h *ServiceTicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var ticket domain.ServiceTicket
	if !decodeBody(w, r, &ticket, h.logger) {
		return
	}
	redact(r, &ticket)

	created, err := h.tickets.Create(r.Context(), &ticket)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// List returns tickets filtered by q, status and a service date range
func (h *ServiceTicketHandler) List(w http.ResponseWriter, r *http.Request) {
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

	status := domain.TicketStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	tickets, err := h.tickets.List(r.Context(), domain.TicketFilter{
		Text:   strings.TrimSpace(r.URL.Query().Get("q")),
		From:   from,
		To:     to,
		Status: status,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	redact(r, tickets...)
	middleware.RespondWithJSON(w, http.StatusOK, tickets)
}

// Get returns one ticket
func (h *ServiceTicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ticket, err := h.tickets.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	redact(r, ticket)
	middleware.RespondWithJSON(w, http.StatusOK, ticket)
}

// Update changes status, comments, amount or material cost
func (h *ServiceTicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var patch domain.TicketPatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	ticket, err := h.tickets.Update(r.Context(), id, patch)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Service ticket updated",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("status", string(ticket.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, ticket)
}
