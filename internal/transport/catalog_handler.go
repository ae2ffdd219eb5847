package transport

import (
	"net/http"
	"strings"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/middleware"
	"mobile-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterSerialRequest is the payload for recording a handset IMEI
type RegisterSerialRequest struct {
	Serial string `json:"serial" validate:"required,max=32"`
}

// CatalogHandler serves the catalog, categories and IMEI registry
type CatalogHandler struct {
	catalog service.CatalogService
	serials service.SerialRegistry
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, serials service.SerialRegistry, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		serials: serials,
		logger:  logger,
	}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, auth, admin func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Get("/api/categories", h.ListCategories)

		r.Route("/api/catalog", func(r chi.Router) {
			r.Get("/", h.List)
			r.With(admin).Get("/low-stock", h.LowStock)
			r.With(admin).Post("/", h.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.With(admin).Patch("/", h.Update)
				r.With(admin).Delete("/", h.Delete)

				r.Get("/serials", h.ListSerials)
				r.With(admin).Post("/serials", h.RegisterSerial)
			})
		})

		r.With(admin).Delete("/api/serials/{id}", h.ReleaseSerial)
	})
}

// ListCategories returns every category
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// List returns catalog items filtered by category, status and free text
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.CatalogFilter{
		Category: domain.Category(q.Get("category")),
		Status:   domain.ItemStatus(q.Get("status")),
		Text:     strings.TrimSpace(q.Get("q")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	items, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// LowStock returns items at or below their minimum stock level
func (h *CatalogHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.LowStock(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// Get returns one catalog item
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Create adds a catalog item
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item domain.CatalogItem
	if !decodeBody(w, r, &item, h.logger) {
		return
	}

	created, err := h.catalog.Create(r.Context(), &item)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// Update applies a partial update to a catalog item
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var patch domain.CatalogPatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	item, err := h.catalog.Update(r.Context(), id, patch)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Delete removes an item, or discontinues it when sales reference it
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	outcome, err := h.catalog.Delete(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]domain.DeleteOutcome{"outcome": outcome})
}

// ListSerials returns the IMEIs of an item. ?available=true restricts the
// list to unsold units, oldest first.
func (h *CatalogHandler) ListSerials(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var (
		units []*domain.SerialUnit
		err   error
	)
	if r.URL.Query().Get("available") == "true" {
		units, err = h.serials.ListAvailable(r.Context(), id)
	} else {
		units, err = h.serials.ListAll(r.Context(), id)
	}
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, units)
}

// RegisterSerial records a new IMEI for a serialized item
func (h *CatalogHandler) RegisterSerial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req RegisterSerialRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	unit, err := h.serials.Register(r.Context(), id, req.Serial)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, unit)
}

// ReleaseSerial deletes an unsold IMEI record
func (h *CatalogHandler) ReleaseSerial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.serials.Release(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
