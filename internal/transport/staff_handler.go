package transport

import (
	"errors"
	"net/http"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/middleware"
	"mobile-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateStaffRequest represents the staff creation payload
type CreateStaffRequest struct {
	Username    string `json:"username" validate:"required,max=100"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"max=255"`
	Role        string `json:"role" validate:"required,oneof=admin user"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	Staff       StaffProfile `json:"staff"`
}

// StaffProfile represents staff profile data
type StaffProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func newStaffProfile(s *domain.Staff) StaffProfile {
	return StaffProfile{
		ID:          s.ID.String(),
		Username:    s.Username,
		DisplayName: s.DisplayName,
		Role:        s.Role,
	}
}

// StaffHandler handles login, profile and staff management
type StaffHandler struct {
	staffService service.StaffService
	logger       *zap.Logger
}

// NewStaffHandler creates a new StaffHandler
func NewStaffHandler(staffService service.StaffService, logger *zap.Logger) *StaffHandler {
	return &StaffHandler{
		staffService: staffService,
		logger:       logger,
	}
}

// RegisterRoutes registers the auth and staff routes. loginLimit wraps the
// login endpoint only.
func (h *StaffHandler) RegisterRoutes(r chi.Router, auth, admin, loginLimit func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/profile", h.GetProfile)
		})
	})

	r.With(auth, admin).Post("/api/staff", h.CreateStaff)
}

// Login handles staff authentication
func (h *StaffHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	token, staff, err := h.staffService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login failed", zap.String("username", req.Username))
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Staff logged in", zap.String("staff_id", staff.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		Staff:       newStaffProfile(staff),
	})
}

// GetProfile returns the authenticated staff member
func (h *StaffHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		h.logger.Error("Staff ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	staff, err := h.staffService.GetStaffByID(r.Context(), staffID)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newStaffProfile(staff))
}

// CreateStaff adds a staff account
func (h *StaffHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	staff, err := h.staffService.CreateStaff(r.Context(), req.Username, req.Password, req.DisplayName, req.Role)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Staff account created",
		zap.String("staff_id", staff.ID.String()),
		zap.String("role", staff.Role),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, newStaffProfile(staff))
}
