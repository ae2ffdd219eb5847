package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mobile-pos/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      http.StatusText(statusCode),
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	details := make(map[string]interface{})
	details["validation_errors"] = errors

	RespondWithErrorDetails(w, http.StatusBadRequest, "validation failed", details)
}

// StatusForError maps the domain error taxonomy to an HTTP status
func StatusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAllocationConflict),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrAlreadySold),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithDomainError writes the envelope for a service error. Validation
// issues and allocation conflicts carry their specifics in details; store
// failures are logged and hidden from the client.
func RespondWithDomainError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := StatusForError(err)

	var (
		verr     *domain.ValidationError
		conflict *domain.AllocationConflictError
	)
	switch {
	case errors.As(err, &verr):
		RespondWithErrorDetails(w, status, "validation failed", map[string]interface{}{
			"issues": verr.Issues,
		})
	case errors.As(err, &conflict):
		details := map[string]interface{}{"line": conflict.Line, "reason": conflict.Reason}
		if conflict.Serial != "" {
			details["serial"] = conflict.Serial
		}
		RespondWithErrorDetails(w, status, err.Error(), details)
	case status == http.StatusServiceUnavailable:
		logger.Error("Store failure", zap.Error(err))
		RespondWithError(w, status, "store unavailable, please retry")
	case status == http.StatusInternalServerError:
		logger.Error("Unexpected error", zap.Error(err))
		RespondWithError(w, status, "internal server error")
	default:
		RespondWithError(w, status, err.Error())
	}
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
