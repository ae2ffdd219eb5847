package transport

import (
	"net/http"
	"strconv"
	"time"

	"mobile-pos/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DateLayout is the format of date query parameters
const DateLayout = "2006-01-02"

// decodeRequest decodes and validates a JSON body. It writes the error
// response itself and reports whether the handler should continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err), zap.String("path", r.URL.Path))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// decodeBody decodes a JSON body whose validation is left to the service
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeJSON(r, v); err != nil {
		logger.Debug("Request decode failed", zap.Error(err), zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// queryDate parses an optional YYYY-MM-DD parameter in loc. A missing value
// yields the zero time.
func queryDate(r *http.Request, name string, loc *time.Location) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, raw, loc)
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
