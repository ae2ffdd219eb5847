package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	StaffIDKey   contextKey = "staff_id"
	StaffRoleKey contextKey = "staff_role"
)

// AuthMiddleware validates JWT tokens and extracts staff claims
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if !token.Valid {
				logger.Debug("Invalid token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Error("Failed to extract claims from token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			rawID, ok := claims["staff_id"].(string)
			if !ok {
				logger.Warn("Missing staff_id in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}
			staffID, err := uuid.Parse(rawID)
			if err != nil {
				logger.Warn("Malformed staff_id in token claims", zap.String("staff_id", rawID))
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			role, ok := claims["role"].(string)
			if !ok {
				logger.Warn("Missing role in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), StaffIDKey, staffID)
			ctx = context.WithValue(ctx, StaffRoleKey, role)

			logger.Debug("Staff authenticated",
				zap.String("staff_id", staffID.String()),
				zap.String("role", role),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetStaffID extracts the authenticated staff ID from the request context
func GetStaffID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(StaffIDKey).(uuid.UUID)
	return id, ok
}

// GetStaffRole extracts the authenticated staff role from the request context
func GetStaffRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(StaffRoleKey).(string)
	return role, ok
}
