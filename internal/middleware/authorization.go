package middleware

import (
	"context"
	"net/http"

	"mobile-pos/internal/domain"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the staff member has the admin role
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{domain.RoleAdmin}, logger)
}

// RequireRole middleware ensures the staff member has one of the specified roles
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetStaffRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			allowed := false
			for _, allowedRole := range allowedRoles {
				if role == allowedRole {
					allowed = true
					break
				}
			}

			if !allowed {
				logger.Warn("Staff role not authorized",
					zap.String("role", role),
					zap.String("path", r.URL.Path),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IsAdmin reports whether the authenticated staff member is an admin
func IsAdmin(ctx context.Context) bool {
	role, ok := GetStaffRole(ctx)
	return ok && role == domain.RoleAdmin
}
