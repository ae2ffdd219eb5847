package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			handler := AuthMiddleware("test-secret", zap.NewNop())(okHandler())

			path := "/" + pathSuffix
			if path == "/" {
				path = "/test"
			}

			req := httptest.NewRequest(method, path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PATCH", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ExpiredTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("expired tokens are rejected with 401", prop.ForAll(
		func(role string) bool {
			secret := "test-secret"
			handler := AuthMiddleware(secret, zap.NewNop())(okHandler())

			tokenString := signToken(t, secret, jwt.MapClaims{
				"staff_id": uuid.NewString(),
				"role":     role,
				"exp":      time.Now().Add(-1 * time.Hour).Unix(),
			})

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+tokenString)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.OneConstOf("user", "admin"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidTokensAllowProcessing(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid tokens put staff ID and role in the context", prop.ForAll(
		func(role string) bool {
			secret := "test-secret"
			staffID := uuid.New()

			handlerCalled := false
			handler := AuthMiddleware(secret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true

				ctxID, ok1 := GetStaffID(r.Context())
				ctxRole, ok2 := GetStaffRole(r.Context())
				if !ok1 || !ok2 || ctxID != staffID || ctxRole != role {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))

			tokenString := signToken(t, secret, jwt.MapClaims{
				"staff_id": staffID.String(),
				"role":     role,
				"exp":      time.Now().Add(1 * time.Hour).Unix(),
			})

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+tokenString)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return handlerCalled && w.Code == http.StatusOK
		},
		gen.OneConstOf("user", "admin"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_InvalidTokenFormatRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("invalid token formats are rejected", prop.ForAll(
		func(invalidToken string) bool {
			handler := AuthMiddleware("test-secret", zap.NewNop())(okHandler())

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+invalidToken)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_MissingBearerPrefixRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("tokens without Bearer prefix are rejected", prop.ForAll(
		func(token string) bool {
			handler := AuthMiddleware("test-secret", zap.NewNop())(okHandler())

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_RejectsMalformedClaims(t *testing.T) {
	secret := "test-secret"
	handler := AuthMiddleware(secret, zap.NewNop())(okHandler())

	cases := map[string]jwt.MapClaims{
		"missing staff_id":   {"role": "admin", "exp": time.Now().Add(time.Hour).Unix()},
		"non-uuid staff_id":  {"staff_id": "42", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()},
		"missing role":       {"staff_id": uuid.NewString(), "exp": time.Now().Add(time.Hour).Unix()},
		"legacy user_id key": {"user_id": uuid.NewString(), "role": "admin", "exp": time.Now().Add(time.Hour).Unix()},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, secret, claims))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	secret := "test-secret"
	handler := AuthMiddleware(secret, zap.NewNop())(RequireAdmin(zap.NewNop())(okHandler()))

	for role, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		req := httptest.NewRequest("DELETE", "/api/catalog/x", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, secret, jwt.MapClaims{
			"staff_id": uuid.NewString(),
			"role":     role,
			"exp":      time.Now().Add(time.Hour).Unix(),
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}

	w := httptest.NewRecorder()
	RequireAdmin(zap.NewNop())(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
