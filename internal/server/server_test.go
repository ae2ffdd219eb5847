package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mobile-pos/internal/config"
	"mobile-pos/internal/domain"
	"mobile-pos/internal/observability"
	"mobile-pos/internal/repository/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			DataMode:       config.DataModeMemory,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		JWT:       config.JWTConfig{Secret: "server-test-secret", AccessExpiry: 60},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 1000, LoginPerMinute: 1000},
		Report:    config.ReportConfig{TimeZone: "UTC"},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, deps Deps) http.Handler {
	t.Helper()

	if deps.Store == nil {
		store, err := memory.NewSeeded("admin123", "user123")
		require.NoError(t, err)
		deps.Store = store
	}
	router, err := NewRouter(cfg, zap.NewNop(), deps)
	require.NoError(t, err)
	return router
}

func serve(router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()

	w := serve(router, "POST", "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, testConfig(), Deps{})

	w := serve(router, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","data_mode":"memory"}`, w.Body.String())
}

func TestHealth_DegradedDatabase(t *testing.T) {
	router := newTestRouter(t, testConfig(), Deps{
		Health: func(context.Context) map[string]string {
			return map[string]string{"status": "down", "error": "db down"}
		},
	})

	w := serve(router, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)
}

func TestNewRouter_RejectsUnknownTimeZone(t *testing.T) {
	cfg := testConfig()
	cfg.Report.TimeZone = "Mars/Olympus_Mons"

	store, err := memory.NewSeeded("admin123", "user123")
	require.NoError(t, err)
	_, err = NewRouter(cfg, zap.NewNop(), Deps{Store: store})
	assert.Error(t, err)
}

func TestRouter_CheckoutIsCountedInMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	store, err := memory.NewSeeded("admin123", "user123")
	require.NoError(t, err)
	router := newTestRouter(t, testConfig(), Deps{Store: store, Metrics: metrics})

	token := login(t, router, "user", "user123")

	items, err := store.Repos().Catalog.List(context.Background(), domain.CatalogFilter{Text: "APL-USBC-20W"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	w := serve(router, "POST", "/api/sales", token, domain.Cart{
		CustomerName: "Ravi",
		Lines:        []domain.CartLine{{CatalogItemID: items[0].ID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(router, "POST", "/api/sales", token, domain.Cart{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "mobile_pos_billing_checkouts_total 1")
	assert.Contains(t, body, `mobile_pos_billing_checkout_rejections_total{reason="validation"} 1`)
	assert.Contains(t, body, "mobile_pos_billing_items_sold_total 2")
	assert.True(t, strings.Contains(body, `route="/api/sales/"`) || strings.Contains(body, `route="/api/sales"`))
}

func TestRouter_RoleGating(t *testing.T) {
	router := newTestRouter(t, testConfig(), Deps{})
	userToken := login(t, router, "user", "user123")
	adminToken := login(t, router, "admin", "admin123")

	cases := []struct {
		path  string
		token string
		want  int
	}{
		{"/api/catalog", "", http.StatusUnauthorized},
		{"/api/catalog", userToken, http.StatusOK},
		{"/api/dashboard", userToken, http.StatusForbidden},
		{"/api/dashboard", adminToken, http.StatusOK},
		{"/api/catalog/low-stock", adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		w := serve(router, "GET", tc.path, tc.token, nil)
		assert.Equal(t, tc.want, w.Code, tc.path)
	}
}

func TestRouter_LoginLimitSharedThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig()
	cfg.RateLimit.LoginPerMinute = 2
	router := newTestRouter(t, cfg, Deps{Redis: client})

	creds := map[string]string{"username": "admin", "password": "wrong-password"}
	assert.Equal(t, http.StatusUnauthorized, serve(router, "POST", "/api/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "POST", "/api/auth/login", "", creds).Code)

	w := serve(router, "POST", "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	keys := mr.Keys()
	assert.Contains(t, keys, "rate_limit:login:192.0.2.1:1234")
}

func TestServerClose(t *testing.T) {
	store, err := memory.NewSeeded("admin123", "user123")
	require.NoError(t, err)

	srv, err := NewServer(testConfig(), zap.NewNop(), Deps{Store: store})
	require.NoError(t, err)
	assert.Equal(t, ":0", srv.Addr)
	assert.NoError(t, srv.Close())
}
