package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/middleware"
	"mobile-pos/internal/repository/memory"
	"mobile-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret        = "test-secret"
	testAdminPassword = "admin123"
	testUserPassword  = "user123"
)

type apiFixture struct {
	t      *testing.T
	router chi.Router
	store  *memory.Store

	adminToken string
	userToken  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store, err := memory.NewSeeded(testAdminPassword, testUserPassword)
	require.NoError(t, err)

	logger := zap.NewNop()
	loc := time.UTC

	staffService := service.NewStaffService(store, testSecret, time.Hour)
	catalogService := service.NewCatalogService(store, logger)
	serialRegistry := service.NewSerialRegistry(store, logger)
	billingService := service.NewBillingService(store, domain.TaxSettings{}, nil, logger)
	saleService := service.NewSaleService(store, logger)
	reportService := service.NewReportService(store, loc, logger)
	ticketService := service.NewServiceTicketService(store, logger)

	auth := middleware.AuthMiddleware(testSecret, logger)
	admin := middleware.RequireAdmin(logger)
	noLimit := func(next http.Handler) http.Handler { return next }

	router := chi.NewRouter()
	NewStaffHandler(staffService, logger).RegisterRoutes(router, auth, admin, noLimit)
	NewCatalogHandler(catalogService, serialRegistry, logger).RegisterRoutes(router, auth, admin)
	NewSaleHandler(billingService, saleService, loc, logger).RegisterRoutes(router, auth, admin)
	NewReportHandler(reportService, ticketService, logger).RegisterRoutes(router, auth, admin)
	NewServiceTicketHandler(ticketService, loc, logger).RegisterRoutes(router, auth, admin)

	f := &apiFixture{t: t, router: router, store: store}
	f.adminToken = f.login("admin", testAdminPassword)
	f.userToken = f.login("user", testUserPassword)
	return f
}

func (f *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) login(username, password string) string {
	f.t.Helper()

	w := f.do("POST", "/api/auth/login", "", LoginRequest{Username: username, Password: password})
	require.Equal(f.t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(f.t, resp.AccessToken)
	return resp.AccessToken
}

// itemBySKU looks up a seeded catalog item
func (f *apiFixture) itemBySKU(sku string) *domain.CatalogItem {
	f.t.Helper()

	items, err := f.store.Repos().Catalog.List(context.Background(), domain.CatalogFilter{Text: sku})
	require.NoError(f.t, err)
	for _, item := range items {
		if item.SKU == sku {
			return item
		}
	}
	f.t.Fatalf("no seeded item with sku %s", sku)
	return nil
}

func decodeAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorIssues(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()

	resp := decodeAs[middleware.ErrorResponse](t, w)
	raw, ok := resp.Error.Details["issues"].([]interface{})
	require.True(t, ok, w.Body.String())

	issues := make([]string, 0, len(raw))
	for _, issue := range raw {
		issues = append(issues, issue.(string))
	}
	return issues
}
