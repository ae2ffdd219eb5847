package transport

import (
	"net/http"
	"testing"

	"mobile-pos/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceTickets_MaterialCostIsAdminOnly(t *testing.T) {
	f := newAPIFixture(t)
	body := map[string]interface{}{
		"model_name":    "Galaxy A54",
		"problem":       "Battery drains overnight",
		"customer_name": "Joseph",
		"phone_number":  "9000000001",
		"amount":        "800",
		"material_cost": "450",
	}

	// Counter staff cannot record a material cost.
	w := f.do("POST", "/api/service-tickets", f.userToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	userTicket := decodeAs[domain.ServiceTicket](t, w)
	assert.Nil(t, userTicket.MaterialCost)
	assert.Equal(t, domain.TicketReceived, userTicket.Status)

	w = f.do("POST", "/api/service-tickets", f.adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code)
	adminTicket := decodeAs[domain.ServiceTicket](t, w)
	require.NotNil(t, adminTicket.MaterialCost)
	assert.Equal(t, "450.00", adminTicket.MaterialCost.StringFixed(2))

	w = f.do("GET", "/api/service-tickets/"+adminTicket.ID.String(), f.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "material_cost")

	w = f.do("GET", "/api/service-tickets", f.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, ticket := range decodeAs[[]domain.ServiceTicket](t, w) {
		assert.Nil(t, ticket.MaterialCost)
	}

	w = f.do("GET", "/api/service-tickets/"+adminTicket.ID.String(), f.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decodeAs[domain.ServiceTicket](t, w).MaterialCost)
}

func TestServiceTickets_UpdateAndFilter(t *testing.T) {
	f := newAPIFixture(t)

	for _, model := range []string{"iPhone 12", "Nokia 105"} {
		w := f.do("POST", "/api/service-tickets", f.userToken, map[string]interface{}{
			"model_name":    model,
			"problem":       "Charging port loose",
			"customer_name": "Asha",
			"amount":        "300",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := f.do("GET", "/api/service-tickets?q=nokia", f.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tickets := decodeAs[[]domain.ServiceTicket](t, w)
	require.Len(t, tickets, 1)
	path := "/api/service-tickets/" + tickets[0].ID.String()

	w = f.do("PATCH", path, f.userToken, map[string]string{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do("PATCH", path, f.adminToken, map[string]string{"status": "completed", "comments": "port replaced"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeAs[domain.ServiceTicket](t, w)
	assert.Equal(t, domain.TicketCompleted, updated.Status)
	assert.Equal(t, "port replaced", updated.Comments)

	w = f.do("GET", "/api/service-tickets?status=completed", f.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeAs[[]domain.ServiceTicket](t, w), 1)

	w = f.do("GET", "/api/service-tickets?status=lost", f.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("PATCH", path, f.adminToken, map[string]string{"amount": "-5"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorIssues(t, w), "amount must not be negative")
}

func TestServiceTickets_CreateValidation(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do("POST", "/api/service-tickets", f.userToken, map[string]interface{}{"amount": "-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.GreaterOrEqual(t, len(errorIssues(t, w)), 4)
}
