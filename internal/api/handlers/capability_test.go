package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eshop-labs/commerce-engine/internal/api/handlers"
	"github.com/eshop-labs/commerce-engine/internal/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilityHandler_GetGrants(t *testing.T) {
	table, err := authz.NewCapabilityTable(authz.DefaultGrants())
	require.NoError(t, err)
	h := handlers.NewCapabilityHandler(table)

	rec := httptest.NewRecorder()
	h.GetGrants()(rec, httptest.NewRequest(http.MethodGet, "/admin/capabilities", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string][]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Data, "developer")

	// Owner is implicit and never listed.
	assert.NotContains(t, envelope.Data, "owner")
}

func TestCapabilityHandler_SetRole(t *testing.T) {
	t.Run("Updates Role Grants", func(t *testing.T) {
		table, err := authz.NewCapabilityTable(authz.DefaultGrants())
		require.NoError(t, err)
		h := handlers.NewCapabilityHandler(table)

		body := `{"role":"staff","capabilities":["view_dashboard","manage_orders"]}`
		rec := httptest.NewRecorder()

		h.SetRole()(rec, httptest.NewRequest(http.MethodPut, "/admin/capabilities", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		caps := table.Capabilities("staff")
		assert.True(t, caps[authz.CapManageOrders])
	})

	t.Run("Rejects Unknown Role", func(t *testing.T) {
		table, err := authz.NewCapabilityTable(authz.DefaultGrants())
		require.NoError(t, err)
		h := handlers.NewCapabilityHandler(table)

		body := `{"role":"wizard","capabilities":["view_dashboard"]}`
		rec := httptest.NewRecorder()

		h.SetRole()(rec, httptest.NewRequest(http.MethodPut, "/admin/capabilities", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Rejects Unknown Capability", func(t *testing.T) {
		table, err := authz.NewCapabilityTable(authz.DefaultGrants())
		require.NoError(t, err)
		h := handlers.NewCapabilityHandler(table)

		body := `{"role":"staff","capabilities":["launch_rockets"]}`
		rec := httptest.NewRecorder()

		h.SetRole()(rec, httptest.NewRequest(http.MethodPut, "/admin/capabilities", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Rejects Owner Row", func(t *testing.T) {
		table, err := authz.NewCapabilityTable(authz.DefaultGrants())
		require.NoError(t, err)
		h := handlers.NewCapabilityHandler(table)

		body := `{"role":"owner","capabilities":["view_dashboard"]}`
		rec := httptest.NewRecorder()

		h.SetRole()(rec, httptest.NewRequest(http.MethodPut, "/admin/capabilities", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
