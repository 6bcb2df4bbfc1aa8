package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollapsePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"Cart Item ID", "/api/v1/cart/items/prod-42", "/api/v1/cart/items/{id}"},
		{"Wishlist Item ID", "/api/v1/wishlist/items/prod-42", "/api/v1/wishlist/items/{id}"},
		{"Collection Itself", "/api/v1/cart/items", "/api/v1/cart/items"},
		{"Trailing Slash Only", "/api/v1/cart/items/", "/api/v1/cart/items/"},
		{"Deeper Path Left Alone", "/api/v1/cart/items/p1/extra", "/api/v1/cart/items/p1/extra"},
		{"Unrelated Path", "/api/v1/cart/summary", "/api/v1/cart/summary"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, collapsePath(tc.path))
		})
	}
}

func TestMiddleware_BoundsPathLabelCardinality(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/cart/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware(mux)

	collapsed := httpRequestsTotal.WithLabelValues("200", http.MethodDelete, "/api/v1/cart/items/{id}")
	before := testutil.ToFloat64(collapsed)

	for _, id := range []string{"111", "222", "333"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+id, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	// All three ids land on the one collapsed label.
	assert.Equal(t, float64(3), testutil.ToFloat64(collapsed)-before)

	raw := httpRequestsTotal.WithLabelValues("200", http.MethodDelete, "/api/v1/cart/items/111")
	assert.Zero(t, testutil.ToFloat64(raw))
}
