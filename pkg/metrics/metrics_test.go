package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerMetrics_Exposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "checkout")

	m.Requests.WithLabelValues("/health", "200").Inc()
	m.CheckoutOutcomes.WithLabelValues("settle", "SETTLED").Add(2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CheckoutOutcomes.WithLabelValues("settle", "SETTLED")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "storefront_checkout_http_requests_total"))
}
