package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/testutil"
	"github.com/rl1809/storefront/pkg/metrics"
)

const validSignature = "t=1,v1=valid"

// stubVerifier accepts only validSignature and reads {"type","pi"} payloads.
type stubVerifier struct{}

func (stubVerifier) ParseEvent(payload []byte, signature string) (domain.GatewayEvent, error) {
	if signature != validSignature {
		return domain.GatewayEvent{}, domain.Invalid(errors.New("bad signature"))
	}
	var body struct {
		Type string `json:"type"`
		PI   string `json:"pi"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return domain.GatewayEvent{}, domain.Invalid(err)
	}
	return domain.GatewayEvent{ID: "evt_1", Type: body.Type, PaymentIntentID: body.PI}, nil
}

type testServer struct {
	db        *testutil.FakeDatabase
	cache     *testutil.FakeCache
	gateway   *testutil.FakeGateway
	publisher *testutil.FakePublisher
	checkout  *service.CheckoutService
	registry  *prometheus.Registry
	metrics   *metrics.ServerMetrics
	router    http.Handler
}

func newTestServer(t *testing.T, expose bool, products ...domain.Product) *testServer {
	t.Helper()
	s := &testServer{
		db:        testutil.NewFakeDatabase(products...),
		cache:     testutil.NewFakeCache(),
		gateway:   &testutil.FakeGateway{},
		publisher: &testutil.FakePublisher{},
		registry:  prometheus.NewRegistry(),
	}
	s.metrics = metrics.NewServerMetrics(s.registry, "api")
	s.checkout = service.NewCheckoutService(
		service.NewStockValidator(s.db),
		service.NewPricingAggregator(s.db),
		service.NewPaymentSessionInitiator(s.gateway, "usd"),
		service.NewStockSettlement(s.db, s.cache, s.publisher),
		s.cache,
	)
	catalog := service.NewCatalogService(s.db, s.cache)

	h := NewHTTPHandler(s.checkout, catalog, stubVerifier{}, HTTPConfig{
		PublishableKey:      "pk_test_123",
		ExposeGatewayErrors: expose,
		Metrics:             s.metrics,
	})
	s.router = NewRouter(h, RouterConfig{Metrics: s.metrics, Gatherer: s.registry})
	return s
}

func (s *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func shirt(id string, price int64, stock *int64, color string) domain.Product {
	return domain.Product{
		ID:       id,
		Category: domain.CategoryShirt,
		Title:    "Shirt " + id,
		Price:    price,
		Color:    color,
		Material: "cotton",
		Stock:    stock,
	}
}

func cartBody(lines ...any) map[string]any {
	products := make([]map[string]any, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		products = append(products, map[string]any{"id": lines[i], "quantity": lines[i+1]})
	}
	return map[string]any{"products": products}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}
