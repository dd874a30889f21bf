package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/rl1809/storefront/internal/core/domain"
)

// fakeStripe records form posts and answers with canned Stripe objects.
type fakeStripe struct {
	mu       sync.Mutex
	requests map[string][]*http.Request
	forms    map[string][]map[string]string
	status   int
}

func newFakeStripe(t *testing.T) (*fakeStripe, *StripeGateway) {
	f := &fakeStripe{
		requests: make(map[string][]*http.Request),
		forms:    make(map[string][]map[string]string),
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	gw := NewStripeGateway(StripeConfig{
		SecretKey: "sk_test_123",
		Backends:  &stripe.Backends{API: backend, Connect: backend, Uploads: backend},
		Breaker:   BreakerConfig{MaxFailures: 3},
	})
	return f, gw
}

func (f *fakeStripe) serve(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}

	f.mu.Lock()
	f.requests[r.URL.Path] = append(f.requests[r.URL.Path], r)
	f.forms[r.URL.Path] = append(f.forms[r.URL.Path], form)
	status := f.status
	n := len(f.requests[r.URL.Path])
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"type":"api_error","message":"status %d"}}`, status)
		return
	}

	switch r.URL.Path {
	case "/v1/customers":
		fmt.Fprintf(w, `{"id":"cus_%d","object":"customer"}`, n)
	case "/v1/ephemeral_keys":
		fmt.Fprintf(w, `{"id":"ephkey_%d","object":"ephemeral_key","secret":"ek_test_%d"}`, n, n)
	case "/v1/payment_intents":
		fmt.Fprintf(w, `{"id":"pi_%d","object":"payment_intent","client_secret":"pi_%d_secret","amount":%s,"currency":%q}`,
			n, n, r.PostForm.Get("amount"), r.PostForm.Get("currency"))
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"unknown path"}}`)
	}
}

func (f *fakeStripe) calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests[path])
}

func TestCreateCustomer(t *testing.T) {
	f, gw := newFakeStripe(t)

	id, err := gw.CreateCustomer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cus_1", id)
	assert.Equal(t, 1, f.calls("/v1/customers"))
}

func TestCreateEphemeralKey_PinsAPIVersion(t *testing.T) {
	f, gw := newFakeStripe(t)

	secret, err := gw.CreateEphemeralKey(context.Background(), "cus_42")
	require.NoError(t, err)
	assert.Equal(t, "ek_test_1", secret)

	req := f.requests["/v1/ephemeral_keys"][0]
	assert.Equal(t, DefaultAPIVersion, req.Header.Get("Stripe-Version"))
	assert.Equal(t, "cus_42", f.forms["/v1/ephemeral_keys"][0]["customer"])
}

func TestCreatePaymentIntent(t *testing.T) {
	f, gw := newFakeStripe(t)

	intent, err := gw.CreatePaymentIntent(context.Background(), domain.PaymentIntentRequest{
		Amount:         2000,
		Currency:       "usd",
		CustomerID:     "cus_1",
		IdempotencyKey: "checkout-1",
		Metadata:       map[string]string{"checkout_id": "checkout-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)

	form := f.forms["/v1/payment_intents"][0]
	assert.Equal(t, "2000", form["amount"])
	assert.Equal(t, "usd", form["currency"])
	assert.Equal(t, "cus_1", form["customer"])
	assert.Equal(t, "true", form["automatic_payment_methods[enabled]"])
	assert.Equal(t, "checkout-1", form["metadata[checkout_id]"])
	assert.Equal(t, "checkout-1", f.requests["/v1/payment_intents"][0].Header.Get("Idempotency-Key"))
}

func TestCreateCustomer_StripeError(t *testing.T) {
	f, gw := newFakeStripe(t)
	f.status = http.StatusPaymentRequired

	_, err := gw.CreateCustomer(context.Background())

	var stripeErr *stripe.Error
	require.ErrorAs(t, err, &stripeErr)
	assert.Equal(t, http.StatusPaymentRequired, stripeErr.HTTPStatusCode)
}

func TestBreaker_OpensOnOutage(t *testing.T) {
	f, gw := newFakeStripe(t)
	f.status = http.StatusInternalServerError

	for i := 0; i < 3; i++ {
		_, err := gw.CreateCustomer(context.Background())
		require.Error(t, err)
	}

	_, err := gw.CreateCustomer(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, f.calls("/v1/customers"))
}

func TestBreaker_IgnoresRequestErrors(t *testing.T) {
	f, gw := newFakeStripe(t)
	f.status = http.StatusBadRequest

	for i := 0; i < 5; i++ {
		_, err := gw.CreateCustomer(context.Background())
		require.Error(t, err)
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
	}
	assert.Equal(t, 5, f.calls("/v1/customers"))
}

func TestIsHealthyResponse(t *testing.T) {
	assert.True(t, isHealthyResponse(nil))
	assert.True(t, isHealthyResponse(&stripe.Error{HTTPStatusCode: http.StatusPaymentRequired}))
	assert.False(t, isHealthyResponse(&stripe.Error{HTTPStatusCode: http.StatusTooManyRequests}))
	assert.False(t, isHealthyResponse(&stripe.Error{HTTPStatusCode: http.StatusBadGateway}))
	assert.False(t, isHealthyResponse(errors.New("connection refused")))
}
