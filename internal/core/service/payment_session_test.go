package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/testutil"
)

func TestOpen_ReturnsThreeSecrets(t *testing.T) {
	gateway := &testutil.FakeGateway{}
	session, err := NewPaymentSessionInitiator(gateway, "usd").Open(context.Background(), "checkout-1", 2000)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if session.CustomerID != "cus_1" || session.EphemeralKeySecret != "ek_test_cus_1" || session.ClientSecret != "pi_1_secret_fake" {
		t.Errorf("unexpected session: %+v", session)
	}
	if session.Amount != 2000 || session.Currency != "usd" {
		t.Errorf("unexpected amount/currency: %d %s", session.Amount, session.Currency)
	}

	req := gateway.Intents[0]
	if req.IdempotencyKey != "checkout-1" || req.Metadata["checkout_id"] != "checkout-1" {
		t.Errorf("intent not tied to checkout: %+v", req)
	}
}

func TestOpen_EachStepFailureIsGatewayFailure(t *testing.T) {
	cause := errors.New("stripe unavailable")

	tests := []struct {
		name    string
		setup   func(g *testutil.FakeGateway)
		wantKey int
	}{
		{"customer", func(g *testutil.FakeGateway) { g.CustomerErr = cause }, 0},
		{"ephemeral key", func(g *testutil.FakeGateway) { g.KeyErr = cause }, 0},
		{"payment intent", func(g *testutil.FakeGateway) { g.IntentErr = cause }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &testutil.FakeGateway{}
			tt.setup(gateway)

			_, err := NewPaymentSessionInitiator(gateway, "usd").Open(context.Background(), "checkout-1", 100)
			if !domain.IsKind(err, domain.ErrorKindGatewayFailure) {
				t.Fatalf("expected gateway failure, got %v", err)
			}
			if !errors.Is(err, cause) {
				t.Errorf("expected cause to be wrapped, got %v", err)
			}
			if gateway.Keys != tt.wantKey {
				t.Errorf("expected %d ephemeral keys, got %d", tt.wantKey, gateway.Keys)
			}
		})
	}
}
