package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type PaymentGateway interface {
	// CreateCustomer always creates a fresh customer record
	CreateCustomer(ctx context.Context) (string, error)

	// CreateEphemeralKey returns the secret of a key scoped to the customer
	CreateEphemeralKey(ctx context.Context, customerID string) (string, error)

	CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (domain.PaymentIntent, error)
}

type WebhookVerifier interface {
	// ParseEvent verifies the signature and decodes the event
	ParseEvent(payload []byte, signature string) (domain.GatewayEvent, error)
}
