package service

import (
	"context"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type PaymentSessionInitiator struct {
	gateway  port.PaymentGateway
	currency string
}

func NewPaymentSessionInitiator(gateway port.PaymentGateway, currency string) *PaymentSessionInitiator {
	return &PaymentSessionInitiator{gateway: gateway, currency: currency}
}

// Open creates a fresh customer, an ephemeral key for it and a payment intent
// for amount. Customers are never looked up or reused.
func (p *PaymentSessionInitiator) Open(ctx context.Context, checkoutID string, amount int64) (domain.PaymentSession, error) {
	customerID, err := p.gateway.CreateCustomer(ctx)
	if err != nil {
		return domain.PaymentSession{}, domain.GatewayFailure(fmt.Errorf("create customer: %w", err))
	}

	keySecret, err := p.gateway.CreateEphemeralKey(ctx, customerID)
	if err != nil {
		return domain.PaymentSession{}, domain.GatewayFailure(fmt.Errorf("create ephemeral key: %w", err))
	}

	intent, err := p.gateway.CreatePaymentIntent(ctx, domain.PaymentIntentRequest{
		Amount:         amount,
		Currency:       p.currency,
		CustomerID:     customerID,
		IdempotencyKey: checkoutID,
		Metadata:       map[string]string{"checkout_id": checkoutID},
	})
	if err != nil {
		return domain.PaymentSession{}, domain.GatewayFailure(fmt.Errorf("create payment intent: %w", err))
	}

	return domain.PaymentSession{
		CheckoutID:         checkoutID,
		CustomerID:         customerID,
		EphemeralKeySecret: keySecret,
		PaymentIntentID:    intent.ID,
		ClientSecret:       intent.ClientSecret,
		Amount:             amount,
		Currency:           p.currency,
	}, nil
}
