package domain

import (
	"strings"
	"time"
)

type CheckoutStatus string

const (
	CheckoutStatusInitiated          CheckoutStatus = "INITIATED"
	CheckoutStatusValidated          CheckoutStatus = "VALIDATED"
	CheckoutStatusPriced             CheckoutStatus = "PRICED"
	CheckoutStatusSessionCreated     CheckoutStatus = "SESSION_CREATED"
	CheckoutStatusSettled            CheckoutStatus = "SETTLED"
	CheckoutStatusRejectedOutOfStock CheckoutStatus = "REJECTED_OUT_OF_STOCK"
	CheckoutStatusGatewayFailed      CheckoutStatus = "GATEWAY_FAILED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusInitiated:      {CheckoutStatusValidated, CheckoutStatusRejectedOutOfStock},
	CheckoutStatusValidated:      {CheckoutStatusPriced},
	CheckoutStatusPriced:         {CheckoutStatusSessionCreated, CheckoutStatusGatewayFailed},
	CheckoutStatusSessionCreated: {CheckoutStatusSettled},
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSettled ||
		s == CheckoutStatusRejectedOutOfStock ||
		s == CheckoutStatusGatewayFailed
}

func (s CheckoutStatus) String() string {
	return string(s)
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentSession is the gateway-side state opened for one checkout attempt.
// It is never persisted in the product store.
type PaymentSession struct {
	CheckoutID         string
	CustomerID         string
	EphemeralKeySecret string
	PaymentIntentID    string
	ClientSecret       string
	Amount             int64
	Currency           string
}

type PaymentIntentRequest struct {
	Amount         int64
	Currency       string
	CustomerID     string
	IdempotencyKey string
	Metadata       map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentIntentIDFromSecret returns the intent id a client secret was issued for.
// Secrets look like pi_<id>_secret_<token>. A bare intent id is returned as is.
func PaymentIntentIDFromSecret(secret string) (string, bool) {
	if !strings.HasPrefix(secret, "pi_") {
		return "", false
	}
	id, _, _ := strings.Cut(secret, "_secret_")
	if id == "pi_" {
		return "", false
	}
	return id, true
}

// GatewayEvent is a verified notification pushed by the payment gateway.
type GatewayEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
}

const GatewayEventPaymentSucceeded = "payment_intent.succeeded"

type SettlementEvent struct {
	EventID         string     `json:"event_id"`
	PaymentIntentID string     `json:"payment_intent_id,omitempty"`
	Lines           []CartLine `json:"lines"`
	SettledAt       time.Time  `json:"settled_at"`
}

const EventCheckoutSettled = "checkout.settled"
