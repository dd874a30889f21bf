package payment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/rl1809/storefront/internal/core/domain"
)

type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// ParseEvent checks the Stripe-Signature header and extracts the payment
// intent id for payment_intent.* events.
func (v *WebhookVerifier) ParseEvent(payload []byte, signature string) (domain.GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return domain.GatewayEvent{}, domain.Invalid(fmt.Errorf("verify webhook: %w", err))
	}

	out := domain.GatewayEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return domain.GatewayEvent{}, domain.Invalid(fmt.Errorf("decode payment intent: %w", err))
		}
		out.PaymentIntentID = obj.ID
	}
	return out, nil
}
