package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/pkg/logging"
)

const DefaultAPIVersion = "2024-04-10"

type StripeConfig struct {
	SecretKey  string
	APIVersion string
	// Backends overrides the Stripe endpoints. Nil talks to api.stripe.com.
	Backends *stripe.Backends
	Breaker  BreakerConfig
}

type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

type StripeGateway struct {
	api        *client.API
	apiVersion string
	breaker    *gobreaker.CircuitBreaker[any]
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, cfg.Backends)

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}

	return &StripeGateway{
		api:        api,
		apiVersion: cfg.APIVersion,
		breaker:    newBreaker("stripe", cfg.Breaker),
	}
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: isHealthyResponse,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Log(logging.Fields{
				Service: "payment",
				Step:    "breaker",
				Status:  to.String(),
				Message: fmt.Sprintf("%s breaker %s -> %s", name, from, to),
			})
		},
	})
}

// isHealthyResponse keeps request errors (bad card, invalid params) from
// tripping the breaker. Only outages and rate limiting count.
func isHealthyResponse(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := stripeErr.HTTPStatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	return false
}

func execute[T any](g *StripeGateway, fn func() (T, error)) (T, error) {
	out, err := g.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	customer, err := execute(g, func() (*stripe.Customer, error) {
		return g.api.Customers.New(params)
	})
	if err != nil {
		return "", err
	}
	return customer.ID, nil
}

func (g *StripeGateway) CreateEphemeralKey(ctx context.Context, customerID string) (string, error) {
	params := &stripe.EphemeralKeyParams{
		Customer:      stripe.String(customerID),
		StripeVersion: stripe.String(g.apiVersion),
	}
	params.Context = ctx

	key, err := execute(g, func() (*stripe.EphemeralKey, error) {
		return g.api.EphemeralKeys.New(params)
	})
	if err != nil {
		return "", err
	}
	return key.Secret, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		Customer: stripe.String(req.CustomerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	intent, err := execute(g, func() (*stripe.PaymentIntent, error) {
		return g.api.PaymentIntents.New(params)
	})
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	return domain.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}
