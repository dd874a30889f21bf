package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/logging"
)

var ErrSessionNotFound = errors.New("payment session not found")

// paymentKeyPrefix keys every settlement of a confirmed payment intent, whichever
// path reports the confirmation.
const paymentKeyPrefix = "pi:"

type CheckoutService struct {
	validator  *StockValidator
	pricing    *PricingAggregator
	sessions   *PaymentSessionInitiator
	settlement *StockSettlement
	cache      port.CacheRepository
}

func NewCheckoutService(
	validator *StockValidator,
	pricing *PricingAggregator,
	sessions *PaymentSessionInitiator,
	settlement *StockSettlement,
	cache port.CacheRepository,
) *CheckoutService {
	return &CheckoutService{
		validator:  validator,
		pricing:    pricing,
		sessions:   sessions,
		settlement: settlement,
		cache:      cache,
	}
}

// attempt tracks one checkout through its state machine.
type attempt struct {
	id      string
	status  domain.CheckoutStatus
	started time.Time
}

func newAttempt() *attempt {
	return &attempt{
		id:      uuid.NewString(),
		status:  domain.CheckoutStatusInitiated,
		started: time.Now(),
	}
}

// resumeAttempt picks up a checkout whose payment session was opened by an
// earlier request.
func resumeAttempt() *attempt {
	return &attempt{
		status:  domain.CheckoutStatusSessionCreated,
		started: time.Now(),
	}
}

func (a *attempt) advance(to domain.CheckoutStatus, paymentIntentID string) {
	if !domain.CanTransitionTo(a.status, to) {
		panic(fmt.Sprintf("checkout %s: illegal transition %s -> %s", a.id, a.status, to))
	}
	a.status = to
	logging.Log(logging.Fields{
		Service:         "checkout",
		CheckoutID:      a.id,
		PaymentIntentID: paymentIntentID,
		Step:            "transition",
		Status:          to.String(),
		DurationMS:      time.Since(a.started).Milliseconds(),
	})
}

// PaymentSheet validates stock, prices the cart and opens a payment session, in that order.
func (s *CheckoutService) PaymentSheet(ctx context.Context, cart domain.Cart) (domain.PaymentSession, error) {
	if err := checkCart(cart); err != nil {
		return domain.PaymentSession{}, err
	}
	a := newAttempt()

	if err := s.validator.Validate(ctx, cart); err != nil {
		if domain.IsKind(err, domain.ErrorKindOutOfStock) {
			a.advance(domain.CheckoutStatusRejectedOutOfStock, "")
		}
		return domain.PaymentSession{}, err
	}
	a.advance(domain.CheckoutStatusValidated, "")

	amount, err := s.pricing.Total(ctx, cart)
	if err != nil {
		return domain.PaymentSession{}, err
	}
	a.advance(domain.CheckoutStatusPriced, "")

	session, err := s.sessions.Open(ctx, a.id, amount)
	if err != nil {
		a.advance(domain.CheckoutStatusGatewayFailed, "")
		return domain.PaymentSession{}, err
	}
	a.advance(domain.CheckoutStatusSessionCreated, session.PaymentIntentID)

	merged, err := cart.Merge()
	if err != nil {
		return domain.PaymentSession{}, err
	}
	if err := s.cache.SaveCart(ctx, session.PaymentIntentID, merged); err != nil {
		// the client can still settle through /checkout/success
		logging.Log(logging.Fields{
			Service:         "checkout",
			CheckoutID:      a.id,
			PaymentIntentID: session.PaymentIntentID,
			Step:            "save_cart",
			Status:          "failed",
			Error:           err.Error(),
		})
	}

	return session, nil
}

// Settle permanently removes the cart's quantities from stock.
//
// A request naming a payment intent settles under the same key as the webhook
// for that intent, so the purchase settles once whichever path reports it
// first, and the later report succeeds without touching stock. The cart cached
// when the payment sheet was opened wins over the request's cart, and
// IdempotencyKey is ignored.
func (s *CheckoutService) Settle(ctx context.Context, req SettleRequest) error {
	if err := checkCart(req.Cart); err != nil {
		return err
	}
	if req.PaymentIntentID == "" {
		return s.settlement.Settle(ctx, req)
	}

	cart, err := s.cache.LoadCart(ctx, req.PaymentIntentID)
	if errors.Is(err, port.ErrCacheMiss) {
		cart = req.Cart
	} else if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	err = s.settlePayment(ctx, cart, req.PaymentIntentID)
	if errors.Is(err, ErrDuplicateSettlement) {
		return nil
	}
	return err
}

// HandlePaymentSucceeded settles the cart cached for a confirmed payment intent.
// Repeated notifications for the same intent settle once.
func (s *CheckoutService) HandlePaymentSucceeded(ctx context.Context, paymentIntentID string) error {
	cart, err := s.cache.LoadCart(ctx, paymentIntentID)
	if errors.Is(err, port.ErrCacheMiss) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	return s.settlePayment(ctx, cart, paymentIntentID)
}

func (s *CheckoutService) settlePayment(ctx context.Context, cart domain.Cart, paymentIntentID string) error {
	err := s.settlement.Settle(ctx, SettleRequest{
		Cart:            cart,
		IdempotencyKey:  paymentKeyPrefix + paymentIntentID,
		PaymentIntentID: paymentIntentID,
	})
	if err != nil {
		return err
	}
	resumeAttempt().advance(domain.CheckoutStatusSettled, paymentIntentID)
	return nil
}

func checkCart(cart domain.Cart) error {
	if len(cart) == 0 {
		return domain.InvalidField("products", "must contain at least one product")
	}
	fields := map[string][]string{}
	for i, line := range cart {
		if line.ProductID == "" {
			key := fmt.Sprintf("products[%d].id", i)
			fields[key] = append(fields[key], "is required")
		}
		if line.Quantity <= 0 {
			key := fmt.Sprintf("products[%d].quantity", i)
			fields[key] = append(fields[key], "must be greater than 0")
		}
	}
	if len(fields) > 0 {
		return domain.InvalidFields(fields)
	}
	if _, err := cart.Merge(); err != nil {
		return err
	}
	return nil
}
