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

var ErrDuplicateSettlement = errors.New("duplicate settlement")

const settleKeyPrefix = "settle:"

// SettleRequest carries the cart to settle. IdempotencyKey is optional; without
// it, settling the same cart twice decrements twice.
type SettleRequest struct {
	Cart            domain.Cart
	IdempotencyKey  string
	PaymentIntentID string
}

type StockSettlement struct {
	db     port.DatabaseRepository
	cache  port.CacheRepository
	events port.EventPublisher
}

func NewStockSettlement(db port.DatabaseRepository, cache port.CacheRepository, events port.EventPublisher) *StockSettlement {
	return &StockSettlement{db: db, cache: cache, events: events}
}

// Settle decrements stock for the merged cart as one all-or-nothing store operation.
// It does not check that a payment happened; callers invoke it only after the
// gateway confirmed one.
func (s *StockSettlement) Settle(ctx context.Context, req SettleRequest) error {
	lines, err := req.Cart.Merge()
	if err != nil {
		return err
	}

	var key string
	if req.IdempotencyKey != "" {
		key = settleKeyPrefix + req.IdempotencyKey
		ok, err := s.cache.SetIdempotency(ctx, key)
		if err != nil {
			return fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return ErrDuplicateSettlement
		}
	}

	if err := s.db.SettleCart(ctx, lines); err != nil {
		if key != "" {
			if releaseErr := s.cache.ReleaseIdempotency(context.WithoutCancel(ctx), key); releaseErr != nil {
				logging.Log(logging.Fields{
					Service: "checkout",
					Step:    "settle",
					Status:  "release_failed",
					Error:   releaseErr.Error(),
				})
			}
		}
		return fmt.Errorf("settle cart: %w", err)
	}

	event := domain.SettlementEvent{
		EventID:         uuid.NewString(),
		PaymentIntentID: req.PaymentIntentID,
		Lines:           lines,
		SettledAt:       time.Now().UTC(),
	}
	if err := s.events.PublishSettlement(ctx, event); err != nil {
		logging.Log(logging.Fields{
			Service:         "checkout",
			PaymentIntentID: req.PaymentIntentID,
			Step:            "publish",
			Status:          "failed",
			Error:           err.Error(),
		})
	}

	return nil
}
