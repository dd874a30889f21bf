package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var errAmountOverflow = errors.New("cart total overflows")

type PricingAggregator struct {
	db port.DatabaseRepository
}

func NewPricingAggregator(db port.DatabaseRepository) *PricingAggregator {
	return &PricingAggregator{db: db}
}

// Total sums store-side unit price times quantity in minor units.
// Ids the store does not know contribute nothing.
func (a *PricingAggregator) Total(ctx context.Context, cart domain.Cart) (int64, error) {
	lines, err := cart.Merge()
	if err != nil {
		return 0, err
	}

	prices, err := a.db.FindPrices(ctx, lines.ProductIDs())
	if err != nil {
		return 0, fmt.Errorf("find prices: %w", err)
	}

	byID := make(map[string]int64, len(prices))
	for _, p := range prices {
		byID[p.ID] = p.Price
	}

	var total int64
	for _, line := range lines {
		price, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		if price != 0 && line.Quantity > math.MaxInt64/price {
			return 0, domain.Invalid(errAmountOverflow)
		}
		subtotal := price * line.Quantity
		if total > math.MaxInt64-subtotal {
			return 0, domain.Invalid(errAmountOverflow)
		}
		total += subtotal
	}

	return total, nil
}
