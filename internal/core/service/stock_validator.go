package service

import (
	"context"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type StockValidator struct {
	db port.DatabaseRepository
}

func NewStockValidator(db port.DatabaseRepository) *StockValidator {
	return &StockValidator{db: db}
}

// Validate checks every line of the merged cart against current stock with one
// batched lookup. A product missing from the store counts as zero stock.
// The first short line, in cart order, fails the whole cart.
func (v *StockValidator) Validate(ctx context.Context, cart domain.Cart) error {
	lines, err := cart.Merge()
	if err != nil {
		return err
	}

	stocks, err := v.db.FindStock(ctx, lines.ProductIDs())
	if err != nil {
		return fmt.Errorf("find stock: %w", err)
	}

	byID := make(map[string]domain.ProductStock, len(stocks))
	for _, s := range stocks {
		byID[s.ID] = s
	}

	for _, line := range lines {
		stock, ok := byID[line.ProductID]
		if !ok || !stock.Covers(line.Quantity) {
			return domain.OutOfStock(line.ProductID)
		}
	}

	return nil
}
