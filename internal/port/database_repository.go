package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type DatabaseRepository interface {
	// FindStock returns id and stock for every id that exists; unknown ids are omitted
	FindStock(ctx context.Context, ids []string) ([]domain.ProductStock, error)

	// FindPrices returns id and unit price for every id that exists; unknown ids are omitted
	FindPrices(ctx context.Context, ids []string) ([]domain.ProductPrice, error)

	// SettleCart decrements stock for all lines in one transaction, all or nothing.
	// A line whose product is missing or short on stock fails with an out-of-stock error.
	SettleCart(ctx context.Context, lines []domain.CartLine) error

	// ListProducts returns one page of products matching the query
	ListProducts(ctx context.Context, query domain.ProductQuery) ([]domain.Product, error)

	// CountProducts counts every product matching the query, ignoring paging
	CountProducts(ctx context.Context, query domain.ProductQuery) (int64, error)

	// DistinctValues returns the sorted distinct values of an attribute within a category
	DistinctValues(ctx context.Context, category domain.Category, field domain.AttributeField) ([]string, error)
}
