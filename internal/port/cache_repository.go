package port

import (
	"context"
	"errors"

	"github.com/rl1809/storefront/internal/core/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency removes the key so the guarded operation can be retried
	ReleaseIdempotency(ctx context.Context, key string) error

	// SaveCart stores the merged cart of a payment session
	SaveCart(ctx context.Context, paymentIntentID string, cart domain.Cart) error

	// LoadCart returns ErrCacheMiss when the session is unknown or expired
	LoadCart(ctx context.Context, paymentIntentID string) (domain.Cart, error)

	// GetFilterOptions returns ErrCacheMiss when nothing is cached
	GetFilterOptions(ctx context.Context, category domain.Category) (*domain.FilterOptions, error)

	SetFilterOptions(ctx context.Context, options domain.FilterOptions) error
}
