package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	sessionKeyPrefix  = "session:"
	filtersKeyPrefix  = "filters:"
	idempotencyKeyTTL = 24 * time.Hour
	sessionTTL        = 24 * time.Hour
	filtersTTL        = 5 * time.Minute
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisAdapter) SaveCart(ctx context.Context, paymentIntentID string, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+paymentIntentID, data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisAdapter) LoadCart(ctx context.Context, paymentIntentID string) (domain.Cart, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+paymentIntentID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return cart, nil
}

func (r *RedisAdapter) GetFilterOptions(ctx context.Context, category domain.Category) (*domain.FilterOptions, error) {
	data, err := r.client.Get(ctx, filtersKeyPrefix+string(category)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var opts domain.FilterOptions
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("unmarshal filter options: %w", err)
	}
	return &opts, nil
}

func (r *RedisAdapter) SetFilterOptions(ctx context.Context, options domain.FilterOptions) error {
	data, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("marshal filter options: %w", err)
	}
	if err := r.client.Set(ctx, filtersKeyPrefix+string(options.Category), data, filtersTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
