package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/logging"
)

type CatalogService struct {
	db    port.DatabaseRepository
	cache port.CacheRepository
	group singleflight.Group
}

func NewCatalogService(db port.DatabaseRepository, cache port.CacheRepository) *CatalogService {
	return &CatalogService{db: db, cache: cache}
}

func (s *CatalogService) List(ctx context.Context, query domain.ProductQuery) (domain.ProductPage, error) {
	if err := query.Normalize(); err != nil {
		return domain.ProductPage{}, err
	}

	products, err := s.db.ListProducts(ctx, query)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	total, err := s.db.CountProducts(ctx, query)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("count products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}

	return domain.ProductPage{
		Products:   products,
		Pagination: domain.NewPagination(query.Page, query.Limit, total),
	}, nil
}

// FilterOptions returns the distinct attribute values of a category, served from
// cache when possible. Concurrent misses share one store round trip.
func (s *CatalogService) FilterOptions(ctx context.Context, category domain.Category) (domain.FilterOptions, error) {
	if !category.Valid() {
		return domain.FilterOptions{}, domain.InvalidField("category", "unknown category")
	}

	cached, err := s.cache.GetFilterOptions(ctx, category)
	if err == nil {
		return *cached, nil
	}
	if !errors.Is(err, port.ErrCacheMiss) {
		logging.Log(logging.Fields{Service: "catalog", Step: "filters_cache_get", Status: "failed", Error: err.Error()})
	}

	v, err, _ := s.group.Do(string(category), func() (any, error) {
		opts := domain.FilterOptions{
			Category: category,
			Values:   make(map[domain.AttributeField][]string),
		}
		for _, field := range domain.FilterFields(category) {
			values, err := s.db.DistinctValues(ctx, category, field)
			if err != nil {
				return nil, fmt.Errorf("distinct %s: %w", field, err)
			}
			if values == nil {
				values = []string{}
			}
			opts.Values[field] = values
		}
		if err := s.cache.SetFilterOptions(ctx, opts); err != nil {
			logging.Log(logging.Fields{Service: "catalog", Step: "filters_cache_set", Status: "failed", Error: err.Error()})
		}
		return opts, nil
	})
	if err != nil {
		return domain.FilterOptions{}, err
	}
	return v.(domain.FilterOptions), nil
}
