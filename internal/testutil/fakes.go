// Package testutil holds in-memory implementations of the ports for tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

func Stock(n int64) *int64 {
	return &n
}

// FakeDatabase implements port.DatabaseRepository. SettleCart is atomic under one mutex.
type FakeDatabase struct {
	mu       sync.Mutex
	products map[string]*domain.Product

	Err       error
	SettleErr error

	FindStockCalls  int
	FindPricesCalls int
	SettleCalls     int
}

func NewFakeDatabase(products ...domain.Product) *FakeDatabase {
	f := &FakeDatabase{products: make(map[string]*domain.Product)}
	for _, p := range products {
		f.Put(p)
	}
	return f
}

func (f *FakeDatabase) Put(p domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Stock != nil {
		p.Stock = Stock(*p.Stock)
	}
	f.products[p.ID] = &p
}

// StockOf returns the current stock, nil for unlimited. Panics on unknown ids.
func (f *FakeDatabase) StockOf(id string) *int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		panic(fmt.Sprintf("unknown product %s", id))
	}
	if p.Stock == nil {
		return nil
	}
	return Stock(*p.Stock)
}

func (f *FakeDatabase) FindStock(ctx context.Context, ids []string) ([]domain.ProductStock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FindStockCalls++
	if f.Err != nil {
		return nil, f.Err
	}

	var out []domain.ProductStock
	seen := make(map[string]bool)
	for _, id := range ids {
		p, ok := f.products[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		s := domain.ProductStock{ID: id}
		if p.Stock != nil {
			s.Stock = Stock(*p.Stock)
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *FakeDatabase) FindPrices(ctx context.Context, ids []string) ([]domain.ProductPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FindPricesCalls++
	if f.Err != nil {
		return nil, f.Err
	}

	var out []domain.ProductPrice
	seen := make(map[string]bool)
	for _, id := range ids {
		p, ok := f.products[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, domain.ProductPrice{ID: id, Price: p.Price})
	}
	return out, nil
}

func (f *FakeDatabase) SettleCart(ctx context.Context, lines []domain.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SettleCalls++
	if f.Err != nil {
		return f.Err
	}
	if f.SettleErr != nil {
		return f.SettleErr
	}

	pending := make(map[string]int64)
	for _, line := range lines {
		p, ok := f.products[line.ProductID]
		if !ok {
			return domain.OutOfStock(line.ProductID)
		}
		if p.Stock != nil && *p.Stock-pending[line.ProductID] < line.Quantity {
			return domain.OutOfStock(line.ProductID)
		}
		pending[line.ProductID] += line.Quantity
	}
	for _, line := range lines {
		p := f.products[line.ProductID]
		if p.Stock != nil {
			*p.Stock -= line.Quantity
		}
		p.Version++
	}
	return nil
}

func (f *FakeDatabase) matching(q domain.ProductQuery) []domain.Product {
	var out []domain.Product
	var conds map[domain.AttributeField]string
	if q.Attributes != nil {
		conds = q.Attributes.Conditions()
	}
	for _, p := range f.products {
		if p.Category != q.Category {
			continue
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(q.Search)) {
			continue
		}
		ok := true
		for field, want := range conds {
			if attribute(*p, field) != want {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		less := out[i].Title < out[j].Title
		switch q.SortBy {
		case domain.SortByPrice:
			less = out[i].Price < out[j].Price
		case domain.SortByStock:
			less = stockValue(out[i]) < stockValue(out[j])
		}
		if q.SortOrder == domain.SortDesc {
			return !less
		}
		return less
	})
	return out
}

func stockValue(p domain.Product) int64 {
	if p.Stock == nil {
		return -1
	}
	return *p.Stock
}

func attribute(p domain.Product, field domain.AttributeField) string {
	switch field {
	case domain.AttrColor:
		return p.Color
	case domain.AttrMaterial:
		return p.Material
	case domain.AttrBrand:
		return p.Brand
	case domain.AttrOuterMaterial:
		return p.OuterMaterial
	case domain.AttrInnerMaterial:
		return p.InnerMaterial
	}
	return ""
}

func (f *FakeDatabase) ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	all := f.matching(q)
	start := min(q.Offset(), len(all))
	end := min(start+q.Limit, len(all))
	return all[start:end], nil
}

func (f *FakeDatabase) CountProducts(ctx context.Context, q domain.ProductQuery) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	return int64(len(f.matching(q))), nil
}

func (f *FakeDatabase) DistinctValues(ctx context.Context, category domain.Category, field domain.AttributeField) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range f.products {
		v := attribute(*p, field)
		if p.Category != category || v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// FakeCache implements port.CacheRepository.
type FakeCache struct {
	mu          sync.Mutex
	idempotency map[string]bool
	carts       map[string]domain.Cart
	filters     map[domain.Category]domain.FilterOptions

	Err          error
	FilterGets   int
	FilterSets   int
	ReleasedKeys []string
}

func NewFakeCache() *FakeCache {
	return &FakeCache{
		idempotency: make(map[string]bool),
		carts:       make(map[string]domain.Cart),
		filters:     make(map[domain.Category]domain.FilterOptions),
	}
}

func (c *FakeCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return false, c.Err
	}
	if c.idempotency[key] {
		return false, nil
	}
	c.idempotency[key] = true
	return true, nil
}

func (c *FakeCache) ReleaseIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.idempotency, key)
	c.ReleasedKeys = append(c.ReleasedKeys, key)
	return nil
}

func (c *FakeCache) HasIdempotency(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idempotency[key]
}

func (c *FakeCache) SaveCart(ctx context.Context, paymentIntentID string, cart domain.Cart) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.carts[paymentIntentID] = append(domain.Cart(nil), cart...)
	return nil
}

func (c *FakeCache) LoadCart(ctx context.Context, paymentIntentID string) (domain.Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	cart, ok := c.carts[paymentIntentID]
	if !ok {
		return nil, port.ErrCacheMiss
	}
	return cart, nil
}

func (c *FakeCache) GetFilterOptions(ctx context.Context, category domain.Category) (*domain.FilterOptions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FilterGets++
	if c.Err != nil {
		return nil, c.Err
	}
	opts, ok := c.filters[category]
	if !ok {
		return nil, port.ErrCacheMiss
	}
	return &opts, nil
}

func (c *FakeCache) SetFilterOptions(ctx context.Context, options domain.FilterOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FilterSets++
	if c.Err != nil {
		return c.Err
	}
	c.filters[options.Category] = options
	return nil
}

// FakeGateway implements port.PaymentGateway with sequential ids.
type FakeGateway struct {
	mu sync.Mutex
	n  int

	CustomerErr error
	KeyErr      error
	IntentErr   error

	Customers int
	Keys      int
	Intents   []domain.PaymentIntentRequest
}

func (g *FakeGateway) CreateCustomer(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CustomerErr != nil {
		return "", g.CustomerErr
	}
	g.Customers++
	g.n++
	return fmt.Sprintf("cus_%d", g.n), nil
}

func (g *FakeGateway) CreateEphemeralKey(ctx context.Context, customerID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.KeyErr != nil {
		return "", g.KeyErr
	}
	g.Keys++
	return "ek_test_" + customerID, nil
}

func (g *FakeGateway) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.IntentErr != nil {
		return domain.PaymentIntent{}, g.IntentErr
	}
	g.Intents = append(g.Intents, req)
	id := fmt.Sprintf("pi_%d", len(g.Intents))
	return domain.PaymentIntent{ID: id, ClientSecret: id + "_secret_fake"}, nil
}

// FakePublisher implements port.EventPublisher.
type FakePublisher struct {
	mu     sync.Mutex
	Events []domain.SettlementEvent
	Err    error
}

func (p *FakePublisher) PublishSettlement(ctx context.Context, event domain.SettlementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, event)
	return nil
}

func (p *FakePublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Events)
}
