package service

import (
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/testutil"
)

func shirt(id string, price int64, stock *int64) domain.Product {
	return domain.Product{
		ID:       id,
		Category: domain.CategoryShirt,
		Title:    "Shirt " + id,
		Price:    price,
		Stock:    stock,
	}
}

type checkoutEnv struct {
	db        *testutil.FakeDatabase
	cache     *testutil.FakeCache
	gateway   *testutil.FakeGateway
	publisher *testutil.FakePublisher
	svc       *CheckoutService
}

func newCheckoutEnv(products ...domain.Product) *checkoutEnv {
	env := &checkoutEnv{
		db:        testutil.NewFakeDatabase(products...),
		cache:     testutil.NewFakeCache(),
		gateway:   &testutil.FakeGateway{},
		publisher: &testutil.FakePublisher{},
	}
	env.svc = NewCheckoutService(
		NewStockValidator(env.db),
		NewPricingAggregator(env.db),
		NewPaymentSessionInitiator(env.gateway, "usd"),
		NewStockSettlement(env.db, env.cache, env.publisher),
		env.cache,
	)
	return env
}
