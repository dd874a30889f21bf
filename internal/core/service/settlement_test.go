package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/testutil"
)

func TestSettle_DecrementsStock(t *testing.T) {
	env := newCheckoutEnv(shirt("A", 1000, testutil.Stock(5)), shirt("B", 100, nil))

	err := env.svc.Settle(context.Background(), SettleRequest{Cart: domain.Cart{{ProductID: "A", Quantity: 2}, {ProductID: "B", Quantity: 4}}})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	if got := *env.db.StockOf("A"); got != 3 {
		t.Errorf("expected stock 3, got %d", got)
	}
	if env.db.StockOf("B") != nil {
		t.Error("unlimited stock should stay unlimited")
	}
	if env.publisher.Count() != 1 {
		t.Errorf("expected one settlement event, got %d", env.publisher.Count())
	}
}

// Without an idempotency key a repeated settlement decrements again.
func TestSettle_TwiceWithoutKeyDoubleDecrements(t *testing.T) {
	env := newCheckoutEnv(shirt("A", 1000, testutil.Stock(5)))
	cart := domain.Cart{{ProductID: "A", Quantity: 2}}

	if err := env.svc.Settle(context.Background(), SettleRequest{Cart: cart}); err != nil {
		t.Fatalf("first settle failed: %v", err)
	}
	if err := env.svc.Settle(context.Background(), SettleRequest{Cart: cart}); err != nil {
		t.Fatalf("second settle failed: %v", err)
	}

	if got := *env.db.StockOf("A"); got != 1 {
		t.Errorf("expected stock 1 after two settlements, got %d", got)
	}
}

func TestSettle_IdempotencyKeyBlocksRepeat(t *testing.T) {
	env := newCheckoutEnv(shirt("A", 1000, testutil.Stock(5)))
	cart := domain.Cart{{ProductID: "A", Quantity: 2}}

	if err := env.svc.Settle(context.Background(), SettleRequest{Cart: cart, IdempotencyKey: "order-1"}); err != nil {
		t.Fatalf("first settle failed: %v", err)
	}
	err := env.svc.Settle(context.Background(), SettleRequest{Cart: cart, IdempotencyKey: "order-1"})
	if !errors.Is(err, ErrDuplicateSettlement) {
		t.Errorf("expected ErrDuplicateSettlement, got %v", err)
	}

	if got := *env.db.StockOf("A"); got != 3 {
		t.Errorf("expected stock 3, got %d", got)
	}
}

func TestSettle_AllOrNothing(t *testing.T) {
	env := newCheckoutEnv(shirt("A", 1000, testutil.Stock(5)), shirt("B", 1000, testutil.Stock(1)))

	err := env.svc.Settle(context.Background(), SettleRequest{Cart: domain.Cart{{ProductID: "A", Quantity: 2}, {ProductID: "B", Quantity: 2}}})

	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Kind != domain.ErrorKindOutOfStock || derr.ProductID != "B" {
		t.Fatalf("expected out of stock on B, got %v", err)
	}
	if got := *env.db.StockOf("A"); got != 5 {
		t.Errorf("A must be untouched after rollback, got %d", got)
	}
	if env.publisher.Count() != 0 {
		t.Error("no event expected for a failed settlement")
	}
}

func TestSettle_FailureReleasesIdempotencyKey(t *testing.T) {
	env := newCheckoutEnv(shirt("A", 1000, testutil.Stock(1)))

	err := env.svc.Settle(context.Background(), SettleRequest{Cart: domain.Cart{{ProductID: "A", Quantity: 2}}, IdempotencyKey: "order-2"})
	if !domain.IsKind(err, domain.ErrorKindOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if env.cache.HasIdempotency(settleKeyPrefix + "order-2") {
		t.Error("key should be released after failed settlement")
	}
}

func TestSettle_UnknownProductFails(t *testing.T) {
	env := newCheckoutEnv(shirt("A", 1000, testutil.Stock(5)))

	err := env.svc.Settle(context.Background(), SettleRequest{Cart: domain.Cart{{ProductID: "ghost", Quantity: 1}}})
	if !domain.IsKind(err, domain.ErrorKindOutOfStock) {
		t.Errorf("expected out of stock, got %v", err)
	}
}

func TestSettle_PublishFailureDoesNotFail(t *testing.T) {
	env := newCheckoutEnv(shirt("A", 1000, testutil.Stock(5)))
	env.publisher.Err = errors.New("broker down")

	if err := env.svc.Settle(context.Background(), SettleRequest{Cart: domain.Cart{{ProductID: "A", Quantity: 1}}}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got := *env.db.StockOf("A"); got != 4 {
		t.Errorf("expected stock 4, got %d", got)
	}
}

func TestSettle_ConcurrentLastUnit(t *testing.T) {
	env := newCheckoutEnv(shirt("A", 1000, testutil.Stock(1)))
	cart := domain.Cart{{ProductID: "A", Quantity: 1}}
	ctx := context.Background()

	// both attempts see the last unit before either settles
	for i := 0; i < 2; i++ {
		if _, err := env.svc.PaymentSheet(ctx, cart); err != nil {
			t.Fatalf("payment sheet %d failed: %v", i, err)
		}
	}

	var successCount, outOfStock atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.svc.Settle(ctx, SettleRequest{Cart: cart})
			if err == nil {
				successCount.Add(1)
			} else if domain.IsKind(err, domain.ErrorKindOutOfStock) {
				outOfStock.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 || outOfStock.Load() != 1 {
		t.Errorf("expected 1 success and 1 out of stock, got %d/%d", successCount.Load(), outOfStock.Load())
	}
	if got := *env.db.StockOf("A"); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}

func TestSettle_Concurrent(t *testing.T) {
	initialStock := int64(20)
	totalRequests := 50

	env := newCheckoutEnv(shirt("A", 1000, testutil.Stock(initialStock)))

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := env.svc.Settle(context.Background(), SettleRequest{Cart: domain.Cart{{ProductID: "A", Quantity: 1}}}); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successes, got %d", initialStock, successCount.Load())
	}
	if got := *env.db.StockOf("A"); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}
