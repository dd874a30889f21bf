package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/testutil"
)

func TestValidate_SufficientStock(t *testing.T) {
	db := testutil.NewFakeDatabase(
		shirt("A", 1000, testutil.Stock(5)),
		shirt("B", 500, testutil.Stock(1)),
	)
	v := NewStockValidator(db)

	err := v.Validate(context.Background(), domain.Cart{{ProductID: "A", Quantity: 5}, {ProductID: "B", Quantity: 1}})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if db.FindStockCalls != 1 {
		t.Errorf("expected one batched lookup, got %d", db.FindStockCalls)
	}
}

func TestValidate_UnlimitedStock(t *testing.T) {
	v := NewStockValidator(testutil.NewFakeDatabase(shirt("A", 1000, nil)))

	if err := v.Validate(context.Background(), domain.Cart{{ProductID: "A", Quantity: 1_000_000}}); err != nil {
		t.Errorf("unlimited stock should always pass, got %v", err)
	}
}

func TestValidate_InsufficientStock(t *testing.T) {
	v := NewStockValidator(testutil.NewFakeDatabase(shirt("A", 1000, testutil.Stock(5))))

	err := v.Validate(context.Background(), domain.Cart{{ProductID: "A", Quantity: 6}})

	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Kind != domain.ErrorKindOutOfStock {
		t.Fatalf("expected out of stock error, got %v", err)
	}
	if derr.ProductID != "A" {
		t.Errorf("expected product A, got %s", derr.ProductID)
	}
	if !strings.Contains(err.Error(), "A") {
		t.Errorf("message should name the product: %q", err.Error())
	}
}

func TestValidate_UnknownProductFails(t *testing.T) {
	v := NewStockValidator(testutil.NewFakeDatabase(shirt("A", 1000, testutil.Stock(5))))

	err := v.Validate(context.Background(), domain.Cart{{ProductID: "A", Quantity: 1}, {ProductID: "B", Quantity: 1}})

	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Kind != domain.ErrorKindOutOfStock {
		t.Fatalf("expected out of stock error, got %v", err)
	}
	if derr.ProductID != "B" {
		t.Errorf("expected product B, got %s", derr.ProductID)
	}
}

func TestValidate_ShortCircuitsInCartOrder(t *testing.T) {
	v := NewStockValidator(testutil.NewFakeDatabase(
		shirt("A", 1000, testutil.Stock(0)),
		shirt("B", 1000, testutil.Stock(0)),
	))

	err := v.Validate(context.Background(), domain.Cart{{ProductID: "B", Quantity: 1}, {ProductID: "A", Quantity: 1}})

	var derr *domain.Error
	if !errors.As(err, &derr) || derr.ProductID != "B" {
		t.Errorf("expected first failing line B, got %v", err)
	}
}

func TestValidate_DuplicateLinesAreMerged(t *testing.T) {
	v := NewStockValidator(testutil.NewFakeDatabase(shirt("A", 1000, testutil.Stock(3))))

	err := v.Validate(context.Background(), domain.Cart{{ProductID: "A", Quantity: 2}, {ProductID: "A", Quantity: 2}})
	if !domain.IsKind(err, domain.ErrorKindOutOfStock) {
		t.Errorf("expected merged quantity 4 to exceed stock 3, got %v", err)
	}
}

func TestValidate_StoreError(t *testing.T) {
	db := testutil.NewFakeDatabase()
	db.Err = errors.New("connection refused")
	v := NewStockValidator(db)

	err := v.Validate(context.Background(), domain.Cart{{ProductID: "A", Quantity: 1}})
	if err == nil || domain.IsKind(err, domain.ErrorKindOutOfStock) {
		t.Errorf("expected plain store error, got %v", err)
	}
}
