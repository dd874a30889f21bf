package domain

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestCartMerge(t *testing.T) {
	cart := Cart{
		{ProductID: "B", Quantity: 1},
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 3},
	}

	got, err := cart.Merge()
	if err != nil {
		t.Fatal(err)
	}

	want := Cart{{ProductID: "B", Quantity: 4}, {ProductID: "A", Quantity: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if cart[0].Quantity != 1 {
		t.Error("merge must not modify the input cart")
	}
}

func TestCartMerge_OverflowIsValidationError(t *testing.T) {
	cart := Cart{
		{ProductID: "A", Quantity: math.MaxInt64},
		{ProductID: "B", Quantity: 1},
		{ProductID: "A", Quantity: math.MaxInt64 - 3},
	}

	merged, err := cart.Merge()

	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != ErrorKindValidation {
		t.Fatalf("expected validation error, got %v (merged %v)", err, merged)
	}
	if _, ok := derr.Fields["products[2].quantity"]; !ok {
		t.Errorf("expected the overflowing line to be named, got %v", derr.Fields)
	}
}

func TestCartMerge_LargestSumFits(t *testing.T) {
	cart := Cart{{ProductID: "A", Quantity: math.MaxInt64 - 1}, {ProductID: "A", Quantity: 1}}

	got, err := cart.Merge()
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Quantity != math.MaxInt64 {
		t.Errorf("expected %d, got %d", int64(math.MaxInt64), got[0].Quantity)
	}
}

func TestCartProductIDs(t *testing.T) {
	ids := Cart{{ProductID: "A"}, {ProductID: "B"}}.ProductIDs()
	if !reflect.DeepEqual(ids, []string{"A", "B"}) {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestProductStockCovers(t *testing.T) {
	five := int64(5)
	if !(ProductStock{Stock: &five}).Covers(5) {
		t.Error("5 should cover 5")
	}
	if (ProductStock{Stock: &five}).Covers(6) {
		t.Error("5 should not cover 6")
	}
	if !(ProductStock{}).Covers(1 << 40) {
		t.Error("unlimited stock covers everything")
	}
}
