package domain

import (
	"fmt"
	"math"
)

type CartLine struct {
	ProductID string `json:"id"`
	Quantity  int64  `json:"quantity"`
}

type Cart []CartLine

// Merge folds lines sharing a product id into one, summing quantities.
// Lines keep the order in which their id was first seen. A sum that would
// overflow int64 is a validation error naming the line that overflowed.
func (c Cart) Merge() (Cart, error) {
	merged := make(Cart, 0, len(c))
	index := make(map[string]int, len(c))
	for n, line := range c {
		i, ok := index[line.ProductID]
		if !ok {
			index[line.ProductID] = len(merged)
			merged = append(merged, line)
			continue
		}
		q := merged[i].Quantity
		if (line.Quantity > 0 && q > math.MaxInt64-line.Quantity) ||
			(line.Quantity < 0 && q < math.MinInt64-line.Quantity) {
			return nil, InvalidField(fmt.Sprintf("products[%d].quantity", n), "total quantity for the product is out of range")
		}
		merged[i].Quantity += line.Quantity
	}
	return merged, nil
}

func (c Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c))
	for _, line := range c {
		ids = append(ids, line.ProductID)
	}
	return ids
}
