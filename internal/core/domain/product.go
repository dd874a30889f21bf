package domain

import "time"

type Category string

const (
	CategoryShirt Category = "shirt"
	CategoryShoe  Category = "shoe"
)

func (c Category) Valid() bool {
	return c == CategoryShirt || c == CategoryShoe
}

type Product struct {
	ID            string    `json:"id"`
	Category      Category  `json:"category"`
	Title         string    `json:"title"`
	Price         int64     `json:"price"` // minor currency units
	Image         string    `json:"image"`
	Color         string    `json:"color,omitempty"`
	Material      string    `json:"material,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	OuterMaterial string    `json:"outerMaterial,omitempty"`
	InnerMaterial string    `json:"innerMaterial,omitempty"`
	Stock         *int64    `json:"stock"` // nil means unlimited
	Version       int64     `json:"-"`     // optimistic locking
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProductStock is the id+stock projection used by stock validation.
type ProductStock struct {
	ID    string
	Stock *int64
}

// Covers reports whether the stock can satisfy quantity. Unlimited stock always does.
func (s ProductStock) Covers(quantity int64) bool {
	return s.Stock == nil || *s.Stock >= quantity
}

// ProductPrice is the id+price projection used by pricing.
type ProductPrice struct {
	ID    string
	Price int64
}
