package domain

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type SortField string

const (
	SortByTitle SortField = "title"
	SortByPrice SortField = "price"
	SortByStock SortField = "stock"
)

func (f SortField) Valid() bool {
	return f == SortByTitle || f == SortByPrice || f == SortByStock
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// AttributeField names a category-specific product column.
type AttributeField string

const (
	AttrColor         AttributeField = "color"
	AttrMaterial      AttributeField = "material"
	AttrBrand         AttributeField = "brand"
	AttrOuterMaterial AttributeField = "outer_material"
	AttrInnerMaterial AttributeField = "inner_material"
)

// AttributeFilter is implemented by ShirtFilter and ShoeFilter only.
type AttributeFilter interface {
	Category() Category
	// Conditions returns the equality conditions to apply, skipping empty values.
	Conditions() map[AttributeField]string
}

type ShirtFilter struct {
	Color    string
	Material string
}

func (ShirtFilter) Category() Category { return CategoryShirt }

func (f ShirtFilter) Conditions() map[AttributeField]string {
	return nonEmpty(map[AttributeField]string{
		AttrColor:    f.Color,
		AttrMaterial: f.Material,
	})
}

type ShoeFilter struct {
	Brand         string
	OuterMaterial string
	InnerMaterial string
}

func (ShoeFilter) Category() Category { return CategoryShoe }

func (f ShoeFilter) Conditions() map[AttributeField]string {
	return nonEmpty(map[AttributeField]string{
		AttrBrand:         f.Brand,
		AttrOuterMaterial: f.OuterMaterial,
		AttrInnerMaterial: f.InnerMaterial,
	})
}

func nonEmpty(in map[AttributeField]string) map[AttributeField]string {
	out := make(map[AttributeField]string, len(in))
	for k, v := range in {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// ProductQuery selects a page of one category of products.
type ProductQuery struct {
	Category   Category
	MinPrice   *int64
	MaxPrice   *int64
	Search     string
	Attributes AttributeFilter
	SortBy     SortField
	SortOrder  SortOrder
	Page       int
	Limit      int
}

// Normalize fills defaults and validates the query.
func (q *ProductQuery) Normalize() error {
	fields := map[string][]string{}
	if !q.Category.Valid() {
		fields["category"] = append(fields["category"], "unknown category")
	}
	if q.Attributes != nil && q.Attributes.Category() != q.Category {
		fields["attributes"] = append(fields["attributes"], "filter does not match category")
	}
	if q.SortBy == "" {
		q.SortBy = SortByTitle
	}
	if !q.SortBy.Valid() {
		fields["sortBy"] = append(fields["sortBy"], "must be one of title, price, stock")
	}
	if q.SortOrder == "" {
		q.SortOrder = SortAsc
	}
	if !q.SortOrder.Valid() {
		fields["sortOrder"] = append(fields["sortOrder"], "must be asc or desc")
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Page < 1 {
		fields["page"] = append(fields["page"], "must be at least 1")
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		fields["limit"] = append(fields["limit"], "must be between 1 and 100")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		fields["minPrice"] = append(fields["minPrice"], "must not exceed maxPrice")
	}
	if len(fields) > 0 {
		return InvalidFields(fields)
	}
	return nil
}

func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	IsLastPage bool `json:"isLastPage"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	isLast := true
	if totalPages != 0 {
		isLast = max(1, page) == totalPages
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		IsLastPage: isLast,
	}
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// FilterOptions holds the distinct attribute values of one category.
type FilterOptions struct {
	Category Category                    `json:"category"`
	Values   map[AttributeField][]string `json:"values"`
}

// FilterFields lists the attributes aggregated for a category.
func FilterFields(c Category) []AttributeField {
	switch c {
	case CategoryShirt:
		return []AttributeField{AttrColor, AttrMaterial}
	case CategoryShoe:
		return []AttributeField{AttrBrand, AttrOuterMaterial, AttrInnerMaterial}
	default:
		return nil
	}
}
