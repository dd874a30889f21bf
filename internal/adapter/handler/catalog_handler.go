package handler

import (
	"net/http"
	"strconv"

	"github.com/rl1809/storefront/internal/core/domain"
)

type ShirtFiltersResponse struct {
	Colors    []string `json:"colors"`
	Materials []string `json:"materials"`
}

type ShoeFiltersResponse struct {
	Brands         []string `json:"brands"`
	OuterMaterials []string `json:"outerMaterials"`
	InnerMaterials []string `json:"innerMaterials"`
}

func (h *HTTPHandler) ListShirts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, domain.CategoryShirt)
}

func (h *HTTPHandler) ListShoes(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, domain.CategoryShoe)
}

func (h *HTTPHandler) listProducts(w http.ResponseWriter, r *http.Request, category domain.Category) {
	query, err := parseProductQuery(r, category)
	if err != nil {
		h.writeError(w, "list_products", err)
		return
	}

	page, err := h.catalog.List(r.Context(), query)
	if err != nil {
		h.writeError(w, "list_products", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *HTTPHandler) ShirtFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.catalog.FilterOptions(r.Context(), domain.CategoryShirt)
	if err != nil {
		h.writeError(w, "filters", err)
		return
	}
	writeJSON(w, http.StatusOK, ShirtFiltersResponse{
		Colors:    values(opts, domain.AttrColor),
		Materials: values(opts, domain.AttrMaterial),
	})
}

func (h *HTTPHandler) ShoeFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.catalog.FilterOptions(r.Context(), domain.CategoryShoe)
	if err != nil {
		h.writeError(w, "filters", err)
		return
	}
	writeJSON(w, http.StatusOK, ShoeFiltersResponse{
		Brands:         values(opts, domain.AttrBrand),
		OuterMaterials: values(opts, domain.AttrOuterMaterial),
		InnerMaterials: values(opts, domain.AttrInnerMaterial),
	})
}

func values(opts domain.FilterOptions, field domain.AttributeField) []string {
	if v := opts.Values[field]; v != nil {
		return v
	}
	return []string{}
}

func parseProductQuery(r *http.Request, category domain.Category) (domain.ProductQuery, error) {
	q := r.URL.Query()
	fields := map[string][]string{}

	parseInt := func(name string) int64 {
		raw := q.Get(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fields[name] = append(fields[name], "must be an integer")
		}
		return n
	}
	parseOptional := func(name string) *int64 {
		if q.Get(name) == "" {
			return nil
		}
		n := parseInt(name)
		return &n
	}

	query := domain.ProductQuery{
		Category:  category,
		Page:      int(parseInt("page")),
		Limit:     int(parseInt("limit")),
		MinPrice:  parseOptional("minPrice"),
		MaxPrice:  parseOptional("maxPrice"),
		Search:    q.Get("search"),
		SortBy:    domain.SortField(q.Get("sortBy")),
		SortOrder: domain.SortOrder(q.Get("sortOrder")),
	}

	switch category {
	case domain.CategoryShirt:
		query.Attributes = domain.ShirtFilter{
			Color:    q.Get("color"),
			Material: q.Get("material"),
		}
	case domain.CategoryShoe:
		query.Attributes = domain.ShoeFilter{
			Brand:         q.Get("brand"),
			OuterMaterial: q.Get("outerMaterial"),
			InnerMaterial: q.Get("innerMaterial"),
		}
	}

	if len(fields) > 0 {
		return query, domain.InvalidFields(fields)
	}
	return query, nil
}
