package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rl1809/storefront/internal/core/domain"
)

const productColumns = `id, category, title, price, image, color, material, brand,
	outer_material, inner_material, stock, version, created_at, updated_at`

var sortColumns = map[domain.SortField]string{
	domain.SortByTitle: "title",
	domain.SortByPrice: "price",
	domain.SortByStock: "stock",
}

var attributeColumns = map[domain.AttributeField]string{
	domain.AttrColor:         "color",
	domain.AttrMaterial:      "material",
	domain.AttrBrand:         "brand",
	domain.AttrOuterMaterial: "outer_material",
	domain.AttrInnerMaterial: "inner_material",
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// whereClause renders the filtering part of a product query. Column names only
// come from the fixed maps above; every value is a bind parameter.
func whereClause(q domain.ProductQuery) (string, []any) {
	conds := []string{"category = ?"}
	args := []any{string(q.Category)}

	if q.MinPrice != nil {
		conds = append(conds, "price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		conds = append(conds, "price <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.Search != "" {
		conds = append(conds, "LOWER(title) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(q.Search))+"%")
	}
	if q.Attributes != nil {
		attrs := q.Attributes.Conditions()
		fields := make([]string, 0, len(attrs))
		for f := range attrs {
			fields = append(fields, string(f))
		}
		sort.Strings(fields)
		for _, f := range fields {
			field := domain.AttributeField(f)
			conds = append(conds, attributeColumns[field]+" = ?")
			args = append(args, attrs[field])
		}
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func listQuery(q domain.ProductQuery) (string, []any) {
	where, args := whereClause(q)
	order := "ASC"
	if q.SortOrder == domain.SortDesc {
		order = "DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?",
		productColumns, where, sortColumns[q.SortBy], order)
	return query, append(args, q.Limit, q.Offset())
}

func countQuery(q domain.ProductQuery) (string, []any) {
	where, args := whereClause(q)
	return "SELECT COUNT(*) FROM products" + where, args
}
