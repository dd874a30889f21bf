package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
)

var ErrOptimisticLock = errors.New("optimistic lock conflict")

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) FindStock(ctx context.Context, ids []string) ([]domain.ProductStock, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT id, stock FROM products WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query stock: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductStock
	for rows.Next() {
		var (
			s     domain.ProductStock
			stock sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &stock); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		if stock.Valid {
			s.Stock = &stock.Int64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) FindPrices(ctx context.Context, ids []string) ([]domain.ProductPrice, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT id, price FROM products WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductPrice
	for rows.Next() {
		var p domain.ProductPrice
		if err := rows.Scan(&p.ID, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SettleCart runs one conditional decrement per line inside a single transaction.
// version always changes, so a matched row is always reported as affected,
// including rows whose stock is NULL. Non-positive quantities never match.
func (m *MySQLAdapter) SettleCart(ctx context.Context, lines []domain.CartLine) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return domain.InvalidField("products", fmt.Sprintf("quantity for %s must be greater than 0", line.ProductID))
		}
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, line := range lines {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, version = version + 1, updated_at = NOW()
			WHERE id = ? AND ? > 0 AND (stock IS NULL OR stock >= ?)`,
			line.Quantity, line.ProductID, line.Quantity, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement %s: %w", line.ProductID, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if rows == 0 {
			return domain.OutOfStock(line.ProductID)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	query, args := listQuery(q)
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) CountProducts(ctx context.Context, q domain.ProductQuery) (int64, error) {
	query, args := countQuery(q)
	var total int64
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

func (m *MySQLAdapter) DistinctValues(ctx context.Context, category domain.Category, field domain.AttributeField) ([]string, error) {
	column, ok := attributeColumns[field]
	if !ok {
		return nil, fmt.Errorf("unknown attribute %q", field)
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM products
		WHERE category = ? AND `+column+` IS NOT NULL AND `+column+` <> ''
		ORDER BY `+column,
		string(category),
	)
	if err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", column, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// UpdateStock overwrites stock with a version check for optimistic locking.
func (m *MySQLAdapter) UpdateStock(ctx context.Context, p domain.Product) error {
	var stock sql.NullInt64
	if p.Stock != nil {
		stock = sql.NullInt64{Int64: *p.Stock, Valid: true}
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = ?, version = version + 1, updated_at = NOW()
		WHERE id = ? AND version = ?`,
		stock, p.ID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOptimisticLock
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                                    domain.Product
		category                             string
		color, material, brand, outer, inner sql.NullString
		stock                                sql.NullInt64
	)
	err := row.Scan(&p.ID, &category, &p.Title, &p.Price, &p.Image,
		&color, &material, &brand, &outer, &inner,
		&stock, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}

	p.Category = domain.Category(category)
	p.Color, p.Material, p.Brand = color.String, material.String, brand.String
	p.OuterMaterial, p.InnerMaterial = outer.String, inner.String
	if stock.Valid {
		p.Stock = &stock.Int64
	}
	return &p, nil
}
