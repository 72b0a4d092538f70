// Package postgres implements the product, user and notification stores on
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"inventory-monitor/internal/models"
)

const productColumns = `id, name, sku, current_stock, safety_stock, lead_time_days,
	daily_usage_rate, holding_cost_rate, ordering_cost, unit_price, rop, eoq, updated_at`

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

// ListProducts returns the full catalog.
func (s *ProductStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct returns one product by id.
func (s *ProductStore) GetProduct(ctx context.Context, id string) (models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return models.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// SaveThresholds persists recomputed ROP and EOQ back onto the product row.
func (s *ProductStore) SaveThresholds(ctx context.Context, id string, rop decimal.Decimal, eoq decimal.NullDecimal) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE products SET rop = $2, eoq = $3, updated_at = NOW() WHERE id = $1`,
		id, rop, eoq,
	)
	if err != nil {
		return fmt.Errorf("save thresholds for %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var (
		p           models.Product
		safetyStock sql.NullInt64
		leadTime    sql.NullInt64
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.CurrentStock, &safetyStock, &leadTime,
		&p.DailyUsageRate, &p.HoldingCostRate, &p.OrderingCost, &p.UnitPrice,
		&p.ROP, &p.EOQ, &p.UpdatedAt,
	)
	if err != nil {
		return models.Product{}, err
	}
	if safetyStock.Valid {
		p.SafetyStock = &safetyStock.Int64
	}
	if leadTime.Valid {
		p.LeadTimeDays = &leadTime.Int64
	}
	return p, nil
}
