// Package scanner evaluates the product catalog against computed reorder
// points and produces low-stock candidates.
package scanner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	commonerrors "inventory-monitor/internal/common/errors"
	"inventory-monitor/internal/common/logger"
	"inventory-monitor/internal/common/metrics"
	"inventory-monitor/internal/inventory/calculator"
	"inventory-monitor/internal/models"
)

// ProductSource is the product store surface the scanner reads from.
type ProductSource interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	SaveThresholds(ctx context.Context, id string, rop decimal.Decimal, eoq decimal.NullDecimal) error
}

// Candidate is a product found at or below its reorder point, with the
// thresholds that flagged it.
type Candidate struct {
	Product  models.Product
	ROP      decimal.Decimal
	ROPUnits int64
	EOQ      decimal.NullDecimal
	EOQUnits int64
	Urgency  string
}

// Result aggregates one scan pass over the catalog.
type Result struct {
	Candidates      []Candidate
	Checked         int
	SkippedNoInputs int
	ConfigErrors    int
}

type Config struct {
	Defaults          calculator.Defaults
	CriticalRatio     decimal.Decimal
	PersistThresholds bool
}

type Scanner struct {
	products ProductSource
	cfg      Config
	logger   logger.Logger
}

func New(products ProductSource, cfg Config, log logger.Logger) *Scanner {
	return &Scanner{
		products: products,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "scanner"}),
	}
}

// Scan evaluates the full catalog, or a single product when productID is
// non-empty. Each product is evaluated independently; calculator rejections
// are counted and skipped, never fatal to the pass.
func (s *Scanner) Scan(ctx context.Context, productID string) (Result, error) {
	products, err := s.load(ctx, productID)
	if err != nil {
		// A scoped scan naming a product that no longer exists is a bad
		// reference, not a store outage; it must not trigger retries.
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, commonerrors.NewValidationFailedError("productId", fmt.Sprintf("product %s not found", productID))
		}
		return Result{}, commonerrors.NewStoreUnavailableError("products", err)
	}

	var res Result
	for _, p := range products {
		if !p.HasUsageRate() {
			res.SkippedNoInputs++
			continue
		}

		calcRes, err := calculator.Thresholds(calculator.Inputs{
			LeadTimeDays:    p.LeadTimeDays,
			DailyUsageRate:  p.DailyUsageRate.Decimal,
			SafetyStock:     p.SafetyStock,
			HoldingCostRate: p.HoldingCostRate,
			OrderingCost:    p.OrderingCost,
			UnitPrice:       p.UnitPrice,
		}, s.cfg.Defaults)
		if err != nil {
			s.logger.Warn("product rejected by calculator", map[string]interface{}{
				"productId": p.ID,
				"sku":       p.SKU,
				"error":     err.Error(),
			})
			res.SkippedNoInputs++
			continue
		}

		res.Checked++
		metrics.ProductsChecked.Inc()

		eoq := decimal.NullDecimal{Decimal: calcRes.EOQ, Valid: calcRes.EOQErr == nil}
		if calcRes.EOQErr != nil {
			res.ConfigErrors++
			s.logger.Warn("EOQ undefined for product", map[string]interface{}{
				"productId": p.ID,
				"sku":       p.SKU,
				"error":     calcRes.EOQErr.Error(),
			})
		}

		if s.cfg.PersistThresholds {
			if err := s.products.SaveThresholds(ctx, p.ID, calcRes.ROP, eoq); err != nil {
				// Persisting recomputed thresholds is a side channel;
				// the scan result stands without it.
				s.logger.Warn("failed to persist thresholds", map[string]interface{}{
					"productId": p.ID,
					"error":     err.Error(),
				})
			}
		}

		stock := decimal.NewFromInt(p.CurrentStock)
		if !stock.LessThanOrEqual(calcRes.ROP) {
			continue
		}

		metrics.LowStockDetected.Inc()
		res.Candidates = append(res.Candidates, Candidate{
			Product:  p,
			ROP:      calcRes.ROP,
			ROPUnits: calcRes.ROPUnits,
			EOQ:      eoq,
			EOQUnits: calcRes.EOQUnits,
			Urgency:  s.urgency(stock, calcRes.ROP),
		})
	}

	return res, nil
}

func (s *Scanner) load(ctx context.Context, productID string) ([]models.Product, error) {
	if productID == "" {
		return s.products.ListProducts(ctx)
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return []models.Product{p}, nil
}

func (s *Scanner) urgency(stock, rop decimal.Decimal) string {
	if stock.LessThanOrEqual(rop.Mul(s.cfg.CriticalRatio)) {
		return models.UrgencyCritical
	}
	return models.UrgencyLow
}
