// internal/models/product.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the inventory record the scanner evaluates. Cost and usage
// fields are nullable because legacy catalog rows may predate the EOQ
// rollout; ROP and EOQ stay null until first computed.
type Product struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	SKU             string              `json:"sku"`
	CurrentStock    int64               `json:"currentStock"`
	SafetyStock     *int64              `json:"safetyStock,omitempty"`
	LeadTimeDays    *int64              `json:"leadTimeDays,omitempty"`
	DailyUsageRate  decimal.NullDecimal `json:"dailyUsageRate"`
	HoldingCostRate decimal.NullDecimal `json:"holdingCostRate"` // fraction of unit price per year
	OrderingCost    decimal.NullDecimal `json:"orderingCost"`
	UnitPrice       decimal.NullDecimal `json:"unitPrice"`
	ROP             decimal.NullDecimal `json:"rop"`
	EOQ             decimal.NullDecimal `json:"eoq"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// HasUsageRate reports whether the product carries the one input the
// calculator cannot default.
func (p Product) HasUsageRate() bool {
	return p.DailyUsageRate.Valid
}
