// Package calculator computes reorder point and economic order quantity
// thresholds for a single product.
package calculator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	commonerrors "inventory-monitor/internal/common/errors"
)

// DaysPerYear converts a daily usage rate into the annual demand estimate.
var DaysPerYear = decimal.NewFromInt(365)

// Inputs are the per-product parameters. LeadTimeDays and SafetyStock are
// optional and fall back to Defaults; the cost inputs are optional and leave
// EOQ undefined when absent.
type Inputs struct {
	LeadTimeDays    *int64
	DailyUsageRate  decimal.Decimal
	SafetyStock     *int64
	HoldingCostRate decimal.NullDecimal
	OrderingCost    decimal.NullDecimal
	UnitPrice       decimal.NullDecimal
}

// Defaults supplies fallback values for the optional inputs.
type Defaults struct {
	LeadTimeDays int64
	SafetyStock  int64
}

// Result carries both the exact thresholds used for comparison and the
// integer units shown to users. EOQErr is set instead of EOQ when the cost
// configuration makes the formula undefined; ROP is computed regardless.
type Result struct {
	ROP      decimal.Decimal
	ROPUnits int64
	EOQ      decimal.Decimal
	EOQUnits int64
	EOQErr   error
}

// Thresholds computes ROP = L×D + S and EOQ = sqrt(2 × D×365 × K / (H×P)).
func Thresholds(in Inputs, d Defaults) (Result, error) {
	if in.DailyUsageRate.IsNegative() {
		return Result{}, commonerrors.NewValidationFailedError("daily_usage_rate", in.DailyUsageRate.String())
	}

	leadTime := d.LeadTimeDays
	if in.LeadTimeDays != nil {
		leadTime = *in.LeadTimeDays
	}
	if leadTime < 0 {
		return Result{}, commonerrors.NewValidationFailedError("lead_time_days", fmt.Sprintf("%d", leadTime))
	}

	safetyStock := d.SafetyStock
	if in.SafetyStock != nil {
		safetyStock = *in.SafetyStock
	}
	if safetyStock < 0 {
		return Result{}, commonerrors.NewValidationFailedError("safety_stock", fmt.Sprintf("%d", safetyStock))
	}

	if in.HoldingCostRate.Valid && in.HoldingCostRate.Decimal.IsNegative() {
		return Result{}, commonerrors.NewValidationFailedError("holding_cost_rate", in.HoldingCostRate.Decimal.String())
	}
	if in.OrderingCost.Valid && in.OrderingCost.Decimal.IsNegative() {
		return Result{}, commonerrors.NewValidationFailedError("ordering_cost", in.OrderingCost.Decimal.String())
	}
	if in.UnitPrice.Valid && in.UnitPrice.Decimal.IsNegative() {
		return Result{}, commonerrors.NewValidationFailedError("unit_price", in.UnitPrice.Decimal.String())
	}

	rop := decimal.NewFromInt(leadTime).
		Mul(in.DailyUsageRate).
		Add(decimal.NewFromInt(safetyStock))

	res := Result{
		ROP:      rop,
		ROPUnits: rop.Ceil().IntPart(),
	}

	res.EOQ, res.EOQUnits, res.EOQErr = economicOrderQuantity(in)
	return res, nil
}

func economicOrderQuantity(in Inputs) (decimal.Decimal, int64, error) {
	if !in.HoldingCostRate.Valid || !in.OrderingCost.Valid || !in.UnitPrice.Valid {
		return decimal.Zero, 0, commonerrors.NewConfigurationInvalidError("holding cost, ordering cost and unit price are all required for EOQ")
	}

	denominator := in.HoldingCostRate.Decimal.Mul(in.UnitPrice.Decimal)
	if !denominator.IsPositive() {
		return decimal.Zero, 0, commonerrors.NewConfigurationInvalidError(
			fmt.Sprintf("holding_cost_rate × unit_price must be positive, got %s", denominator))
	}

	annualDemand := in.DailyUsageRate.Mul(DaysPerYear)
	numerator := decimal.NewFromInt(2).Mul(annualDemand).Mul(in.OrderingCost.Decimal)

	// The square root goes through float64; NewFromFloat panics on Inf/NaN.
	ratio, _ := numerator.Div(denominator).Float64()
	if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return decimal.Zero, 0, commonerrors.NewConfigurationInvalidError(
			fmt.Sprintf("EOQ inputs out of range: 2 × %s × %s / %s", annualDemand, in.OrderingCost.Decimal, denominator))
	}
	eoq := decimal.NewFromFloat(math.Sqrt(ratio))

	return eoq, eoq.Ceil().IntPart(), nil
}
