package voucher

import (
	"github.com/shopspring/decimal"

	"github.com/openstorelab/storefront/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeDiscount returns the discount a voucher grants on the given
// subtotal, rounded to whole currency units. The result is always within
// [0, subtotal]; a voucher can never produce a negative payable total.
func ComputeDiscount(v *models.Voucher, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var raw decimal.Decimal
	switch v.DiscountType {
	case models.DiscountTypePercentage:
		raw = subtotal.Mul(v.DiscountValue).Div(oneHundred)
	case models.DiscountTypeFixed:
		raw = v.DiscountValue
	default:
		return decimal.Zero
	}

	if v.MaxDiscountValue != nil && raw.GreaterThan(*v.MaxDiscountValue) {
		raw = *v.MaxDiscountValue
	}
	if raw.GreaterThan(subtotal) {
		raw = subtotal
	}

	raw = raw.Round(0)
	// Rounding a fractional subtotal up could overshoot it.
	if raw.GreaterThan(subtotal) {
		raw = subtotal.Floor()
	}
	if raw.IsNegative() {
		return decimal.Zero
	}
	return raw
}
