package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/foodhunter/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// voucherStarted reports whether the voucher's validity window has opened.
// A voucher starting exactly now is valid.
func voucherStarted(v models.Voucher, now time.Time) bool {
	return v.StartsAt == nil || !now.Before(*v.StartsAt)
}

// voucherExpired reports whether the voucher's validity window has closed.
// A voucher expiring exactly now is still valid.
func voucherExpired(v models.Voucher, now time.Time) bool {
	return v.ExpiresAt != nil && now.After(*v.ExpiresAt)
}

// voucherMeetsMinOrder reports whether the subtotal reaches the voucher's
// minimum order amount. The boundary counts.
func voucherMeetsMinOrder(v models.Voucher, subtotal decimal.Decimal) bool {
	return subtotal.GreaterThanOrEqual(v.MinOrder)
}

// VoucherApplicable reports whether a voucher can be applied to the given
// subtotal at the given instant. Usage limits are a persistence concern and
// are checked by VoucherService, not here. VoucherService derives its
// subtyped errors from the same predicates, so the two can never disagree.
func VoucherApplicable(v models.Voucher, subtotal decimal.Decimal, now time.Time) bool {
	return v.IsActive &&
		voucherStarted(v, now) &&
		!voucherExpired(v, now) &&
		voucherMeetsMinOrder(v, subtotal)
}

// VoucherDiscount computes the discount amount for a voucher against a
// subtotal, rounded half-up to 2 decimal places. Callers must check
// VoucherApplicable first; this does not re-check eligibility.
func VoucherDiscount(v models.Voucher, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch v.Type {
	case models.VoucherTypeFixed:
		discount = v.Value
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	case models.VoucherTypePercentage:
		discount = subtotal.Mul(v.Value).Div(oneHundred)
		if v.MaxDiscount.Valid && discount.GreaterThan(v.MaxDiscount.Decimal) {
			discount = v.MaxDiscount.Decimal
		}
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}

// VoucherDescription renders a human-readable summary of a voucher,
// e.g. "10% off (max RM15)" or "RM10 off orders above RM30".
func VoucherDescription(v models.Voucher) string {
	var desc string

	switch v.Type {
	case models.VoucherTypePercentage:
		desc = fmt.Sprintf("%s%% off", v.Value.String())
		if v.MaxDiscount.Valid {
			desc += fmt.Sprintf(" (max RM%s)", v.MaxDiscount.Decimal.String())
		}
	case models.VoucherTypeFixed:
		desc = fmt.Sprintf("RM%s off", v.Value.String())
	default:
		return v.Code
	}

	if v.MinOrder.IsPositive() {
		desc += fmt.Sprintf(" orders above RM%s", v.MinOrder.String())
	}
	return desc
}
