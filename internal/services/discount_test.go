package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/example/foodhunter/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedVoucher(value string) models.Voucher {
	return models.Voucher{
		Code:     "FIXED",
		Type:     models.VoucherTypeFixed,
		Value:    dec(value),
		IsActive: true,
	}
}

func percentageVoucher(value string, maxDiscount string) models.Voucher {
	v := models.Voucher{
		Code:     "PCT",
		Type:     models.VoucherTypePercentage,
		Value:    dec(value),
		IsActive: true,
	}
	if maxDiscount != "" {
		v.MaxDiscount = decimal.NewNullDecimal(dec(maxDiscount))
	}
	return v
}

func TestVoucherDiscount_FixedNeverExceedsSubtotal(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		subtotal string
		want     string
	}{
		{"below subtotal", "10.00", "50.00", "10"},
		{"equal to subtotal", "50.00", "50.00", "50"},
		{"above subtotal", "80.00", "50.00", "50"},
		{"zero subtotal", "10.00", "0.00", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := VoucherDiscount(fixedVoucher(tc.value), dec(tc.subtotal))
			assert.True(t, got.Equal(dec(tc.want)), "got %s, want %s", got, tc.want)
			assert.False(t, got.GreaterThan(dec(tc.subtotal)))
		})
	}
}

func TestVoucherDiscount_Percentage(t *testing.T) {
	cases := []struct {
		name        string
		value       string
		maxDiscount string
		subtotal    string
		want        string
	}{
		{"plain percentage", "10", "", "200.00", "20"},
		{"cap not reached", "10", "25.00", "200.00", "20"},
		{"cap clamps", "10", "15.00", "200.00", "15"},
		{"half-up rounding", "10", "", "100.05", "10.01"},
		{"zero subtotal", "10", "", "0.00", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := VoucherDiscount(percentageVoucher(tc.value, tc.maxDiscount), dec(tc.subtotal))
			assert.True(t, got.Equal(dec(tc.want)), "got %s, want %s", got, tc.want)
		})
	}
}

func TestVoucherDiscount_UnknownTypeIsZero(t *testing.T) {
	v := models.Voucher{Type: "bogus", Value: dec("10"), IsActive: true}
	assert.True(t, VoucherDiscount(v, dec("100")).IsZero())
}

func TestVoucherApplicable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	base := func() models.Voucher {
		return models.Voucher{
			Type:     models.VoucherTypeFixed,
			Value:    dec("5.00"),
			MinOrder: dec("30.00"),
			IsActive: true,
		}
	}

	t.Run("applicable", func(t *testing.T) {
		assert.True(t, VoucherApplicable(base(), dec("50.00"), now))
	})

	t.Run("subtotal equal to min order is applicable", func(t *testing.T) {
		assert.True(t, VoucherApplicable(base(), dec("30.00"), now))
	})

	t.Run("subtotal below min order", func(t *testing.T) {
		assert.False(t, VoucherApplicable(base(), dec("29.99"), now))
	})

	t.Run("inactive", func(t *testing.T) {
		v := base()
		v.IsActive = false
		assert.False(t, VoucherApplicable(v, dec("50.00"), now))
	})

	t.Run("not yet started", func(t *testing.T) {
		v := base()
		v.StartsAt = &future
		assert.False(t, VoucherApplicable(v, dec("50.00"), now))
	})

	t.Run("starts exactly now", func(t *testing.T) {
		v := base()
		startsAt := now
		v.StartsAt = &startsAt
		assert.True(t, VoucherApplicable(v, dec("50.00"), now))
	})

	t.Run("expired", func(t *testing.T) {
		v := base()
		v.ExpiresAt = &past
		assert.False(t, VoucherApplicable(v, dec("50.00"), now))
	})

	t.Run("expires exactly now", func(t *testing.T) {
		v := base()
		expiresAt := now
		v.ExpiresAt = &expiresAt
		assert.True(t, VoucherApplicable(v, dec("50.00"), now))
	})
}

func TestVoucherDescription(t *testing.T) {
	t.Run("percentage with cap", func(t *testing.T) {
		v := percentageVoucher("10", "15")
		assert.Equal(t, "10% off (max RM15)", VoucherDescription(v))
	})

	t.Run("fixed with min order", func(t *testing.T) {
		v := fixedVoucher("10")
		v.MinOrder = dec("30")
		assert.Equal(t, "RM10 off orders above RM30", VoucherDescription(v))
	})

	t.Run("fixed without min order", func(t *testing.T) {
		assert.Equal(t, "RM10 off", VoucherDescription(fixedVoucher("10")))
	})
}
