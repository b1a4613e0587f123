package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher types.
const (
	VoucherTypeFixed      = "fixed"
	VoucherTypePercentage = "percentage"
)

// Voucher is a discount definition. A nil VendorID means the voucher is
// platform-wide rather than issued by one vendor.
type Voucher struct {
	BaseModel
	VendorID     *uuid.UUID          `gorm:"type:uuid;index" json:"vendor_id,omitempty"`
	Code         string              `gorm:"uniqueIndex" json:"code"`
	Type         string              `json:"type"`
	Value        decimal.Decimal     `gorm:"type:numeric(12,2)" json:"value"`
	MinOrder     decimal.Decimal     `gorm:"type:numeric(12,2)" json:"min_order"`
	MaxDiscount  decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"max_discount"`
	UsageLimit   *int                `json:"usage_limit,omitempty"`
	UsageCount   int                 `json:"usage_count"`
	PerUserLimit int                 `gorm:"default:1" json:"per_user_limit"`
	StartsAt     *time.Time          `json:"starts_at,omitempty"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
	IsActive     bool                `gorm:"default:true" json:"is_active"`
}

// UserVoucher records a user's redemption and consumption of a voucher.
// UsageCount must never exceed the voucher's PerUserLimit.
type UserVoucher struct {
	BaseModel
	UserID     uuid.UUID  `gorm:"type:uuid;index:idx_user_voucher,unique" json:"user_id"`
	VoucherID  uuid.UUID  `gorm:"type:uuid;index:idx_user_voucher,unique" json:"voucher_id"`
	Voucher    *Voucher   `json:"voucher,omitempty"`
	UsageCount int        `json:"usage_count"`
	RedeemedAt time.Time  `json:"redeemed_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
}

// CheckoutRequest maps a client-supplied idempotency key to the orders its
// first submission created, so retries return the same result instead of
// double-charging. Rows older than the dedupe window are ignored.
type CheckoutRequest struct {
	BaseModel
	IdempotencyKey string    `gorm:"uniqueIndex" json:"idempotency_key"`
	CustomerID     uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	OrderIDs       string    `json:"order_ids"`
}
