package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/foodhunter/internal/models"
)

// VoucherService wraps the pure discount engine with the persistence-side
// checks: code lookup, usage limits, and per-user redemption state.
type VoucherService struct {
	db *gorm.DB
}

// NewVoucherService constructs a VoucherService.
func NewVoucherService(db *gorm.DB) *VoucherService {
	return &VoucherService{db: db}
}

// VoucherValidation is the successful result of validating a code.
type VoucherValidation struct {
	Voucher     models.Voucher  `json:"voucher"`
	Discount    decimal.Decimal `json:"discount"`
	Description string          `json:"description"`
}

// Validate checks a voucher code against a subtotal. When userID is non-nil
// it additionally requires the user to have redeemed the voucher and to be
// under their per-user limit. Each failure carries its own stable code.
func (s *VoucherService) Validate(ctx context.Context, code string, subtotal decimal.Decimal, userID *uuid.UUID) (*VoucherValidation, error) {
	var voucher models.Voucher
	if err := s.db.WithContext(ctx).First(&voucher, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		log.Printf("[Voucher] lookup failed: %v", err)
		return nil, ErrPersistenceFailure
	}

	now := time.Now()
	if !voucher.IsActive {
		return nil, ErrVoucherInactive
	}
	if !voucherStarted(voucher, now) {
		return nil, ErrVoucherNotStarted
	}
	if voucherExpired(voucher, now) {
		return nil, ErrVoucherExpired
	}
	if voucher.UsageLimit != nil && voucher.UsageCount >= *voucher.UsageLimit {
		return nil, ErrVoucherUsageLimit
	}
	if !voucherMeetsMinOrder(voucher, subtotal) {
		return nil, ErrVoucherMinOrder
	}

	if userID != nil {
		var redemption models.UserVoucher
		err := s.db.WithContext(ctx).
			First(&redemption, "user_id = ? AND voucher_id = ?", *userID, voucher.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotRedeemed
		}
		if err != nil {
			log.Printf("[Voucher] redemption lookup failed: %v", err)
			return nil, ErrPersistenceFailure
		}
		if redemption.UsageCount >= voucher.PerUserLimit {
			return nil, ErrVoucherPerUserLimit
		}
	}

	return &VoucherValidation{
		Voucher:     voucher,
		Discount:    VoucherDiscount(voucher, subtotal),
		Description: VoucherDescription(voucher),
	}, nil
}

// Redeem records that a user has claimed a voucher, creating the UserVoucher
// row the checkout path later consumes. Redeeming twice is a no-op.
func (s *VoucherService) Redeem(ctx context.Context, userID uuid.UUID, code string) (*models.UserVoucher, error) {
	var voucher models.Voucher
	if err := s.db.WithContext(ctx).First(&voucher, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		log.Printf("[Voucher] lookup failed: %v", err)
		return nil, ErrPersistenceFailure
	}

	if !voucher.IsActive {
		return nil, ErrVoucherInactive
	}
	now := time.Now()
	if voucher.ExpiresAt != nil && now.After(*voucher.ExpiresAt) {
		return nil, ErrVoucherExpired
	}

	var existing models.UserVoucher
	err := s.db.WithContext(ctx).
		First(&existing, "user_id = ? AND voucher_id = ?", userID, voucher.ID).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Voucher] redemption lookup failed: %v", err)
		return nil, ErrPersistenceFailure
	}

	redemption := models.UserVoucher{
		UserID:     userID,
		VoucherID:  voucher.ID,
		RedeemedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&redemption).Error; err != nil {
		log.Printf("[Voucher] redeem failed: %v", err)
		return nil, ErrPersistenceFailure
	}

	return &redemption, nil
}
