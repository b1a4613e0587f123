package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/foodhunter/internal/middleware"
	"github.com/example/foodhunter/internal/models"
	"github.com/example/foodhunter/internal/services"
	"github.com/example/foodhunter/internal/utils"
)

// VoucherHandler manages vendor voucher CRUD plus customer redemption and
// validation.
type VoucherHandler struct {
	db       *gorm.DB
	vouchers *services.VoucherService
}

// NewVoucherHandler constructs VoucherHandler.
func NewVoucherHandler(db *gorm.DB, vouchers *services.VoucherService) *VoucherHandler {
	return &VoucherHandler{db: db, vouchers: vouchers}
}

// ListMyVouchers returns the authenticated vendor's vouchers.
func (h *VoucherHandler) ListMyVouchers(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.Voucher{}).Where("vendor_id = ?", vendorID).Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var vouchers []models.Voucher
	if err := h.db.Where("vendor_id = ?", vendorID).
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&vouchers).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": vouchers, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// CreateVoucher issues a new voucher for the authenticated vendor.
func (h *VoucherHandler) CreateVoucher(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var voucher models.Voucher
	if err := c.BodyParser(&voucher); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if voucher.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}
	if voucher.Type != models.VoucherTypeFixed && voucher.Type != models.VoucherTypePercentage {
		return fiber.NewError(fiber.StatusBadRequest, "type must be fixed or percentage")
	}
	if !voucher.Value.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "value must be positive")
	}
	if voucher.Type == models.VoucherTypePercentage && voucher.Value.GreaterThan(decimal.NewFromInt(100)) {
		return fiber.NewError(fiber.StatusBadRequest, "percentage cannot exceed 100")
	}
	if voucher.MinOrder.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "min_order cannot be negative")
	}
	if voucher.PerUserLimit <= 0 {
		voucher.PerUserLimit = 1
	}

	voucher.ID = uuid.Nil
	voucher.VendorID = &vendorID
	voucher.UsageCount = 0
	if err := h.db.Create(&voucher).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": voucher})
}

// UpdateVoucher edits one of the authenticated vendor's vouchers. Usage
// counters are store-managed and cannot be overwritten here.
func (h *VoucherHandler) UpdateVoucher(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var voucher models.Voucher
	if err := h.db.First(&voucher, "id = ? AND vendor_id = ?", id, vendorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "voucher not found")
		}
		return respondError(c, err)
	}

	usageCount := voucher.UsageCount
	if err := c.BodyParser(&voucher); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !voucher.Value.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "value must be positive")
	}

	voucher.ID = id
	voucher.VendorID = &vendorID
	voucher.UsageCount = usageCount
	if err := h.db.Save(&voucher).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": voucher})
}

// DeactivateVoucher switches a voucher off without deleting its history.
func (h *VoucherHandler) DeactivateVoucher(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	res := h.db.Model(&models.Voucher{}).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		Update("is_active", false)
	if res.Error != nil {
		return respondError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "voucher not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type redeemRequest struct {
	Code string `json:"code"`
}

// RedeemVoucher lets a customer claim a voucher for later use.
func (h *VoucherHandler) RedeemVoucher(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req redeemRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	redemption, err := h.vouchers.Redeem(c.Context(), userID, req.Code)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": redemption})
}

type validateVoucherRequest struct {
	Code     string `json:"code"`
	Subtotal string `json:"subtotal"`
}

// ValidateVoucher checks a code against a subtotal for the authenticated
// customer and returns the discount it would grant.
func (h *VoucherHandler) ValidateVoucher(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req validateVoucherRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	subtotal, err := decimal.NewFromString(req.Subtotal)
	if err != nil || subtotal.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid subtotal")
	}

	validation, err := h.vouchers.Validate(c.Context(), req.Code, subtotal, &userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"code":        validation.Voucher.Code,
		"discount":    validation.Discount.StringFixed(2),
		"description": validation.Description,
	}})
}
