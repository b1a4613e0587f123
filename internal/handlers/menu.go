package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foodhunter/internal/middleware"
	"github.com/example/foodhunter/internal/models"
	"github.com/example/foodhunter/internal/utils"
)

// MenuHandler manages vendor menu endpoints and public browsing.
type MenuHandler struct {
	db *gorm.DB
}

// NewMenuHandler constructs MenuHandler.
func NewMenuHandler(db *gorm.DB) *MenuHandler {
	return &MenuHandler{db: db}
}

// ListVendors returns open vendors for customers to browse.
func (h *MenuHandler) ListVendors(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.Vendor{}).Where("is_open = ?", true).Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var vendors []models.Vendor
	if err := h.db.Where("is_open = ?", true).
		Order("name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&vendors).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": vendors, "pagination": fiber.Map{
		"current_page":   pg.Page,
		"items_per_page": pg.Limit,
		"total_items":    total,
	}})
}

// ListVendorMenu returns a vendor's available menu items.
func (h *MenuHandler) ListVendorMenu(c *fiber.Ctx) error {
	vendorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid vendor id")
	}

	var items []models.MenuItem
	if err := h.db.Where("vendor_id = ? AND is_available = ?", vendorID, true).
		Order("category asc, name asc").
		Find(&items).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

// ListMyMenu returns all of the authenticated vendor's items, including
// unavailable ones.
func (h *MenuHandler) ListMyMenu(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var items []models.MenuItem
	if err := h.db.Where("vendor_id = ?", vendorID).
		Order("category asc, name asc").
		Find(&items).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

// CreateMenuItem adds an item to the authenticated vendor's menu.
func (h *MenuHandler) CreateMenuItem(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var item models.MenuItem
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if item.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if item.Price.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "price cannot be negative")
	}

	item.ID = uuid.Nil
	item.VendorID = vendorID
	if err := h.db.Create(&item).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateMenuItem edits one of the authenticated vendor's items.
func (h *MenuHandler) UpdateMenuItem(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.MenuItem
	if err := h.db.First(&item, "id = ? AND vendor_id = ?", id, vendorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "menu item not found")
		}
		return respondError(c, err)
	}

	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if item.Price.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "price cannot be negative")
	}

	item.ID = id
	item.VendorID = vendorID
	if err := h.db.Save(&item).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// DeleteMenuItem removes one of the authenticated vendor's items.
func (h *MenuHandler) DeleteMenuItem(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.MenuItem{}, "id = ? AND vendor_id = ?", id, vendorID).Error; err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
