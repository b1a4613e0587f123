package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/foodhunter/internal/middleware"
	"github.com/example/foodhunter/internal/models"
)

// CartHandler manages the authenticated customer's cart.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

// ListCart returns the customer's cart items with a running subtotal.
func (h *CartHandler) ListCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var items []models.CartItem
	if err := h.db.Preload("MenuItem").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return respondError(c, err)
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if item.MenuItem != nil {
			subtotal = subtotal.Add(item.MenuItem.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"data":     items,
		"subtotal": subtotal.StringFixed(2),
	})
}

type addCartItemRequest struct {
	MenuItemID          string `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
}

// AddCartItem puts a menu item into the cart, merging with an existing line
// for the same item.
func (h *CartHandler) AddCartItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}

	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid menu item id")
	}

	var menuItem models.MenuItem
	if err := h.db.First(&menuItem, "id = ?", menuItemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "menu item not found")
		}
		return respondError(c, err)
	}
	if !menuItem.IsAvailable {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "menu item is not available")
	}

	var existing models.CartItem
	err = h.db.Where("user_id = ? AND menu_item_id = ?", userID, menuItemID).First(&existing).Error
	if err == nil {
		existing.Quantity += req.Quantity
		if req.SpecialInstructions != "" {
			existing.SpecialInstructions = req.SpecialInstructions
		}
		if err := h.db.Save(&existing).Error; err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "data": existing})
	}
	if err != gorm.ErrRecordNotFound {
		return respondError(c, err)
	}

	item := models.CartItem{
		UserID:              userID,
		MenuItemID:          menuItemID,
		Quantity:            req.Quantity,
		SpecialInstructions: req.SpecialInstructions,
	}
	if err := h.db.Create(&item).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

type updateCartItemRequest struct {
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
}

// UpdateCartItem changes quantity or instructions on a cart line.
func (h *CartHandler) UpdateCartItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}

	var item models.CartItem
	if err := h.db.First(&item, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return respondError(c, err)
	}

	item.Quantity = req.Quantity
	item.SpecialInstructions = req.SpecialInstructions
	if err := h.db.Save(&item).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// RemoveCartItem deletes one cart line.
func (h *CartHandler) RemoveCartItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.CartItem{}, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ClearCart empties the customer's cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
