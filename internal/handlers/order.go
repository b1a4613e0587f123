package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foodhunter/internal/middleware"
	"github.com/example/foodhunter/internal/models"
	"github.com/example/foodhunter/internal/services"
	"github.com/example/foodhunter/internal/utils"
)

// OrderHandler manages the customer-facing order endpoints.
type OrderHandler struct {
	db       *gorm.DB
	orders   *services.OrderService
	notifier services.Notifier
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService, notifier services.Notifier) *OrderHandler {
	return &OrderHandler{db: db, orders: orders, notifier: notifier}
}

// ListOrders returns orders for the authenticated customer.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{}).Where("customer_id = ?", userID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("Pickup").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order owned by the authenticated customer.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("Payment").Preload("Pickup").
		First(&order, "id = ? AND customer_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder lets a customer cancel their own order while it is still
// cancellable.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req cancelOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	// Ownership check before any mutation.
	var order models.Order
	if err := h.db.First(&order, "id = ? AND customer_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return respondError(c, err)
	}

	updated, err := h.orders.UpdateStatus(c.Context(), order.ID, order.Status,
		models.OrderStatusCancelled, utils.RoleCustomer, req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	services.Dispatch(h.notifier, []services.OrderEvent{{
		Type:        "order_status",
		OrderID:     updated.ID.String(),
		OrderNumber: updated.OrderNumber,
		CustomerID:  updated.CustomerID.String(),
		VendorID:    updated.VendorID.String(),
		Status:      updated.Status,
		Total:       updated.Total.StringFixed(2),
		OccurredAt:  time.Now(),
	}})

	return c.JSON(fiber.Map{"success": true, "data": updated})
}
