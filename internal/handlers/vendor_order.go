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

// VendorOrderHandler manages the vendor-facing order endpoints: queue
// listing, the forward status path, cancellation and QR pickup completion.
type VendorOrderHandler struct {
	db       *gorm.DB
	orders   *services.OrderService
	notifier services.Notifier
}

// NewVendorOrderHandler constructs VendorOrderHandler.
func NewVendorOrderHandler(db *gorm.DB, orders *services.OrderService, notifier services.Notifier) *VendorOrderHandler {
	return &VendorOrderHandler{db: db, orders: orders, notifier: notifier}
}

// ListOrders returns orders for the authenticated vendor.
func (h *VendorOrderHandler) ListOrders(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{}).Where("vendor_id = ?", vendorID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("Pickup").
		Order("created_at asc").
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

// GetOrder returns a single order belonging to the authenticated vendor.
func (h *VendorOrderHandler) GetOrder(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("Payment").Preload("Pickup").
		First(&order, "id = ? AND vendor_id = ?", id, vendorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// UpdateStatus moves one of the vendor's orders along the status graph.
func (h *VendorOrderHandler) UpdateStatus(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "status is required")
	}
	if req.Status == models.OrderStatusCancelled && req.Reason == "" {
		return fiber.NewError(fiber.StatusBadRequest, "reason is required for cancellation")
	}

	// Ownership check before any mutation.
	var order models.Order
	if err := h.db.First(&order, "id = ? AND vendor_id = ?", id, vendorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return respondError(c, err)
	}

	updated, err := h.orders.UpdateStatus(c.Context(), order.ID, order.Status,
		req.Status, utils.RoleVendor, req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	h.dispatchStatusEvent(updated)
	return c.JSON(fiber.Map{"success": true, "data": updated})
}

type completePickupRequest struct {
	QRCode string `json:"qr_code"`
}

// CompletePickup completes an order via a scanned pickup QR code.
func (h *VendorOrderHandler) CompletePickup(c *fiber.Ctx) error {
	vendorID, ok := middleware.GetCurrentVendorID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req completePickupRequest
	if err := c.BodyParser(&req); err != nil || req.QRCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "qr_code is required")
	}

	updated, err := h.orders.CompletePickup(c.Context(), id, vendorID, req.QRCode)
	if err != nil {
		return respondError(c, err)
	}

	h.dispatchStatusEvent(updated)
	return c.JSON(fiber.Map{"success": true, "data": updated})
}

func (h *VendorOrderHandler) dispatchStatusEvent(order *models.Order) {
	services.Dispatch(h.notifier, []services.OrderEvent{{
		Type:        "order_status",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID.String(),
		VendorID:    order.VendorID.String(),
		Status:      order.Status,
		Total:       order.Total.StringFixed(2),
		OccurredAt:  time.Now(),
	}})
}
