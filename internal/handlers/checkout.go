package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/foodhunter/internal/middleware"
	"github.com/example/foodhunter/internal/models"
	"github.com/example/foodhunter/internal/services"
)

// CheckoutHandler exposes the checkout endpoint.
type CheckoutHandler struct {
	checkout *services.CheckoutService
	notifier services.Notifier
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(checkout *services.CheckoutService, notifier services.Notifier) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, notifier: notifier}
}

type checkoutRequest struct {
	PaymentMethod  string `json:"payment_method"`
	PaymentToken   string `json:"payment_token"`
	Notes          string `json:"notes"`
	VoucherCode    string `json:"voucher_code"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Checkout turns the customer's cart into one order per vendor.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment method")
	}
	if req.PaymentMethod != models.PaymentMethodCash && req.PaymentToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "payment token is required for cashless payment")
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.Get("Idempotency-Key")
	}

	result, err := h.checkout.Checkout(c.Context(), services.CheckoutInput{
		CustomerID:     userID,
		PaymentMethod:  req.PaymentMethod,
		PaymentToken:   req.PaymentToken,
		Notes:          req.Notes,
		VoucherCode:    req.VoucherCode,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return respondError(c, err)
	}

	// Post-commit, best effort. A dropped notification never fails a
	// checkout that already persisted.
	if !result.Reused {
		services.Dispatch(h.notifier, result.Events)
	}

	status := fiber.StatusCreated
	if result.Reused {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"reused":  result.Reused,
		"data":    result.Orders,
	})
}
