package services

import "net/http"

// ServiceError is a caller-visible failure with a stable machine code.
// Internal detail (SQL text, stack traces) never rides on one of these.
type ServiceError struct {
	Code    string
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Retryable reports whether the caller may safely resubmit the request.
func (e *ServiceError) Retryable() bool {
	switch e.Code {
	case "lock_timeout", "concurrent_modification", "persistence_failure":
		return true
	}
	return false
}

var (
	ErrEmptyCart = &ServiceError{
		Code: "empty_cart", Status: http.StatusBadRequest,
		Message: "cart has no items",
	}
	ErrPaymentDeclined = &ServiceError{
		Code: "payment_declined", Status: http.StatusPaymentRequired,
		Message: "payment was declined by the provider",
	}
	ErrPersistenceFailure = &ServiceError{
		Code: "persistence_failure", Status: http.StatusServiceUnavailable,
		Message: "could not save changes, please retry",
	}
	ErrInvalidTransition = &ServiceError{
		Code: "invalid_transition", Status: http.StatusConflict,
		Message: "order status cannot change to the requested state",
	}
	ErrTransitionNotAllowed = &ServiceError{
		Code: "transition_not_allowed", Status: http.StatusForbidden,
		Message: "you are not allowed to set this order status",
	}
	ErrConcurrentModification = &ServiceError{
		Code: "concurrent_modification", Status: http.StatusConflict,
		Message: "order was updated by someone else, please retry",
	}
	ErrLockTimeout = &ServiceError{
		Code: "lock_timeout", Status: http.StatusServiceUnavailable,
		Message: "order is busy, please retry",
	}
	ErrOrderNotFound = &ServiceError{
		Code: "order_not_found", Status: http.StatusNotFound,
		Message: "order not found",
	}
	ErrPickupCodeMismatch = &ServiceError{
		Code: "pickup_code_mismatch", Status: http.StatusUnprocessableEntity,
		Message: "scanned code does not match this order",
	}
	ErrPickupNotReady = &ServiceError{
		Code: "pickup_not_ready", Status: http.StatusConflict,
		Message: "order is not ready for collection",
	}

	ErrVoucherNotFound = &ServiceError{
		Code: "voucher_not_found", Status: http.StatusNotFound,
		Message: "voucher code not found",
	}
	ErrVoucherInactive = &ServiceError{
		Code: "voucher_inactive", Status: http.StatusUnprocessableEntity,
		Message: "voucher is not active",
	}
	ErrVoucherNotStarted = &ServiceError{
		Code: "voucher_not_started", Status: http.StatusUnprocessableEntity,
		Message: "voucher is not valid yet",
	}
	ErrVoucherExpired = &ServiceError{
		Code: "voucher_expired", Status: http.StatusUnprocessableEntity,
		Message: "voucher has expired",
	}
	ErrVoucherUsageLimit = &ServiceError{
		Code: "voucher_usage_limit", Status: http.StatusUnprocessableEntity,
		Message: "voucher usage limit reached",
	}
	ErrVoucherPerUserLimit = &ServiceError{
		Code: "voucher_per_user_limit", Status: http.StatusUnprocessableEntity,
		Message: "you have already used this voucher the maximum number of times",
	}
	ErrVoucherMinOrder = &ServiceError{
		Code: "voucher_min_order", Status: http.StatusUnprocessableEntity,
		Message: "order subtotal is below the voucher minimum",
	}
	ErrVoucherNotRedeemed = &ServiceError{
		Code: "voucher_not_redeemed", Status: http.StatusUnprocessableEntity,
		Message: "redeem this voucher before applying it",
	}
)
