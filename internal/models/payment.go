package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods.
const (
	PaymentMethodCash          = "cash"
	PaymentMethodCard          = "card"
	PaymentMethodEwallet       = "ewallet"
	PaymentMethodOnlineBanking = "online_banking"
)

// Payment statuses. Cash orders settle at the counter, so they are created in
// their terminal state; card/ewallet/online orders are created paid because
// provider authorization happens before checkout persists anything.
const (
	PaymentStatusPaid         = "paid"
	PaymentStatusCashOnPickup = "cash_on_pickup"
	PaymentStatusRefunded     = "refunded"
)

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodEwallet, PaymentMethodOnlineBanking:
		return true
	}
	return false
}

// Payment records how an order was paid. One per order.
type Payment struct {
	BaseModel
	OrderID        uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	Method         string    `json:"method"`
	Status         string    `json:"status"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
}

// Pickup statuses.
const (
	PickupStatusWaiting   = "waiting"
	PickupStatusReady     = "ready"
	PickupStatusCollected = "collected"
)

// Pickup tracks physical collection of an order. The QR code is a signed
// token the vendor scans to release the order. Queue numbers restart daily
// per vendor; the composite unique index rejects a duplicate handed out by
// two overlapping checkouts.
type Pickup struct {
	BaseModel
	OrderID     uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	VendorID    uuid.UUID  `gorm:"type:uuid;index:idx_vendor_day_queue,unique" json:"vendor_id"`
	QueueDate   time.Time  `gorm:"index:idx_vendor_day_queue,unique" json:"queue_date"`
	QueueNumber int        `gorm:"index:idx_vendor_day_queue,unique" json:"queue_number"`
	QRCode      string     `json:"qr_code"`
	Status      string     `json:"status"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
}
