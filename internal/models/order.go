package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is one vendor's slice of a checkout. A cart spanning several vendors
// fans out into one order per vendor. Orders are never physically deleted.
type Order struct {
	BaseModel
	OrderNumber        string          `gorm:"uniqueIndex" json:"order_number"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;index" json:"customer_id"`
	Customer           *User           `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	VendorID           uuid.UUID       `gorm:"type:uuid;index" json:"vendor_id"`
	Vendor             *Vendor         `json:"vendor,omitempty"`
	Status             string          `gorm:"index" json:"status"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(12,2)" json:"subtotal"`
	ServiceFee         decimal.Decimal `gorm:"type:numeric(12,2)" json:"service_fee"`
	Discount           decimal.Decimal `gorm:"type:numeric(12,2)" json:"discount"`
	Total              decimal.Decimal `gorm:"type:numeric(12,2)" json:"total"`
	VoucherCode        string          `json:"voucher_code,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	Items              []OrderItem     `json:"items,omitempty"`
	Payment            *Payment        `json:"payment,omitempty"`
	Pickup             *Pickup         `json:"pickup,omitempty"`
}

// OrderItem is a line item snapshot. Name and unit price are copied from the
// menu item at checkout so later menu edits leave history intact. Immutable
// after creation.
type OrderItem struct {
	BaseModel
	OrderID             uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	MenuItemID          *uuid.UUID      `gorm:"type:uuid" json:"menu_item_id"`
	ItemName            string          `json:"item_name"`
	UnitPrice           decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	Quantity            int             `json:"quantity"`
	Subtotal            decimal.Decimal `gorm:"type:numeric(12,2)" json:"subtotal"`
	SpecialInstructions string          `json:"special_instructions"`
}
