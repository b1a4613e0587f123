package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a vendor's sellable dish. Orders snapshot its name and price at
// checkout time, so edits here never rewrite order history.
type MenuItem struct {
	BaseModel
	VendorID    uuid.UUID       `gorm:"type:uuid;index" json:"vendor_id"`
	Vendor      *Vendor         `json:"vendor,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	ImageURL    string          `json:"image_url"`
	IsAvailable bool            `gorm:"default:true" json:"is_available"`
}

// CartItem is one line of a customer's cart, scoped by user id in every query.
type CartItem struct {
	BaseModel
	UserID              uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	MenuItemID          uuid.UUID `gorm:"type:uuid" json:"menu_item_id"`
	MenuItem            *MenuItem `json:"menu_item,omitempty"`
	Quantity            int       `json:"quantity"`
	SpecialInstructions string    `json:"special_instructions"`
}
