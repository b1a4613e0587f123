package models

// User represents an authenticated customer.
type User struct {
	BaseModel
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Phone        string  `gorm:"uniqueIndex" json:"phone"`
	DisplayName  string  `json:"display_name"`
	PasswordHash string  `json:"-"`
	Orders       []Order `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
}

// Vendor represents a campus food stall that sells through the platform.
type Vendor struct {
	BaseModel
	Name         string     `json:"name"`
	Phone        string     `gorm:"uniqueIndex" json:"phone"`
	Description  string     `json:"description"`
	PasswordHash string     `json:"-"`
	IsOpen       bool       `gorm:"default:true" json:"is_open"`
	MenuItems    []MenuItem `json:"menu_items,omitempty"`
	Orders       []Order    `json:"orders,omitempty"`
}
