package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem represents a dish or drink on the café menu.
type MenuItem struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Category      string          `json:"category" db:"category"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Available     bool            `json:"available" db:"available"`
	StockQuantity int             `json:"stockQuantity" db:"stock_quantity"`
	ImageURL      string          `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// MenuItemRequest is the admin payload for creating or replacing a menu item.
type MenuItemRequest struct {
	Name          string          `json:"name" validate:"required,max=120"`
	Description   string          `json:"description" validate:"max=1000"`
	Category      string          `json:"category" validate:"required,max=60"`
	Price         decimal.Decimal `json:"price"`
	Available     bool            `json:"available"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
	ImageURL      string          `json:"imageUrl" validate:"omitempty,max=500"`
}

// StockAdjustment changes the stock of a menu item by Delta units.
type StockAdjustment struct {
	Delta int `json:"delta" validate:"ne=0"`
}
