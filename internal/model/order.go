package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus tracks the money side of an order.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// OrderType is how the customer receives the order.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing: {StatusReady: true},
	StatusReady:     {StatusDelivered: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// CanCancel reports whether a customer may ask to cancel an order in status s.
func CanCancel(s OrderStatus) bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanReorder reports whether a customer may ask to repeat an order in status s.
func CanReorder(s OrderStatus) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order represents a customer order.
type Order struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	OrderNumber   int64               `json:"orderNumber" db:"order_number"`
	UserID        uuid.UUID           `json:"userId" db:"user_id"`
	OrderType     OrderType           `json:"orderType" db:"order_type"`
	Status        OrderStatus         `json:"status" db:"status"`
	PaymentStatus PaymentStatus       `json:"paymentStatus" db:"payment_status"`
	TotalAmount   decimal.Decimal     `json:"totalAmount" db:"total_amount"`
	DepositPaid   decimal.NullDecimal `json:"depositPaid" db:"deposit_paid"`
	Notes         string              `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time           `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order. Name and price are copied
// from the menu when the order is placed.
type OrderItem struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	OrderID    uuid.UUID       `json:"-" db:"order_id"`
	MenuItemID uuid.UUID       `json:"menuItemId" db:"menu_item_id"`
	Name       string          `json:"name" db:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity   int             `json:"quantity" db:"quantity"`
}

// LineTotal returns price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderRequest represents the request payload for placing an order.
type OrderRequest struct {
	OrderType   OrderType          `json:"orderType" validate:"required,oneof=dine_in pickup delivery"`
	Notes       string             `json:"notes" validate:"max=500"`
	DepositPaid *decimal.Decimal   `json:"depositPaid,omitempty"`
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	MenuItemID uuid.UUID `json:"menuItemId" validate:"required"`
	Quantity   int       `json:"quantity" validate:"gt=0,lte=100"`
}

// StatusUpdateRequest is the admin payload for moving an order along.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// OrderDetails is an order with its items and the customer actions
// currently available on it.
type OrderDetails struct {
	Order
	Items      []OrderItem `json:"items"`
	CanCancel  bool        `json:"canCancel"`
	CanReorder bool        `json:"canReorder"`
}

// NewOrderDetails wraps an order with its items and derived eligibility flags.
func NewOrderDetails(order Order, items []OrderItem) *OrderDetails {
	if items == nil {
		items = []OrderItem{}
	}
	return &OrderDetails{
		Order:      order,
		Items:      items,
		CanCancel:  CanCancel(order.Status),
		CanReorder: CanReorder(order.Status),
	}
}
