package model

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer's rating of a delivered order.
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"orderId" db:"order_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	Approved  bool      `json:"approved" db:"approved"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// AuthorName is joined from the author's profile for display.
	AuthorName string `json:"authorName,omitempty"`
}

// ReviewRequest is the customer payload for reviewing an order.
type ReviewRequest struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
	Rating  int       `json:"rating" validate:"gte=1,lte=5"`
	Comment string    `json:"comment" validate:"max=2000"`
}
