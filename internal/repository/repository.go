package repository

import (
	"context"

	"kudos-cafe/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction and
	// fills in its generated order number.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	// It returns nil values when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetForUpdate locks an order row for the rest of the transaction.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// ListByUser returns a user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]model.Order, error)

	// ListAll returns all orders, newest first, optionally filtered by status.
	ListAll(ctx context.Context, status model.OrderStatus, page Page) ([]model.Order, error)

	// UpdateStatus sets the lifecycle status of an order. tx may be nil.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error

	// UpdatePaymentStatus sets the payment status of an order. tx may be nil.
	UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.PaymentStatus) error
}

// MessageRepository defines data access for order messages.
type MessageRepository interface {
	// Create inserts a message and fills in its creation time. tx may be nil.
	Create(ctx context.Context, tx pgx.Tx, msg *model.OrderMessage) error

	// GetByID returns a message with its display data, or nil if missing.
	GetByID(ctx context.Context, id uuid.UUID) (*model.MessageView, error)

	// ListForUser returns every message on orders owned by userID.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.MessageView, error)

	// ListAll returns every message attached to an order.
	ListAll(ctx context.Context) ([]model.MessageView, error)

	// ListContactInquiries returns public contact messages, newest first.
	ListContactInquiries(ctx context.Context, page Page) ([]model.OrderMessage, error)

	// MarkRead flags a message as read.
	MarkRead(ctx context.Context, id uuid.UUID) error
}

// MenuFilter narrows a menu listing.
type MenuFilter struct {
	Category      string
	AvailableOnly bool
}

// MenuRepository defines data access for menu items.
type MenuRepository interface {
	List(ctx context.Context, filter MenuFilter) ([]model.MenuItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.MenuItem, error)
	Create(ctx context.Context, item *model.MenuItem) error
	Update(ctx context.Context, item *model.MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AdjustStock adds delta to the stock of an item and returns the new
	// quantity. Stock never goes below zero.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)
}

// ReviewRepository defines data access for reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	List(ctx context.Context, approvedOnly bool, page Page) ([]model.Review, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileRepository defines data access for user profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	List(ctx context.Context, page Page) ([]model.Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
}

// GalleryRepository defines data access for gallery images.
type GalleryRepository interface {
	Create(ctx context.Context, img *model.GalleryImage) error
	List(ctx context.Context, page Page) ([]model.GalleryImage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.GalleryImage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnalyticsRepository aggregates dashboard figures.
type AnalyticsRepository interface {
	Summary(ctx context.Context) (*model.AnalyticsSummary, error)
}
