package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"kudos-cafe/internal/conversation"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Clock returns the current time. Services take it as a dependency so tests
// can pin the refund window.
type Clock func() time.Time

// OrderService defines operations for order management.
type OrderService interface {
	// PlaceOrder creates an order for the actor, pricing items from the menu.
	PlaceOrder(ctx context.Context, actor model.Actor, req *model.OrderRequest) (*model.OrderDetails, error)

	// History returns the actor's own orders with their eligibility flags.
	History(ctx context.Context, actor model.Actor, page repository.Page) ([]model.OrderDetails, error)

	// Get retrieves one order with its items. Customers may only read their own.
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.OrderDetails, error)

	// AdminList returns all orders, optionally filtered by status.
	AdminList(ctx context.Context, actor model.Actor, status model.OrderStatus, page repository.Page) ([]model.Order, error)

	// UpdateStatus moves an order along its lifecycle.
	UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, to model.OrderStatus) (*model.Order, error)
}

// MessageService runs the order conversation: cancellation and reorder
// requests, staff decisions, replies and the public contact form.
type MessageService interface {
	RequestCancellation(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.CancellationRequest, idemKey string) (*model.CancellationResult, error)
	RequestReorder(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.ReorderRequest, idemKey string) (*model.OrderMessage, error)
	ApproveRefund(ctx context.Context, actor model.Actor, requestID uuid.UUID, req *model.DecisionRequest) (*model.OrderMessage, error)
	DenyCancellation(ctx context.Context, actor model.Actor, requestID uuid.UUID, req *model.DecisionRequest) (*model.OrderMessage, error)
	Reply(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.ReplyRequest, idemKey string) (*model.OrderMessage, error)
	MarkRead(ctx context.Context, actor model.Actor, messageID uuid.UUID) error
	ListThreads(ctx context.Context, actor model.Actor) ([]conversation.Thread, error)
	SubmitContactInquiry(ctx context.Context, form *model.ContactForm) (*model.OrderMessage, error)
	ListContactInquiries(ctx context.Context, actor model.Actor, page repository.Page) ([]model.OrderMessage, error)

	// Snapshot returns the raw message set visible to the actor. The realtime
	// stream seeds its inbox from it.
	Snapshot(ctx context.Context, actor model.Actor) ([]model.MessageView, error)
}

// MenuService defines operations for the menu and inventory.
type MenuService interface {
	ListPublic(ctx context.Context, category string) ([]model.MenuItem, error)
	ListAll(ctx context.Context, actor model.Actor) ([]model.MenuItem, error)
	Create(ctx context.Context, actor model.Actor, req *model.MenuItemRequest) (*model.MenuItem, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.MenuItemRequest) (*model.MenuItem, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	AdjustStock(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.StockAdjustment) (int, error)

	// ExportInventory writes the full menu with stock levels as CSV.
	ExportInventory(ctx context.Context, actor model.Actor, w io.Writer) error
}

// ReviewService defines operations for customer reviews.
type ReviewService interface {
	Submit(ctx context.Context, actor model.Actor, req *model.ReviewRequest) (*model.Review, error)
	ListApproved(ctx context.Context, page repository.Page) ([]model.Review, error)
	ListAll(ctx context.Context, actor model.Actor, page repository.Page) ([]model.Review, error)
	Approve(ctx context.Context, actor model.Actor, id uuid.UUID) error
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

// GalleryService defines operations for the photo gallery.
type GalleryService interface {
	Upload(ctx context.Context, actor model.Actor, title, contentType string, r io.Reader) (*model.GalleryImage, error)
	List(ctx context.Context, page repository.Page) ([]model.GalleryImage, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error

	// Open streams a stored object for the media route.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// AdminService defines user management and the dashboard.
type AdminService interface {
	ListUsers(ctx context.Context, actor model.Actor, page repository.Page) ([]model.Profile, error)
	UpdateRole(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.RoleUpdateRequest) (*model.Profile, error)
	Analytics(ctx context.Context, actor model.Actor) (*model.AnalyticsSummary, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs struct tag validation and converts the first failure
// into a validation error.
func validateRequest(req any) error {
	if req == nil || reflect.ValueOf(req).IsNil() {
		return model.NewValidationError("request body is required")
	}
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return model.NewValidationError(fmt.Sprintf("%s failed the %s=%s rule", fe.Field(), fe.Tag(), fe.Param()))
		}
		return model.NewValidationError(fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag()))
	}
	return model.NewValidationError(err.Error())
}

func requireActor(actor model.Actor) error {
	if actor.ID == uuid.Nil {
		return model.ErrUnauthorised
	}
	return nil
}

func requireAdmin(actor model.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return model.ErrForbidden
	}
	return nil
}
