package service

import (
	"context"
	"fmt"

	"kudos-cafe/internal/cache"
	"kudos-cafe/internal/events"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	menuRepo  repository.MenuRepository
	analytics cache.AnalyticsCache
	notify    *notifier
	clock     Clock
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	menuRepo repository.MenuRepository,
	analytics cache.AnalyticsCache,
	out Notifications,
	clock Clock,
	logger zerolog.Logger,
) OrderService {
	l := logger.With().Str("service", "order").Logger()
	return &orderService{
		orderRepo: orderRepo,
		menuRepo:  menuRepo,
		analytics: analytics,
		notify:    newNotifier(nil, out, clock, l),
		clock:     clock,
		logger:    l,
	}
}

// PlaceOrder creates a new order. Item names and prices are copied from the
// menu at the time of ordering.
func (s *orderService) PlaceOrder(ctx context.Context, actor model.Actor, req *model.OrderRequest) (_ *model.OrderDetails, err error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Extract menu item IDs and load their current prices
	ids := make([]uuid.UUID, 0, len(req.Items))
	seen := make(map[uuid.UUID]bool, len(req.Items))
	for _, item := range req.Items {
		if !seen[item.MenuItemID] {
			seen[item.MenuItemID] = true
			ids = append(ids, item.MenuItemID)
		}
	}

	menuItems, err := s.menuRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("item_count", len(ids)).Msg("failed to load menu items")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	byID := make(map[uuid.UUID]model.MenuItem, len(menuItems))
	for _, mi := range menuItems {
		byID[mi.ID] = mi
	}

	now := s.clock()
	order := &model.Order{
		ID:            uuid.New(),
		UserID:        actor.ID,
		OrderType:     req.OrderType,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentUnpaid,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	orderItems := make([]model.OrderItem, len(req.Items))
	total := decimal.Zero
	for i, item := range req.Items {
		mi, ok := byID[item.MenuItemID]
		if !ok {
			s.logger.Warn().Str("menu_item_id", item.MenuItemID.String()).Msg("menu item not found")
			return nil, model.ErrMenuItemNotFound
		}
		if !mi.Available {
			s.logger.Warn().Str("menu_item_id", item.MenuItemID.String()).Msg("menu item unavailable")
			return nil, model.ErrMenuItemUnavailable
		}
		orderItems[i] = model.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			MenuItemID: mi.ID,
			Name:       mi.Name,
			UnitPrice:  mi.Price,
			Quantity:   item.Quantity,
		}
		total = total.Add(orderItems[i].LineTotal())
	}
	order.TotalAmount = total

	if req.DepositPaid != nil {
		if req.DepositPaid.IsNegative() || req.DepositPaid.GreaterThan(total) {
			return nil, model.NewValidationError("depositPaid must be between 0 and the order total")
		}
		order.DepositPaid = decimal.NewNullDecimal(*req.DepositPaid)
		if req.DepositPaid.IsPositive() {
			order.PaymentStatus = model.PaymentPaid
		}
	}

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(orderItems)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	// Commit transaction
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int64("order_number", order.OrderNumber).
		Int("item_count", len(orderItems)).
		Str("total", total.StringFixed(2)).
		Msg("order created successfully")

	s.invalidateAnalytics(ctx)
	s.notify.publish(ctx, events.EventOrderPlaced, order.ID.String(), events.OrderPlacedPayload{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      actor.ID.String(),
		Total:       total,
		ItemCount:   len(orderItems),
	})

	return model.NewOrderDetails(*order, orderItems), nil
}

// History returns the actor's orders, newest first. Items are not loaded.
func (s *orderService) History(ctx context.Context, actor model.Actor, page repository.Page) ([]model.OrderDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByUser(ctx, actor.ID, page)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", actor.ID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	out := make([]model.OrderDetails, len(orders))
	for i, o := range orders {
		out[i] = *model.NewOrderDetails(o, nil)
	}
	return out, nil
}

// Get retrieves an order by its ID with all items.
func (s *orderService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.OrderDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	if order.UserID != actor.ID && !actor.IsAdmin() {
		return nil, model.ErrForbidden
	}

	return model.NewOrderDetails(*order, items), nil
}

// AdminList returns all orders for staff.
func (s *orderService) AdminList(ctx context.Context, actor model.Actor, status model.OrderStatus, page repository.Page) ([]model.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("unknown order status %q", status))
	}

	orders, err := s.orderRepo.ListAll(ctx, status, page)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to a new status. The order row is locked so
// two staff members cannot race past the transition check.
func (s *orderService) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, to model.OrderStatus) (_ *model.Order, err error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("unknown order status %q", to))
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	from := order.Status
	if !model.CanTransition(from, to) {
		s.logger.Debug().
			Str("order_id", id.String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("status transition rejected")
		return nil, model.ErrInvalidTransition
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, id, to); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = to
	order.UpdatedAt = s.clock()

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("order status updated")

	s.invalidateAnalytics(ctx)
	s.notify.publish(ctx, events.EventOrderStatusChanged, id.String(), events.OrderStatusPayload{
		OrderID:   id.String(),
		From:      string(from),
		To:        string(to),
		ChangedBy: actor.ID.String(),
	})

	return order, nil
}

func (s *orderService) invalidateAnalytics(ctx context.Context) {
	if s.analytics == nil {
		return
	}
	if err := s.analytics.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate analytics cache")
	}
}
