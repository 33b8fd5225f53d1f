package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kudos-cafe/internal/cache"
	"kudos-cafe/internal/conversation"
	"kudos-cafe/internal/events"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/refund"
	"kudos-cafe/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	scopeCancellation = "cancellation"
	scopeReorder      = "reorder"
	scopeReply        = "reply"
)

// messageService implements MessageService.
type messageService struct {
	orderRepo   repository.OrderRepository
	messageRepo repository.MessageRepository
	policy      refund.Policy
	idempotency cache.IdempotencyStore
	notify      *notifier
	clock       Clock
	logger      zerolog.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(
	orderRepo repository.OrderRepository,
	messageRepo repository.MessageRepository,
	policy refund.Policy,
	idempotency cache.IdempotencyStore,
	out Notifications,
	clock Clock,
	logger zerolog.Logger,
) MessageService {
	l := logger.With().Str("service", "message").Logger()
	return &messageService{
		orderRepo:   orderRepo,
		messageRepo: messageRepo,
		policy:      policy,
		idempotency: idempotency,
		notify:      newNotifier(messageRepo, out, clock, l),
		clock:       clock,
		logger:      l,
	}
}

// RequestCancellation files a cancellation request for staff. The order
// itself is not changed; staff settle the request with ApproveRefund or
// DenyCancellation.
func (s *messageService) RequestCancellation(
	ctx context.Context,
	actor model.Actor,
	orderID uuid.UUID,
	req *model.CancellationRequest,
	idemKey string,
) (*model.CancellationResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	reason, err := s.validateCancellation(req)
	if err != nil {
		return nil, err
	}
	details := strings.TrimSpace(req.RefundDetails)

	order, err := s.ownedOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.ID {
		return nil, model.ErrForbidden
	}

	if !model.CanCancel(order.Status) {
		s.logger.Debug().
			Str("order_id", orderID.String()).
			Str("status", string(order.Status)).
			Msg("cancellation requested for non-cancellable order")
		return nil, model.ErrNotCancellable
	}

	decision := s.policy.Compute(refund.FromOrder(*order), s.clock())
	advisory := s.policy.Advisory(decision)

	release, err := s.claim(ctx, scopeCancellation, actor, idemKey)
	if err != nil {
		return nil, err
	}

	msg := &model.OrderMessage{
		ID:                 uuid.New(),
		OrderID:            order.ID,
		SenderID:           actor.ID,
		Type:               model.MessageCancellationRequest,
		Subject:            fmt.Sprintf("Cancellation request for order #%d", order.OrderNumber),
		Body:               cancellationBody(reason, details, decision, advisory, s.policy.Currency),
		CancellationReason: &reason,
		RefundAmount:       decimal.NewNullDecimal(decision.Amount.Round(2)),
		RefundDetails:      &details,
		IsUrgent:           true,
	}

	if err := s.messageRepo.Create(ctx, nil, msg); err != nil {
		release()
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to create cancellation request")
		return nil, fmt.Errorf("failed to create cancellation request: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("message_id", msg.ID.String()).
		Str("refund", decision.Amount.StringFixed(2)).
		Bool("partial", decision.IsPartial).
		Msg("cancellation requested")

	s.notify.messageChanged(ctx, msg)
	s.notify.messageEvent(ctx, events.EventCancellationRequested, msg)

	return &model.CancellationResult{
		Message:        *msg,
		RefundAmount:   decision.Amount,
		IsPartial:      decision.IsPartial,
		Advisory:       advisory,
		ElapsedMinutes: decision.ElapsedMinutes,
	}, nil
}

// validateCancellation checks the request before any store access and
// returns the composed reason text.
func (s *messageService) validateCancellation(req *model.CancellationRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	label, ok := model.CancellationReasons[req.ReasonCode]
	if !ok {
		return "", model.NewValidationError("reasonCode must be one of the listed cancellation reasons")
	}

	reason := label
	if req.ReasonCode == model.ReasonOther {
		other := strings.TrimSpace(req.OtherReason)
		if other == "" {
			return "", model.NewValidationError("otherReason is required when the reason is other")
		}
		reason = other
	}

	if strings.TrimSpace(req.RefundDetails) == "" {
		return "", model.NewValidationError("refundDetails is required")
	}

	return reason, nil
}

func cancellationBody(reason, details string, d refund.Decision, advisory, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reason: %s\n", reason)
	kind := "full"
	if d.IsPartial {
		kind = "partial"
	}
	fmt.Fprintf(&b, "Refund: %s %s (%s, requested %d minutes after ordering)\n", currency, d.Amount.StringFixed(2), kind, d.ElapsedMinutes)
	fmt.Fprintf(&b, "Refund details: %s\n", details)
	b.WriteString(advisory)
	return b.String()
}

// RequestReorder asks staff to repeat a finished order.
func (s *messageService) RequestReorder(
	ctx context.Context,
	actor model.Actor,
	orderID uuid.UUID,
	req *model.ReorderRequest,
	idemKey string,
) (*model.OrderMessage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if req == nil {
		req = &model.ReorderRequest{}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.UserID != actor.ID {
		return nil, model.ErrForbidden
	}

	if !model.CanReorder(order.Status) {
		return nil, model.ErrNotReorderable
	}

	release, err := s.claim(ctx, scopeReorder, actor, idemKey)
	if err != nil {
		return nil, err
	}

	msg := &model.OrderMessage{
		ID:       uuid.New(),
		OrderID:  order.ID,
		SenderID: actor.ID,
		Type:     model.MessageReorderRequest,
		Subject:  fmt.Sprintf("Reorder request for order #%d", order.OrderNumber),
		Body:     reorderBody(order, items, strings.TrimSpace(req.Note), s.policy.Currency),
	}

	if err := s.messageRepo.Create(ctx, nil, msg); err != nil {
		release()
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to create reorder request")
		return nil, fmt.Errorf("failed to create reorder request: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("message_id", msg.ID.String()).
		Int("item_count", len(items)).
		Msg("reorder requested")

	s.notify.messageChanged(ctx, msg)
	s.notify.messageEvent(ctx, events.EventReorderRequested, msg)

	return msg, nil
}

func reorderBody(order *model.Order, items []model.OrderItem, note, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please repeat order #%d (%s):\n", order.OrderNumber, strings.ReplaceAll(string(order.OrderType), "_", " "))
	for _, it := range items {
		fmt.Fprintf(&b, "- %d x %s @ %s %s\n", it.Quantity, it.Name, currency, it.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "Original total: %s %s", currency, order.TotalAmount.StringFixed(2))
	if note != "" {
		fmt.Fprintf(&b, "\nNote: %s", note)
	}
	return b.String()
}

// ApproveRefund cancels the order, marks it refunded and confirms to the
// customer. All three writes share one transaction.
func (s *messageService) ApproveRefund(
	ctx context.Context,
	actor model.Actor,
	requestID uuid.UUID,
	req *model.DecisionRequest,
) (_ *model.OrderMessage, err error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	note, err := decisionNote(req)
	if err != nil {
		return nil, err
	}

	request, err := s.cancellationRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to approve refund: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.GetForUpdate(ctx, tx, request.OrderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", request.OrderID.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to approve refund: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if !model.CanTransition(order.Status, model.StatusCancelled) {
		return nil, model.ErrNotCancellable
	}

	amount := request.RefundAmount
	if !amount.Valid {
		amount = decimal.NewNullDecimal(s.policy.Compute(refund.FromOrder(*order), request.CreatedAt).Amount.Round(2))
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.StatusCancelled); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to cancel order")
		return nil, fmt.Errorf("failed to approve refund: %w", err)
	}
	if err = s.orderRepo.UpdatePaymentStatus(ctx, tx, order.ID, model.PaymentRefunded); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to mark order refunded")
		return nil, fmt.Errorf("failed to approve refund: %w", err)
	}

	body := fmt.Sprintf("Your cancellation has been approved. A refund of %s %s will be sent using the details you provided.",
		s.policy.Currency, amount.Decimal.StringFixed(2))
	if note != "" {
		body += "\n\n" + note
	}
	msg := &model.OrderMessage{
		ID:              uuid.New(),
		OrderID:         order.ID,
		SenderID:        actor.ID,
		RecipientID:     uuid.NullUUID{UUID: order.UserID, Valid: true},
		Type:            model.MessageAdminResponse,
		Subject:         fmt.Sprintf("Refund approved for order #%d", order.OrderNumber),
		Body:            body,
		RefundAmount:    amount,
		ParentMessageID: uuid.NullUUID{UUID: request.ID, Valid: true},
	}
	if err = s.messageRepo.Create(ctx, tx, msg); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create approval message")
		return nil, fmt.Errorf("failed to approve refund: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to approve refund: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("request_id", request.ID.String()).
		Str("refund", amount.Decimal.StringFixed(2)).
		Msg("refund approved")

	s.notify.messageChanged(ctx, msg)
	s.notify.messageEvent(ctx, events.EventRefundApproved, msg)
	s.notify.publish(ctx, events.EventOrderStatusChanged, order.ID.String(), events.OrderStatusPayload{
		OrderID:       order.ID.String(),
		From:          string(order.Status),
		To:            string(model.StatusCancelled),
		PaymentStatus: string(model.PaymentRefunded),
		ChangedBy:     actor.ID.String(),
	})

	return msg, nil
}

// DenyCancellation tells the customer their request was refused. The order
// is left as it is.
func (s *messageService) DenyCancellation(
	ctx context.Context,
	actor model.Actor,
	requestID uuid.UUID,
	req *model.DecisionRequest,
) (*model.OrderMessage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	note, err := decisionNote(req)
	if err != nil {
		return nil, err
	}

	request, err := s.cancellationRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	order, _, err := s.orderRepo.GetByID(ctx, request.OrderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", request.OrderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to deny cancellation: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	// A refund was already approved; declining now would contradict it.
	if order.Status == model.StatusCancelled || order.PaymentStatus == model.PaymentRefunded {
		return nil, model.ErrRequestResolved
	}

	body := "Your cancellation request has been declined because preparation of your order is already under way."
	if note != "" {
		body = "Your cancellation request has been declined.\n\n" + note
	}
	msg := &model.OrderMessage{
		ID:              uuid.New(),
		OrderID:         request.OrderID,
		SenderID:        actor.ID,
		RecipientID:     uuid.NullUUID{UUID: request.OrderOwner, Valid: request.OrderOwner != uuid.Nil},
		Type:            model.MessageAdminResponse,
		Subject:         fmt.Sprintf("Cancellation declined for order #%d", request.OrderNumber),
		Body:            body,
		ParentMessageID: uuid.NullUUID{UUID: request.ID, Valid: true},
	}
	if err := s.messageRepo.Create(ctx, nil, msg); err != nil {
		s.logger.Error().Err(err).Str("request_id", requestID.String()).Msg("failed to create denial message")
		return nil, fmt.Errorf("failed to deny cancellation: %w", err)
	}

	s.logger.Info().
		Str("order_id", request.OrderID.String()).
		Str("request_id", request.ID.String()).
		Msg("cancellation denied")

	s.notify.messageChanged(ctx, msg)
	s.notify.messageEvent(ctx, events.EventCancellationDenied, msg)

	return msg, nil
}

func decisionNote(req *model.DecisionRequest) (string, error) {
	if req == nil {
		return "", nil
	}
	if err := validateRequest(req); err != nil {
		return "", err
	}
	return strings.TrimSpace(req.Note), nil
}

// cancellationRequest loads a message and checks that staff can act on it.
func (s *messageService) cancellationRequest(ctx context.Context, id uuid.UUID) (*model.MessageView, error) {
	view, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("message_id", id.String()).Msg("failed to get message")
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if view == nil {
		return nil, model.ErrMessageNotFound
	}
	if view.Type != model.MessageCancellationRequest {
		return nil, model.ErrNotCancellationReq
	}
	return view, nil
}

// Reply posts a free-form message on an order's conversation.
func (s *messageService) Reply(
	ctx context.Context,
	actor model.Actor,
	orderID uuid.UUID,
	req *model.ReplyRequest,
	idemKey string,
) (*model.OrderMessage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, model.NewValidationError("body is required")
	}

	order, err := s.ownedOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	if req.ParentMessageID.Valid {
		parent, err := s.messageRepo.GetByID(ctx, req.ParentMessageID.UUID)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to get parent message")
			return nil, fmt.Errorf("failed to get parent message: %w", err)
		}
		if parent == nil || parent.OrderID != order.ID {
			return nil, model.NewValidationError("parentMessageId does not belong to this order")
		}
	}

	release, err := s.claim(ctx, scopeReply, actor, idemKey)
	if err != nil {
		return nil, err
	}

	msg := &model.OrderMessage{
		ID:              uuid.New(),
		OrderID:         order.ID,
		SenderID:        actor.ID,
		Type:            model.MessageCustomerResponse,
		Subject:         fmt.Sprintf("Re: order #%d", order.OrderNumber),
		Body:            body,
		ParentMessageID: req.ParentMessageID,
	}
	if actor.IsAdmin() {
		msg.Type = model.MessageAdminResponse
		msg.RecipientID = uuid.NullUUID{UUID: order.UserID, Valid: true}
	}

	if err := s.messageRepo.Create(ctx, nil, msg); err != nil {
		release()
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to create reply")
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	s.notify.messageChanged(ctx, msg)
	s.notify.messageEvent(ctx, events.EventMessagePosted, msg)

	return msg, nil
}

// MarkRead flags a message as read on behalf of its recipient. Marking an
// already read message is a no-op.
func (s *messageService) MarkRead(ctx context.Context, actor model.Actor, messageID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	view, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		s.logger.Error().Err(err).Str("message_id", messageID.String()).Msg("failed to get message")
		return fmt.Errorf("failed to get message: %w", err)
	}
	if view == nil {
		return model.ErrMessageNotFound
	}

	if !actor.IsAdmin() && view.OrderOwner != actor.ID {
		return model.ErrMessageNotFound
	}
	if view.SenderID == actor.ID {
		return model.ErrForbidden
	}
	if view.IsRead {
		return nil
	}

	if err := s.messageRepo.MarkRead(ctx, messageID); err != nil {
		if errors.Is(err, model.ErrMessageNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("message_id", messageID.String()).Msg("failed to mark message read")
		return fmt.Errorf("failed to mark message read: %w", err)
	}

	view.IsRead = true
	s.notify.messageChanged(ctx, &view.OrderMessage)
	return nil
}

// ListThreads groups the messages visible to the actor into order threads.
func (s *messageService) ListThreads(ctx context.Context, actor model.Actor) ([]conversation.Thread, error) {
	views, err := s.Snapshot(ctx, actor)
	if err != nil {
		return nil, err
	}

	threads, rejected := conversation.BuildThreads(views, actor.ID)
	if len(rejected) > 0 {
		s.logger.Warn().Int("count", len(rejected)).Msg("messages without an order skipped")
	}
	return threads, nil
}

// Snapshot returns the messages visible to the actor: everything for staff,
// only their own orders' messages for customers.
func (s *messageService) Snapshot(ctx context.Context, actor model.Actor) ([]model.MessageView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var (
		views []model.MessageView
		err   error
	)
	if actor.IsAdmin() {
		views, err = s.messageRepo.ListAll(ctx)
	} else {
		views, err = s.messageRepo.ListForUser(ctx, actor.ID)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("actor_id", actor.ID.String()).Msg("failed to list messages")
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return views, nil
}

// SubmitContactInquiry stores a message from the public contact form.
func (s *messageService) SubmitContactInquiry(ctx context.Context, form *model.ContactForm) (*model.OrderMessage, error) {
	if err := validateRequest(form); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", strings.TrimSpace(form.Name), strings.TrimSpace(form.Email))
	if phone := strings.TrimSpace(form.Phone); phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", phone)
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(form.Message))

	msg := &model.OrderMessage{
		ID:      uuid.New(),
		Type:    model.MessageContactInquiry,
		Subject: strings.TrimSpace(form.Subject),
		Body:    b.String(),
	}
	if err := s.messageRepo.Create(ctx, nil, msg); err != nil {
		s.logger.Error().Err(err).Msg("failed to store contact inquiry")
		return nil, fmt.Errorf("failed to store contact inquiry: %w", err)
	}

	s.logger.Info().Str("message_id", msg.ID.String()).Msg("contact inquiry received")
	s.notify.messageEvent(ctx, events.EventContactReceived, msg)

	return msg, nil
}

// ListContactInquiries returns contact form messages for staff.
func (s *messageService) ListContactInquiries(ctx context.Context, actor model.Actor, page repository.Page) ([]model.OrderMessage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.ListContactInquiries(ctx, page)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list contact inquiries")
		return nil, fmt.Errorf("failed to list contact inquiries: %w", err)
	}
	return msgs, nil
}

// ownedOrder loads an order the actor may write to. Staff may write to any
// order; customers only to their own.
func (s *messageService) ownedOrder(ctx context.Context, actor model.Actor, orderID uuid.UUID) (*model.Order, error) {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.UserID != actor.ID && !actor.IsAdmin() {
		return nil, model.ErrForbidden
	}
	return order, nil
}

// claim records an idempotency key for the actor. The returned func
// releases the claim when the write fails. An unavailable store does not
// block the request.
func (s *messageService) claim(ctx context.Context, scope string, actor model.Actor, key string) (func(), error) {
	noop := func() {}
	key = strings.TrimSpace(key)
	if key == "" || s.idempotency == nil {
		return noop, nil
	}

	k := actor.ID.String() + ":" + key
	ok, err := s.idempotency.Claim(ctx, scope, k)
	if err != nil {
		s.logger.Warn().Err(err).Str("scope", scope).Msg("idempotency store unavailable")
		return noop, nil
	}
	if !ok {
		s.logger.Info().Str("scope", scope).Str("actor_id", actor.ID.String()).Msg("duplicate request rejected")
		return nil, model.ErrDuplicateRequest
	}

	return func() {
		if err := s.idempotency.Release(ctx, scope, k); err != nil {
			s.logger.Warn().Err(err).Str("scope", scope).Msg("failed to release idempotency key")
		}
	}, nil
}
