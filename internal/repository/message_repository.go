package repository

import (
	"context"
	"errors"
	"fmt"

	"kudos-cafe/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const messageViewSelect = `
	SELECT m.id, m.order_id, m.sender_id, m.recipient_id, m.message_type, m.subject, m.body,
		m.cancellation_reason, m.refund_amount, m.refund_details, m.is_urgent, m.is_read,
		m.parent_message_id, m.created_at,
		COALESCE(o.order_number, 0), o.user_id,
		COALESCE(p.display_name, ''), COALESCE(p.role, '')
	FROM order_messages m
	LEFT JOIN orders o ON o.id = m.order_id
	LEFT JOIN profiles p ON p.id = m.sender_id
`

type messageRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMessageRepository creates a new PostgreSQL-backed message repository.
func NewMessageRepository(pool *pgxpool.Pool, logger zerolog.Logger) MessageRepository {
	return &messageRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "message").Logger(),
	}
}

func (r *messageRepository) Create(ctx context.Context, tx pgx.Tx, msg *model.OrderMessage) error {
	query := `
		INSERT INTO order_messages (id, order_id, sender_id, recipient_id, message_type, subject, body,
			cancellation_reason, refund_amount, refund_details, is_urgent, is_read, parent_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	err := conn(r.pool, tx).QueryRow(ctx, query,
		msg.ID,
		nullable(msg.OrderID),
		nullable(msg.SenderID),
		msg.RecipientID,
		msg.Type,
		msg.Subject,
		msg.Body,
		msg.CancellationReason,
		msg.RefundAmount,
		msg.RefundDetails,
		msg.IsUrgent,
		msg.IsRead,
		msg.ParentMessageID,
	).Scan(&msg.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", msg.OrderID.String()).
			Str("message_type", string(msg.Type)).
			Msg("failed to create message")
		return fmt.Errorf("failed to create message: %w", err)
	}

	r.logger.Debug().
		Str("message_id", msg.ID.String()).
		Str("message_type", string(msg.Type)).
		Msg("message created")

	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MessageView, error) {
	rows, err := r.pool.Query(ctx, messageViewSelect+` WHERE m.id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("message_id", id.String()).Msg("failed to query message")
		return nil, fmt.Errorf("failed to query message: %w", err)
	}

	views, err := collectViews(rows)
	if err != nil {
		r.logger.Error().Err(err).Str("message_id", id.String()).Msg("failed to read message")
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

func (r *messageRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.MessageView, error) {
	query := messageViewSelect + `
		WHERE o.user_id = $1
		ORDER BY m.created_at, m.id`
	return r.listViews(ctx, query, userID)
}

func (r *messageRepository) ListAll(ctx context.Context) ([]model.MessageView, error) {
	query := messageViewSelect + `
		WHERE m.order_id IS NOT NULL
		ORDER BY m.created_at, m.id`
	return r.listViews(ctx, query)
}

func (r *messageRepository) listViews(ctx context.Context, query string, args ...any) ([]model.MessageView, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query messages")
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	views, err := collectViews(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read messages")
		return nil, err
	}
	return views, nil
}

func collectViews(rows pgx.Rows) ([]model.MessageView, error) {
	defer rows.Close()

	views := []model.MessageView{}
	for rows.Next() {
		var v model.MessageView
		var role string
		err := rows.Scan(
			&v.ID,
			&v.OrderID,
			&v.SenderID,
			&v.RecipientID,
			&v.Type,
			&v.Subject,
			&v.Body,
			&v.CancellationReason,
			&v.RefundAmount,
			&v.RefundDetails,
			&v.IsUrgent,
			&v.IsRead,
			&v.ParentMessageID,
			&v.CreatedAt,
			&v.OrderNumber,
			&v.OrderOwner,
			&v.SenderName,
			&role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		v.SenderRole = model.Role(role)
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return views, nil
}

func (r *messageRepository) ListContactInquiries(ctx context.Context, page Page) ([]model.OrderMessage, error) {
	page = page.normalise()
	query := `
		SELECT id, subject, body, is_read, created_at
		FROM order_messages
		WHERE message_type = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, model.MessageContactInquiry, page.Limit, page.Offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query contact inquiries")
		return nil, fmt.Errorf("failed to query contact inquiries: %w", err)
	}
	defer rows.Close()

	msgs := []model.OrderMessage{}
	for rows.Next() {
		m := model.OrderMessage{Type: model.MessageContactInquiry}
		if err := rows.Scan(&m.ID, &m.Subject, &m.Body, &m.IsRead, &m.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan contact inquiry row")
			return nil, fmt.Errorf("failed to scan contact inquiry: %w", err)
		}
		msgs = append(msgs, m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating contact inquiry rows")
		return nil, fmt.Errorf("error iterating contact inquiries: %w", err)
	}

	return msgs, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`UPDATE order_messages SET is_read = TRUE WHERE id = $1 RETURNING TRUE`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrMessageNotFound
		}
		r.logger.Error().Err(err).Str("message_id", id.String()).Msg("failed to mark message read")
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}
