package repository

import (
	"context"
	"fmt"
	"time"

	"kudos-cafe/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type analyticsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAnalyticsRepository creates a PostgreSQL-backed analytics repository.
func NewAnalyticsRepository(pool *pgxpool.Pool, logger zerolog.Logger) AnalyticsRepository {
	return &analyticsRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "analytics").Logger(),
	}
}

// Summary computes the dashboard figures. Revenue
// excludes cancelled orders. A cancellation request is pending while its
// order is still cancellable.
func (r *analyticsRepository) Summary(ctx context.Context) (*model.AnalyticsSummary, error) {
	statusQuery := `SELECT status, COUNT(*) FROM orders GROUP BY status`

	totalsQuery := `
		SELECT
			COALESCE(SUM(total_amount) FILTER (WHERE status <> 'cancelled'), 0)::text,
			COALESCE(SUM(COALESCE(deposit_paid, total_amount)) FILTER (WHERE payment_status = 'refunded'), 0)::text,
			(SELECT COUNT(*) FROM order_messages m JOIN orders o ON o.id = m.order_id
				WHERE m.message_type = 'cancellation_request' AND o.status IN ('pending', 'confirmed')),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COALESCE(AVG(rating), 0)::float8 FROM reviews)
		FROM orders
	`

	summary := &model.AnalyticsSummary{
		OrdersByStatus: make(map[model.OrderStatus]int),
		GeneratedAt:    time.Now().UTC(),
	}

	rows, err := r.pool.Query(ctx, statusQuery)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order status counts")
		return nil, fmt.Errorf("failed to query order status counts: %w", err)
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		summary.OrdersByStatus[model.OrderStatus(status)] = n
		summary.TotalOrders += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating status counts")
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	var revenue, refunded string
	err = r.pool.QueryRow(ctx, totalsQuery).Scan(
		&revenue,
		&refunded,
		&summary.PendingCancellationRequests,
		&summary.ReviewCount,
		&summary.AverageRating,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query analytics totals")
		return nil, fmt.Errorf("failed to query analytics totals: %w", err)
	}

	if summary.Revenue, err = decimal.NewFromString(revenue); err != nil {
		return nil, fmt.Errorf("invalid revenue value %q: %w", revenue, err)
	}
	if summary.RefundedTotal, err = decimal.NewFromString(refunded); err != nil {
		return nil, fmt.Errorf("invalid refunded value %q: %w", refunded, err)
	}

	return summary, nil
}
