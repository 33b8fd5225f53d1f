package repository

import (
	"context"
	"fmt"

	"kudos-cafe/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type reviewRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReviewRepository {
	return &reviewRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "review").Logger(),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (id, order_id, user_id, rating, comment, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		review.ID,
		review.OrderID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.Approved,
	).Scan(&review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrReviewExists
		}
		r.logger.Error().Err(err).Str("order_id", review.OrderID.String()).Msg("failed to create review")
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

func (r *reviewRepository) List(ctx context.Context, approvedOnly bool, page Page) ([]model.Review, error) {
	page = page.normalise()
	query := `
		SELECT r.id, r.order_id, r.user_id, r.rating, r.comment, r.approved, r.created_at,
			COALESCE(p.display_name, '')
		FROM reviews r
		LEFT JOIN profiles p ON p.id = r.user_id
		WHERE (NOT $1 OR r.approved)
		ORDER BY r.created_at DESC, r.id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, approvedOnly, page.Limit, page.Offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		err := rows.Scan(&rv.ID, &rv.OrderID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.Approved, &rv.CreatedAt, &rv.AuthorName)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan review row")
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating review rows")
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) Approve(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reviews SET approved = TRUE WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to approve review")
		return fmt.Errorf("failed to approve review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to delete review")
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}
