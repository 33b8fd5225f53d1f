package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kudos-cafe/internal/cache"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// reviewService implements ReviewService.
type reviewService struct {
	reviewRepo repository.ReviewRepository
	orderRepo  repository.OrderRepository
	analytics  cache.AnalyticsCache
	logger     zerolog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	analytics cache.AnalyticsCache,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		orderRepo:  orderRepo,
		analytics:  analytics,
		logger:     logger.With().Str("service", "review").Logger(),
	}
}

// Submit records a review of one of the actor's delivered orders. Reviews
// stay hidden until staff approve them.
func (s *reviewService) Submit(ctx context.Context, actor model.Actor, req *model.ReviewRequest) (*model.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	order, _, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", req.OrderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.UserID != actor.ID {
		return nil, model.ErrForbidden
	}
	if order.Status != model.StatusDelivered {
		return nil, model.ErrNotReviewable
	}

	review := &model.Review{
		ID:      uuid.New(),
		OrderID: order.ID,
		UserID:  actor.ID,
		Rating:  req.Rating,
		Comment: strings.TrimSpace(req.Comment),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, model.ErrReviewExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info().
		Str("review_id", review.ID.String()).
		Str("order_id", order.ID.String()).
		Int("rating", review.Rating).
		Msg("review submitted")
	return review, nil
}

// ListApproved returns the reviews shown on the public site.
func (s *reviewService) ListApproved(ctx context.Context, page repository.Page) ([]model.Review, error) {
	reviews, err := s.reviewRepo.List(ctx, true, page)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list reviews")
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// ListAll returns every review for moderation.
func (s *reviewService) ListAll(ctx context.Context, actor model.Actor, page repository.Page) ([]model.Review, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.List(ctx, false, page)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list reviews")
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *reviewService) Approve(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.reviewRepo.Approve(ctx, id); err != nil {
		if errors.Is(err, model.ErrReviewNotFound) {
			return err
		}
		return fmt.Errorf("failed to approve review: %w", err)
	}
	s.invalidateAnalytics(ctx)
	return nil
}

func (s *reviewService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrReviewNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	s.invalidateAnalytics(ctx)
	return nil
}

func (s *reviewService) invalidateAnalytics(ctx context.Context) {
	if s.analytics == nil {
		return
	}
	if err := s.analytics.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate analytics cache")
	}
}
