package service

import (
	"context"
	"errors"
	"fmt"

	"kudos-cafe/internal/cache"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// adminService implements AdminService.
type adminService struct {
	profileRepo   repository.ProfileRepository
	analyticsRepo repository.AnalyticsRepository
	analytics     cache.AnalyticsCache
	logger        zerolog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	profileRepo repository.ProfileRepository,
	analyticsRepo repository.AnalyticsRepository,
	analytics cache.AnalyticsCache,
	logger zerolog.Logger,
) AdminService {
	return &adminService{
		profileRepo:   profileRepo,
		analyticsRepo: analyticsRepo,
		analytics:     analytics,
		logger:        logger.With().Str("service", "admin").Logger(),
	}
}

func (s *adminService) ListUsers(ctx context.Context, actor model.Actor, page repository.Page) ([]model.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	profiles, err := s.profileRepo.List(ctx, page)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list profiles")
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// UpdateRole changes a user's role. Staff cannot demote themselves.
func (s *adminService) UpdateRole(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.RoleUpdateRequest) (*model.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if id == actor.ID && req.Role != model.RoleAdmin {
		return nil, model.NewValidationError("you cannot remove your own admin role")
	}

	if err := s.profileRepo.UpdateRole(ctx, id, req.Role); err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, model.ErrProfileNotFound
	}

	s.logger.Info().
		Str("user_id", id.String()).
		Str("role", string(req.Role)).
		Str("changed_by", actor.ID.String()).
		Msg("user role updated")
	return profile, nil
}

// Analytics returns the dashboard summary, served from cache while fresh.
func (s *adminService) Analytics(ctx context.Context, actor model.Actor) (*model.AnalyticsSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	if s.analytics != nil {
		summary, ok, err := s.analytics.Get(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
		} else if ok {
			return summary, nil
		}
	}

	summary, err := s.analyticsRepo.Summary(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to compute analytics")
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}

	if s.analytics != nil {
		if err := s.analytics.Set(ctx, summary); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache analytics")
		}
	}
	return summary, nil
}
