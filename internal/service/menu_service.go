package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kudos-cafe/internal/model"
	"kudos-cafe/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var inventoryHeader = []string{"id", "name", "category", "price", "available", "stock_quantity", "updated_at"}

// menuService implements MenuService.
type menuService struct {
	menuRepo repository.MenuRepository
	logger   zerolog.Logger
}

// NewMenuService creates a new menu service.
func NewMenuService(menuRepo repository.MenuRepository, logger zerolog.Logger) MenuService {
	return &menuService{
		menuRepo: menuRepo,
		logger:   logger.With().Str("service", "menu").Logger(),
	}
}

// ListPublic returns the items customers can order, optionally in one category.
func (s *menuService) ListPublic(ctx context.Context, category string) ([]model.MenuItem, error) {
	items, err := s.menuRepo.List(ctx, repository.MenuFilter{
		Category:      strings.TrimSpace(category),
		AvailableOnly: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("category", category).Msg("failed to list menu")
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	return items, nil
}

// ListAll returns every item, including retired ones.
func (s *menuService) ListAll(ctx context.Context, actor model.Actor) ([]model.MenuItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	items, err := s.menuRepo.List(ctx, repository.MenuFilter{})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list menu")
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	return items, nil
}

func (s *menuService) Create(ctx context.Context, actor model.Actor, req *model.MenuItemRequest) (*model.MenuItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateMenuItem(req); err != nil {
		return nil, err
	}

	item := menuItemFromRequest(uuid.New(), req)
	if err := s.menuRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}

	s.logger.Info().Str("menu_item_id", item.ID.String()).Str("name", item.Name).Msg("menu item created")
	return item, nil
}

func (s *menuService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.MenuItemRequest) (*model.MenuItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateMenuItem(req); err != nil {
		return nil, err
	}

	item := menuItemFromRequest(id, req)
	if err := s.menuRepo.Update(ctx, item); err != nil {
		if errors.Is(err, model.ErrMenuItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	return item, nil
}

// Delete removes an item, or retires it when past orders still refer to it.
func (s *menuService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.menuRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrMenuItemNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	s.logger.Info().Str("menu_item_id", id.String()).Msg("menu item deleted")
	return nil
}

func (s *menuService) AdjustStock(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.StockAdjustment) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if err := validateRequest(req); err != nil {
		return 0, err
	}

	qty, err := s.menuRepo.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		if errors.Is(err, model.ErrMenuItemNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	if qty == 0 {
		s.logger.Warn().Str("menu_item_id", id.String()).Msg("menu item out of stock")
	}
	return qty, nil
}

// ExportInventory writes one CSV row per menu item. Fields containing
// commas, quotes or newlines are quoted by encoding/csv.
func (s *menuService) ExportInventory(ctx context.Context, actor model.Actor, w io.Writer) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	items, err := s.menuRepo.List(ctx, repository.MenuFilter{})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list menu for export")
		return fmt.Errorf("failed to export inventory: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(inventoryHeader); err != nil {
		return fmt.Errorf("failed to export inventory: %w", err)
	}
	for _, it := range items {
		record := []string{
			it.ID.String(),
			it.Name,
			it.Category,
			it.Price.StringFixed(2),
			strconv.FormatBool(it.Available),
			strconv.Itoa(it.StockQuantity),
			it.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to export inventory: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to export inventory: %w", err)
	}

	s.logger.Debug().Int("item_count", len(items)).Msg("inventory exported")
	return nil
}

func validateMenuItem(req *model.MenuItemRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return model.NewValidationError("name is required")
	}
	if !req.Price.IsPositive() {
		return model.NewValidationError("price must be greater than zero")
	}
	return nil
}

func menuItemFromRequest(id uuid.UUID, req *model.MenuItemRequest) *model.MenuItem {
	return &model.MenuItem{
		ID:            id,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Category:      strings.TrimSpace(req.Category),
		Price:         req.Price.Round(2),
		Available:     req.Available,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
	}
}
