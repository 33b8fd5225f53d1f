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

const menuColumns = `id, name, description, category, price, available, stock_quantity, image_url, created_at, updated_at`

// menuRepository implements the MenuRepository interface using PostgreSQL.
type menuRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMenuRepository creates a new PostgreSQL-backed menu repository.
func NewMenuRepository(pool *pgxpool.Pool, logger zerolog.Logger) MenuRepository {
	return &menuRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "menu").Logger(),
	}
}

func scanMenuItem(row pgx.Row, m *model.MenuItem) error {
	return row.Scan(
		&m.ID,
		&m.Name,
		&m.Description,
		&m.Category,
		&m.Price,
		&m.Available,
		&m.StockQuantity,
		&m.ImageURL,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}

// List retrieves menu items ordered by category and name.
func (r *menuRepository) List(ctx context.Context, filter MenuFilter) ([]model.MenuItem, error) {
	query := `SELECT ` + menuColumns + `
		FROM menu_items
		WHERE ($1 = '' OR category = $1)
		  AND (NOT $2 OR available)
		ORDER BY category, name`

	rows, err := r.pool.Query(ctx, query, filter.Category, filter.AvailableOnly)
	if err != nil {
		r.logger.Error().Err(err).
			Str("category", filter.Category).
			Msg("failed to query menu items")
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}

	return r.collect(rows)
}

// GetByID retrieves a single menu item by its ID.
func (r *menuRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`

	var m model.MenuItem
	if err := scanMenuItem(r.pool.QueryRow(ctx, query, id), &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("menu_item_id", id.String()).Msg("menu item not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("menu_item_id", id.String()).Msg("failed to query menu item")
		return nil, fmt.Errorf("failed to query menu item: %w", err)
	}

	return &m, nil
}

// GetByIDs retrieves multiple menu items by their IDs.
func (r *menuRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.MenuItem, error) {
	if len(ids) == 0 {
		return []model.MenuItem{}, nil
	}

	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = ANY($1) ORDER BY name`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query menu items by IDs")
		return nil, fmt.Errorf("failed to query menu items by IDs: %w", err)
	}

	return r.collect(rows)
}

func (r *menuRepository) collect(rows pgx.Rows) ([]model.MenuItem, error) {
	defer rows.Close()

	items := []model.MenuItem{}
	for rows.Next() {
		var m model.MenuItem
		if err := scanMenuItem(rows, &m); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan menu item row")
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating menu item rows")
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}

// Create inserts a new menu item.
func (r *menuRepository) Create(ctx context.Context, item *model.MenuItem) error {
	query := `
		INSERT INTO menu_items (id, name, description, category, price, available, stock_quantity, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.Category,
		item.Price,
		item.Available,
		item.StockQuantity,
		item.ImageURL,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("name", item.Name).Msg("failed to create menu item")
		return fmt.Errorf("failed to create menu item: %w", err)
	}

	r.logger.Debug().Str("menu_item_id", item.ID.String()).Msg("menu item created")
	return nil
}

// Update replaces the editable fields of a menu item.
func (r *menuRepository) Update(ctx context.Context, item *model.MenuItem) error {
	query := `
		UPDATE menu_items
		SET name = $2, description = $3, category = $4, price = $5,
			available = $6, stock_quantity = $7, image_url = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.Category,
		item.Price,
		item.Available,
		item.StockQuantity,
		item.ImageURL,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrMenuItemNotFound
		}
		r.logger.Error().Err(err).Str("menu_item_id", item.ID.String()).Msg("failed to update menu item")
		return fmt.Errorf("failed to update menu item: %w", err)
	}

	return nil
}

// Delete removes a menu item. Items referenced by past orders are kept and
// marked unavailable instead.
func (r *menuRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		if !isForeignKeyViolation(err) {
			r.logger.Error().Err(err).Str("menu_item_id", id.String()).Msg("failed to delete menu item")
			return fmt.Errorf("failed to delete menu item: %w", err)
		}

		r.logger.Info().Str("menu_item_id", id.String()).Msg("menu item is referenced by orders, retiring instead")
		tag, err = r.pool.Exec(ctx,
			`UPDATE menu_items SET available = FALSE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			r.logger.Error().Err(err).Str("menu_item_id", id.String()).Msg("failed to retire menu item")
			return fmt.Errorf("failed to retire menu item: %w", err)
		}
	}

	if tag.RowsAffected() == 0 {
		return model.ErrMenuItemNotFound
	}
	return nil
}

// AdjustStock adds delta to the stock of an item and returns the new quantity.
func (r *menuRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE menu_items
		SET stock_quantity = GREATEST(stock_quantity + $2, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING stock_quantity
	`

	var qty int
	if err := r.pool.QueryRow(ctx, query, id, delta).Scan(&qty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrMenuItemNotFound
		}
		r.logger.Error().Err(err).
			Str("menu_item_id", id.String()).
			Int("delta", delta).
			Msg("failed to adjust stock")
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	r.logger.Debug().
		Str("menu_item_id", id.String()).
		Int("delta", delta).
		Int("stock_quantity", qty).
		Msg("stock adjusted")

	return qty, nil
}
