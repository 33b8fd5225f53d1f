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

type galleryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewGalleryRepository creates a new PostgreSQL-backed gallery repository.
func NewGalleryRepository(pool *pgxpool.Pool, logger zerolog.Logger) GalleryRepository {
	return &galleryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "gallery").Logger(),
	}
}

func (r *galleryRepository) Create(ctx context.Context, img *model.GalleryImage) error {
	query := `
		INSERT INTO gallery_images (id, title, object_key, url, content_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		img.ID,
		img.Title,
		img.ObjectKey,
		img.URL,
		img.ContentType,
		nullable(img.UploadedBy),
	).Scan(&img.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("object_key", img.ObjectKey).Msg("failed to create gallery image")
		return fmt.Errorf("failed to create gallery image: %w", err)
	}
	return nil
}

func (r *galleryRepository) List(ctx context.Context, page Page) ([]model.GalleryImage, error) {
	page = page.normalise()
	query := `
		SELECT id, title, object_key, url, content_type, uploaded_by, created_at
		FROM gallery_images
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query gallery images")
		return nil, fmt.Errorf("failed to query gallery images: %w", err)
	}
	defer rows.Close()

	images := []model.GalleryImage{}
	for rows.Next() {
		var img model.GalleryImage
		if err := rows.Scan(&img.ID, &img.Title, &img.ObjectKey, &img.URL, &img.ContentType, &img.UploadedBy, &img.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan gallery image row")
			return nil, fmt.Errorf("failed to scan gallery image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating gallery image rows")
		return nil, fmt.Errorf("error iterating gallery images: %w", err)
	}

	return images, nil
}

func (r *galleryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GalleryImage, error) {
	query := `
		SELECT id, title, object_key, url, content_type, uploaded_by, created_at
		FROM gallery_images
		WHERE id = $1
	`

	var img model.GalleryImage
	err := r.pool.QueryRow(ctx, query, id).Scan(&img.ID, &img.Title, &img.ObjectKey, &img.URL, &img.ContentType, &img.UploadedBy, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("image_id", id.String()).Msg("failed to query gallery image")
		return nil, fmt.Errorf("failed to query gallery image: %w", err)
	}
	return &img, nil
}

func (r *galleryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM gallery_images WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("image_id", id.String()).Msg("failed to delete gallery image")
		return fmt.Errorf("failed to delete gallery image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrImageNotFound
	}
	return nil
}
