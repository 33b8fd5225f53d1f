package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"kudos-cafe/internal/model"
	"kudos-cafe/internal/repository"
	"kudos-cafe/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const galleryKeyPrefix = "gallery/"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

// galleryService implements GalleryService.
type galleryService struct {
	galleryRepo repository.GalleryRepository
	store       storage.ObjectStore
	publicBase  string
	maxSize     int64
	logger      zerolog.Logger
}

// NewGalleryService creates a new gallery service. Objects are served under
// publicBase; uploads larger than maxSize bytes are rejected.
func NewGalleryService(
	galleryRepo repository.GalleryRepository,
	store storage.ObjectStore,
	publicBase string,
	maxSize int64,
	logger zerolog.Logger,
) GalleryService {
	return &galleryService{
		galleryRepo: galleryRepo,
		store:       store,
		publicBase:  publicBase,
		maxSize:     maxSize,
		logger:      logger.With().Str("service", "gallery").Logger(),
	}
}

// Upload stores an image and records it in the gallery.
func (s *galleryService) Upload(ctx context.Context, actor model.Actor, title, contentType string, r io.Reader) (*model.GalleryImage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if len(title) > 200 {
		return nil, model.NewValidationError("title failed the max=200 rule")
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		s.logger.Warn().Int64("max_bytes", s.maxSize).Msg("upload too large")
		return nil, model.ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, model.NewValidationError("file is empty")
	}

	mediaType := imageType(contentType, data)
	if mediaType == "" {
		return nil, model.ErrUnsupportedMedia
	}

	id := uuid.New()
	key := galleryKeyPrefix + id.String() + extensionFor(mediaType)

	if err := s.store.Put(ctx, key, data, mediaType); err != nil {
		s.logger.Error().Err(err).Str("object_key", key).Msg("failed to store image")
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	img := &model.GalleryImage{
		ID:          id,
		Title:       title,
		ObjectKey:   key,
		URL:         storage.PublicURL(s.publicBase, key),
		ContentType: mediaType,
		UploadedBy:  actor.ID,
	}
	if err := s.galleryRepo.Create(ctx, img); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("object_key", key).Msg("failed to remove orphaned image")
		}
		return nil, fmt.Errorf("failed to record image: %w", err)
	}

	s.logger.Info().
		Str("image_id", id.String()).
		Str("object_key", key).
		Int("bytes", len(data)).
		Msg("image uploaded")
	return img, nil
}

// imageType returns the image media type of an upload, or "" when it is not
// an image. A missing or generic declared type is replaced by sniffing.
func imageType(declared string, data []byte) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return ""
	}
	return mediaType
}

func extensionFor(mediaType string) string {
	if ext, ok := imageExtensions[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func (s *galleryService) List(ctx context.Context, page repository.Page) ([]model.GalleryImage, error) {
	images, err := s.galleryRepo.List(ctx, page)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list gallery")
		return nil, fmt.Errorf("failed to list gallery: %w", err)
	}
	return images, nil
}

// Delete removes the gallery record and then its object. A failure to
// remove the object is logged only.
func (s *galleryService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	img, err := s.galleryRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get image: %w", err)
	}
	if img == nil {
		return model.ErrImageNotFound
	}

	if err := s.galleryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrImageNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete image: %w", err)
	}

	if err := s.store.Delete(ctx, img.ObjectKey); err != nil {
		s.logger.Warn().Err(err).Str("object_key", img.ObjectKey).Msg("failed to delete stored image")
	}

	s.logger.Info().Str("image_id", id.String()).Msg("image deleted")
	return nil
}

// Open streams a stored gallery object.
func (s *galleryService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := storage.CleanKey(key)
	if err != nil || !strings.HasPrefix(key, galleryKeyPrefix) {
		return nil, model.ErrImageNotFound
	}
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, model.ErrImageNotFound
		}
		s.logger.Error().Err(err).Str("object_key", key).Msg("failed to open stored image")
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return rc, nil
}
