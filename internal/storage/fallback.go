package storage

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
)

// fallbackStore writes to and reads from a primary store, using a secondary
// store when the primary is unavailable.
type fallbackStore struct {
	primary   ObjectStore
	secondary ObjectStore
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries primary first, then secondary.
// If primary is nil only secondary is used.
func NewFallbackStore(primary, secondary ObjectStore, logger zerolog.Logger) ObjectStore {
	if primary == nil {
		return secondary
	}
	return &fallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-store").Logger(),
	}
}

func (s *fallbackStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	err := s.primary.Put(ctx, key, data, contentType)
	if err == nil || errors.Is(err, ErrInvalidKey) {
		return err
	}

	s.logger.Warn().
		Err(err).
		Str("key", key).
		Msg("primary store failed, writing to fallback store")

	return s.secondary.Put(ctx, key, data, contentType)
}

func (s *fallbackStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.primary.Get(ctx, key)
	if err == nil || errors.Is(err, ErrInvalidKey) {
		return rc, err
	}

	if !errors.Is(err, ErrNotFound) {
		s.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("primary store failed, reading from fallback store")
	}

	return s.secondary.Get(ctx, key)
}

// Delete removes the object from both stores.
func (s *fallbackStore) Delete(ctx context.Context, key string) error {
	return errors.Join(s.primary.Delete(ctx, key), s.secondary.Delete(ctx, key))
}
