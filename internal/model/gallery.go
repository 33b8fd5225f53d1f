package model

import (
	"time"

	"github.com/google/uuid"
)

// GalleryImage is a photo shown on the public gallery page.
type GalleryImage struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	ObjectKey   string    `json:"-" db:"object_key"`
	URL         string    `json:"url" db:"url"`
	ContentType string    `json:"contentType" db:"content_type"`
	UploadedBy  uuid.UUID `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
