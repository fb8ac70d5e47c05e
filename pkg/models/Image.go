package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrImageNotFound = fmt.Errorf("image not found")
)

func NewImageID() string {
	return uuid.New().String()
}

/*
Image is a single uploaded photo. The ID is a UUID and doubles as the
basis for the object's S3 keys. Path is the S3 key of the full-size
original. ThumbnailURL and OriginalURL are resolved from S3 when the
image is read and are never stored.
*/
type Image struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time

	UserID      uint
	Title       string
	Description string
	Path        string
	ContentType string
	Width       int
	Height      int
	Tags        []Tag

	ThumbnailURL string
	OriginalURL  string
}
