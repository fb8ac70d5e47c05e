package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMemberNotFound = fmt.Errorf("gallery member not found")
)

/*
GalleryImage is one image's membership in one gallery. Position is the
image's slot in the gallery, 0-based and contiguous. Description is the
gallery-specific caption and lives here, not on the image.

A persisted member has a plain UUID for an ID, issued when the row is
inserted. Members staged for a gallery that does not exist yet carry a
temporary ID (see NewTemporaryID) and GalleryID 0 until the gallery is
created and the staged members are replaced with persisted ones.

Image is the denormalized display snapshot. It is nil when the backing
image no longer exists; such members are skipped for display and do not
occupy a position.
*/
type GalleryImage struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	GalleryID   uint
	ImageID     string
	Description string
	Position    int
	Image       *Image
}

const temporaryIDPrefix = "tmp-"

func NewGalleryImageID() string {
	return uuid.New().String()
}

/*
NewTemporaryID returns an ID for a member that has not been persisted
yet. The prefix keeps temporary IDs from ever colliding with persisted
ones.
*/
func NewTemporaryID() string {
	return temporaryIDPrefix + uuid.New().String()
}

func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, temporaryIDPrefix)
}

/*
NewStagedGalleryImage builds a temporary member for an image being added
to a gallery that has not been created yet.
*/
func NewStagedGalleryImage(image Image, position int) GalleryImage {
	return GalleryImage{
		ID:        NewTemporaryID(),
		CreatedAt: time.Now(),
		ImageID:   image.ID,
		Position:  position,
		Image:     &image,
	}
}
