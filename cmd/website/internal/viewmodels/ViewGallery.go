package viewmodels

import (
	"github.com/adampresley/galleria/pkg/models"
)

type ViewGallery struct {
	BaseViewModel

	User      *models.User
	GalleryID uint
	Gallery   *models.Gallery
}
