package viewmodels

import (
	"github.com/adampresley/galleria/pkg/models"
)

type EditGallery struct {
	BaseViewModel

	User         *models.User
	GalleryID    uint
	SessionToken string
	Gallery      models.Gallery
	Library      []models.Image
}
