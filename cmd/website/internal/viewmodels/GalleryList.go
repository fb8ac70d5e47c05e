package viewmodels

import (
	"github.com/adampresley/galleria/pkg/models"
)

type GalleryList struct {
	BaseViewModel

	User      *models.User
	Galleries []*models.Gallery
}
