package viewmodels

import (
	"github.com/adampresley/galleria/pkg/models"
)

type NewGallery struct {
	BaseViewModel

	User         *models.User
	SessionToken string
	Library      []models.Image
}
