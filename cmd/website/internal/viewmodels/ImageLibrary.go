package viewmodels

import (
	"github.com/adampresley/galleria/pkg/models"
)

type ImageLibrary struct {
	BaseViewModel

	User   *models.User
	Images []models.Image
}
