package viewmodels

import "github.com/adampresley/galleria/pkg/models"

type DownloadStarted struct {
	BaseViewModel

	User    *models.User
	Gallery *models.Gallery
}
