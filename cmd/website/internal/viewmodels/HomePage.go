package viewmodels

import "github.com/adampresley/galleria/pkg/models"

type HomePage struct {
	BaseViewModel

	Galleries []*models.Gallery
}
