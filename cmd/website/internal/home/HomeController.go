package home

import (
	"log/slog"
	"net/http"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/galleria/cmd/website/internal/configuration"
	"github.com/adampresley/galleria/cmd/website/internal/viewmodels"
	"github.com/adampresley/galleria/pkg/models"
	"github.com/adampresley/galleria/pkg/services"
)

type HomeHandlers interface {
	HomePage(w http.ResponseWriter, r *http.Request)
	PublicGalleryPage(w http.ResponseWriter, r *http.Request)
}

type HomeControllerConfig struct {
	Config         *configuration.Config
	GalleryService services.GalleryServicer
	Renderer       rendering.TemplateRenderer
}

type HomeController struct {
	config         *configuration.Config
	galleryService services.GalleryServicer
	renderer       rendering.TemplateRenderer
}

func NewHomeController(config HomeControllerConfig) HomeController {
	return HomeController{
		config:         config.Config,
		galleryService: config.GalleryService,
		renderer:       config.Renderer,
	}
}

/*
GET /
*/
func (c HomeController) HomePage(w http.ResponseWriter, r *http.Request) {
	var (
		err       error
		galleries []*models.Gallery
	)

	pageName := "pages/home"

	viewData := viewmodels.HomePage{
		BaseViewModel: viewmodels.BaseViewModel{
			Message:            "",
			IsHtmx:             httphelpers.IsHtmx(r),
			JavascriptIncludes: []rendering.JavascriptInclude{},
		},
		Galleries: []*models.Gallery{},
	}

	if galleries, err = c.galleryService.GetPublicGalleryList(); err != nil {
		slog.Error("error getting public gallery list", "error", err)
		viewData.IsError = true
		viewData.Message = "There was a problem getting galleries for this page."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Galleries = galleries
	c.renderer.Render(pageName, viewData, w)
}

/*
GET /public/{id}
*/
func (c HomeController) PublicGalleryPage(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		gallery *models.Gallery
	)

	pageName := "pages/public-gallery"

	viewData := viewmodels.ViewGallery{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		GalleryID: httphelpers.GetFromRequest[uint](r, "id"),
	}

	if gallery, err = c.galleryService.GetPublicGallery(viewData.GalleryID); err != nil {
		slog.Error("error getting public gallery", "error", err, "galleryID", viewData.GalleryID)
		viewData.IsWarning = true
		viewData.Message = "That gallery could not be found."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Gallery = gallery
	c.renderer.Render(pageName, viewData, w)
}
