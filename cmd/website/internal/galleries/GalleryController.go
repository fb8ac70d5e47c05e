package galleries

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/getoptions"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/galleria/cmd/website/internal/viewmodels"
	"github.com/adampresley/galleria/pkg/editor"
	"github.com/adampresley/galleria/pkg/models"
	"github.com/adampresley/galleria/pkg/services"
	"github.com/rfberaldo/sqlz"
)

type GalleryControllerConfig struct {
	Bucket         string
	GalleryService services.GalleryServicer
	ImageService   services.ImageServicer
	PhotoFolder    string
	Renderer       rendering.TemplateRenderer
	S3Client       s3.S3Client
	SessionManager *editor.Manager
	SessionService sessions.Session[*models.User]
	ZipService     services.GalleryZipServicer
}

type GalleryController struct {
	bucket         string
	galleryService services.GalleryServicer
	imageService   services.ImageServicer
	photoFolder    string
	renderer       rendering.TemplateRenderer
	s3Client       s3.S3Client
	sessionManager *editor.Manager
	sessionService sessions.Session[*models.User]
	zipService     services.GalleryZipServicer
}

func NewGalleryController(config GalleryControllerConfig) GalleryController {
	return GalleryController{
		bucket:         config.Bucket,
		galleryService: config.GalleryService,
		imageService:   config.ImageService,
		photoFolder:    config.PhotoFolder,
		renderer:       config.Renderer,
		s3Client:       config.S3Client,
		sessionManager: config.SessionManager,
		sessionService: config.SessionService,
		zipService:     config.ZipService,
	}
}

/*
GET /galleries
*/
func (c GalleryController) GalleryListPage(w http.ResponseWriter, r *http.Request) {
	var (
		err       error
		galleries []*models.Gallery
	)

	viewData := viewmodels.GalleryList{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		Galleries: []*models.Gallery{},
	}

	viewData.User = viewmodels.GetUserFromContext(r)

	if galleries, err = c.galleryService.GetGalleryList(viewData.User.ID); err != nil && !sqlz.IsNotFound(err) {
		slog.Error("error getting gallery list", "error", err, "userID", viewData.User.ID)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred. Please reach out for assistance."

		c.renderer.Render("pages/galleries/gallery-list", viewData, w)
		return
	}

	viewData.Galleries = galleries
	c.renderer.Render("pages/galleries/gallery-list", viewData, w)
}

/*
GET /galleries/new

A brand new gallery is edited through a pending session. Images picked
here are staged in that session and only hit the database when the
gallery itself is created.
*/
func (c GalleryController) NewGalleryPage(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		library []models.Image
	)

	viewData := viewmodels.NewGallery{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
			JavascriptIncludes: []rendering.JavascriptInclude{
				{Type: "module", Src: "/static/js/pages/edit-gallery.js"},
			},
		},
		Library: []models.Image{},
	}

	viewData.User = viewmodels.GetUserFromContext(r)

	store := services.NewEditorStore(viewData.User.ID, c.galleryService, c.imageService)
	session := editor.NewSession(editor.SessionConfig{
		Store:  store,
		Images: store,
	})

	viewData.SessionToken = c.sessionManager.Create(viewData.User.ID, session)

	if library, err = c.imageService.GetImageList(viewData.User.ID); err != nil {
		slog.Error("error getting image library", "error", err, "userID", viewData.User.ID)
	}

	viewData.Library = library
	c.renderer.Render("pages/galleries/new-gallery", viewData, w)
}

/*
POST /galleries/new
*/
func (c GalleryController) CreateGalleryAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		created *models.Gallery
	)

	user := viewmodels.GetUserFromContext(r)
	token := httphelpers.GetFromRequest[string](r, "token")
	name := httphelpers.GetFromRequest[string](r, "name")

	session, ok := c.sessionManager.Get(token, user.ID)

	if !ok {
		http.Redirect(w, r, "/galleries/new", http.StatusFound)
		return
	}

	if name == "" {
		viewData := viewmodels.NewGallery{
			BaseViewModel: viewmodels.BaseViewModel{
				IsHtmx:    httphelpers.IsHtmx(r),
				IsWarning: true,
				Message:   "Please give your gallery a name.",
			},
			User:         user,
			SessionToken: token,
		}

		if viewData.Library, err = c.imageService.GetImageList(user.ID); err != nil {
			slog.Error("error getting image library", "error", err, "userID", user.ID)
		}

		c.renderer.Render("pages/galleries/new-gallery", viewData, w)
		return
	}

	gallery := models.Gallery{
		Name:        name,
		Description: httphelpers.GetFromRequest[string](r, "description"),
		IsPublic:    httphelpers.GetFromRequest[string](r, "isPublic") != "",
		Theme:       httphelpers.GetFromRequest[string](r, "theme"),
	}

	created, err = c.galleryService.CreateGallery(user.ID, gallery, session.StagedEntries())

	if err != nil {
		slog.Error("error creating gallery", "error", err, "userID", user.ID)

		viewData := viewmodels.NewGallery{
			BaseViewModel: viewmodels.BaseViewModel{
				IsHtmx:  httphelpers.IsHtmx(r),
				IsError: true,
				Message: "An unexpected error occurred creating your gallery. Please try again.",
			},
			User:         user,
			SessionToken: token,
		}

		c.renderer.Render("pages/galleries/new-gallery", viewData, w)
		return
	}

	if err = session.AttachCreated(created); err != nil {
		slog.Error("error attaching created gallery to session", "error", err, "galleryID", created.ID)
	}

	http.Redirect(w, r, fmt.Sprintf("/galleries/%d/edit?token=%s", created.ID, token), http.StatusFound)
}

/*
GET /galleries/{id}
*/
func (c GalleryController) ViewGalleryPage(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		gallery *models.Gallery
	)

	viewData := viewmodels.ViewGallery{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		GalleryID: httphelpers.GetFromRequest[uint](r, "id"),
	}

	viewData.User = viewmodels.GetUserFromContext(r)

	if gallery, err = c.galleryService.GetGallery(viewData.User.ID, viewData.GalleryID); err != nil {
		slog.Error("an error occurred querying gallery in ViewGalleryPage", "error", err, "galleryID", viewData.GalleryID)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred. Please reach out for assistance."

		c.renderer.Render("pages/galleries/view-gallery", viewData, w)
		return
	}

	viewData.Gallery = gallery
	c.renderer.Render("pages/galleries/view-gallery", viewData, w)
}

/*
GET /galleries/{id}/edit

An editing session is created for the gallery and its token handed to
the page. The create flow redirects here with its own token so the
staged session carries over; any other token, or none, gets a fresh
session loaded from the database.
*/
func (c GalleryController) EditGalleryPage(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		session *editor.Session
		library []models.Image
	)

	viewData := viewmodels.EditGallery{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
			JavascriptIncludes: []rendering.JavascriptInclude{
				{Type: "module", Src: "/static/js/pages/edit-gallery.js"},
			},
		},
		GalleryID: httphelpers.GetFromRequest[uint](r, "id"),
		Library:   []models.Image{},
	}

	viewData.User = viewmodels.GetUserFromContext(r)
	token := httphelpers.GetFromRequest[string](r, "token")

	if token != "" {
		if existing, ok := c.sessionManager.Get(token, viewData.User.ID); ok && existing.GalleryID() == viewData.GalleryID {
			session = existing
		}
	}

	if session == nil {
		store := services.NewEditorStore(viewData.User.ID, c.galleryService, c.imageService)
		session = editor.NewSession(editor.SessionConfig{
			Store:         store,
			Images:        store,
			AutoSaveOrder: true,
		})

		if err = session.Load(viewData.GalleryID); err != nil {
			session.Close()
			slog.Error("error loading gallery for editing", "error", err, "galleryID", viewData.GalleryID)
			viewData.IsError = true
			viewData.Message = "An unexpected error occurred. Please reach out for assistance."

			c.renderer.Render("pages/galleries/edit-gallery", viewData, w)
			return
		}

		token = c.sessionManager.Create(viewData.User.ID, session)
	}

	if gallery := session.Gallery(); gallery != nil {
		viewData.Gallery = *gallery
	}

	if library, err = c.imageService.GetImageList(viewData.User.ID); err != nil {
		slog.Error("error getting image library", "error", err, "userID", viewData.User.ID)
	}

	viewData.SessionToken = token
	viewData.Library = library
	c.renderer.Render("pages/galleries/edit-gallery", viewData, w)
}

/*
POST /galleries/{id}/delete
*/
func (c GalleryController) DeleteGalleryAction(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	user := viewmodels.GetUserFromContext(r)
	galleryID := httphelpers.GetFromRequest[uint](r, "id")

	if err = c.galleryService.DeleteGallery(user.ID, galleryID); err != nil {
		slog.Error("error deleting gallery", "error", err, "galleryID", galleryID)
	}

	http.Redirect(w, r, "/galleries", http.StatusFound)
}

/*
GET /galleries/{id}/download-all
*/
func (c GalleryController) DownloadAllImagesInGallery(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		gallery *models.Gallery
	)

	user := viewmodels.GetUserFromContext(r)
	galleryID := httphelpers.GetFromRequest[uint](r, "id")

	if gallery, err = c.galleryService.GetGallery(user.ID, galleryID); err != nil {
		httphelpers.WriteText(w, http.StatusNotFound, "gallery not found")
		return
	}

	// Start the async zip creation process
	_, err = c.zipService.CreateZipAsync(gallery, user)
	if err != nil {
		slog.Error("failed to start zip creation", "error", err, "galleryID", galleryID)
		httphelpers.TextInternalServerError(w, "Failed to start download preparation")
		return
	}

	viewData := viewmodels.DownloadStarted{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		Gallery: gallery,
		User:    user,
	}

	c.renderer.Render("pages/galleries/download-started", viewData, w)
}

/*
GET /galleries/downloads/{filename}
*/
func (c GalleryController) DownloadZip(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		object s3.GetObjectResponse
	)

	user := viewmodels.GetUserFromContext(r)
	filename := httphelpers.GetFromRequest[string](r, "filename")

	// Sanitize the filename to prevent directory traversal
	filename = filepath.Base(filename)

	zipKey := filepath.Join(
		c.photoFolder,
		fmt.Sprint(user.ID),
		"downloads",
		filename,
	)

	slog.Info("serving zip download from S3", "filename", filename, "key", zipKey, "userID", user.ID)

	object, err = c.s3Client.Get(
		c.bucket,
		zipKey,
		getoptions.WithContext(r.Context()),
	)

	if err != nil {
		slog.Error("error getting zip object from S3", "error", err, "bucket", c.bucket, "key", zipKey)
		httphelpers.WriteText(w, http.StatusNotFound, "Download file not found")
		return
	}

	defer object.Body.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", object.Size))

	if _, err = io.Copy(w, object.Body); err != nil {
		slog.Error("error streaming zip file", "error", err, "key", zipKey)
		return
	}

	slog.Info("zip file download completed", "filename", filename, "userID", user.ID)
}
