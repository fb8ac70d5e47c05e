package uploads

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/galleria/cmd/website/internal/thumbnails"
	"github.com/adampresley/galleria/cmd/website/internal/viewmodels"
	"github.com/adampresley/galleria/pkg/models"
	"github.com/adampresley/galleria/pkg/services"
)

const maxUploadMemory = 32 << 20

var validImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

type UploadControllerConfig struct {
	Bucket           string
	ImageService     services.ImageServicer
	PhotoFolder      string
	Renderer         rendering.TemplateRenderer
	S3Client         s3.S3Client
	ThumbnailCreator thumbnails.ThumbnailCreator
}

type UploadController struct {
	bucket           string
	imageService     services.ImageServicer
	photoFolder      string
	renderer         rendering.TemplateRenderer
	s3Client         s3.S3Client
	thumbnailCreator thumbnails.ThumbnailCreator
}

func NewUploadController(config UploadControllerConfig) UploadController {
	return UploadController{
		bucket:           config.Bucket,
		imageService:     config.ImageService,
		photoFolder:      config.PhotoFolder,
		renderer:         config.Renderer,
		s3Client:         config.S3Client,
		thumbnailCreator: config.ThumbnailCreator,
	}
}

/*
GET /library
*/
func (c UploadController) LibraryPage(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		images []models.Image
	)

	viewData := viewmodels.ImageLibrary{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
		Images: []models.Image{},
	}

	viewData.User = viewmodels.GetUserFromContext(r)

	if images, err = c.imageService.GetImageList(viewData.User.ID); err != nil {
		slog.Error("error getting image library", "error", err, "userID", viewData.User.ID)
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred. Please reach out for assistance."

		c.renderer.Render("pages/library/image-library", viewData, w)
		return
	}

	viewData.Images = images
	c.renderer.Render("pages/library/image-library", viewData, w)
}

/*
POST /library/upload

Accepts one or more files in the "images" field. Each file is stored in
S3 first, then recorded, then thumbnailed. Files that are not images are
skipped.
*/
func (c UploadController) UploadAction(w http.ResponseWriter, r *http.Request) {
	var (
		err      error
		uploaded int
		skipped  int
	)

	user := viewmodels.GetUserFromContext(r)

	if err = r.ParseMultipartForm(maxUploadMemory); err != nil {
		slog.Error("error parsing upload form", "error", err, "userID", user.ID)
		httphelpers.WriteText(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	tags := splitTags(httphelpers.GetFromRequest[string](r, "tags"))

	for _, fileHeader := range r.MultipartForm.File["images"] {
		if err = c.saveUpload(user.ID, fileHeader, tags); err != nil {
			slog.Error("error saving upload", "error", err, "fileName", fileHeader.Filename, "userID", user.ID)
			skipped++
			continue
		}

		uploaded++
	}

	slog.Info("upload finished", "userID", user.ID, "uploaded", uploaded, "skipped", skipped)
	http.Redirect(w, r, "/library", http.StatusFound)
}

/*
POST /library/{id}/delete
*/
func (c UploadController) DeleteImageAction(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	user := viewmodels.GetUserFromContext(r)
	imageID := httphelpers.GetFromRequest[string](r, "id")

	if err = c.imageService.DeleteImage(user.ID, imageID); err != nil {
		slog.Error("error deleting image", "error", err, "imageID", imageID)
	}

	http.Redirect(w, r, "/library", http.StatusFound)
}

func (c UploadController) saveUpload(userID uint, fileHeader *multipart.FileHeader, tags []string) error {
	var (
		err  error
		f    multipart.File
		data []byte
	)

	extension := strings.ToLower(filepath.Ext(fileHeader.Filename))

	if !slices.IsInSlice(extension, validImageExtensions) {
		return fmt.Errorf("unsupported file type '%s'", extension)
	}

	if f, err = fileHeader.Open(); err != nil {
		return fmt.Errorf("error opening uploaded file: %w", err)
	}

	defer f.Close()

	if data, err = io.ReadAll(f); err != nil {
		return fmt.Errorf("error reading uploaded file: %w", err)
	}

	imageID := models.NewImageID()
	key := services.OriginalKey(c.photoFolder, userID, imageID, extension)

	img := &models.Image{
		ID:          imageID,
		UserID:      userID,
		Title:       strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename)),
		Path:        key,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}

	/*
	 * Dimensions are nice to have. A file that decodes poorly still
	 * gets stored, it just won't report a size.
	 */
	if imageConfig, _, configErr := image.DecodeConfig(bytes.NewReader(data)); configErr == nil {
		img.Width = imageConfig.Width
		img.Height = imageConfig.Height
	}

	if _, err = c.s3Client.Put(c.bucket, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("error storing file in S3: %w", err)
	}

	if err = c.imageService.SaveImage(img, tags); err != nil {
		return fmt.Errorf("error saving image record: %w", err)
	}

	if err = c.thumbnailCreator.EnsureThumbnail(img); err != nil {
		slog.Error("error creating thumbnail for new upload", "error", err, "imageID", img.ID)
	}

	return nil
}

func splitTags(raw string) []string {
	result := []string{}

	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)

		if tag != "" {
			result = append(result, tag)
		}
	}

	return result
}
